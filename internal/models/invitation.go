package models

import (
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "Pendente"
	InvitationAccepted  InvitationStatus = "Aceito"
	InvitationRejected  InvitationStatus = "Rejeitado"
	InvitationCancelled InvitationStatus = "Cancelado"
)

// IsTerminal reports whether no further transition is allowed.
func (s InvitationStatus) IsTerminal() bool {
	switch s {
	case InvitationAccepted, InvitationRejected, InvitationCancelled:
		return true
	}
	return false
}

const (
	ReasonSuperseded      = "superseded"
	ReasonSupersededByAdd = "superseded by direct add"
	ReasonTeamDeleted     = "team deleted"
)

type Invitation struct {
	ID             uuid.UUID        `json:"id"`
	TeamID         uuid.UUID        `json:"team_id"`
	InviterID      uuid.UUID        `json:"inviter_id"`
	InviteeID      uuid.UUID        `json:"invitee_id"`
	Message        *string          `json:"message,omitempty"`
	Status         InvitationStatus `json:"status"`
	ResponseReason *string          `json:"response_reason,omitempty"`
	RespondedAt    *time.Time       `json:"responded_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`

	TeamName    string `json:"team_name,omitempty"`
	InviterName string `json:"inviter_name,omitempty"`
	InviteeName string `json:"invitee_name,omitempty"`
}
