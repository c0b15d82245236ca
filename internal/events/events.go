package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TeamCreated         = "team.created"
	TeamRenamed         = "team.renamed"
	TeamJoinCodeRotated = "team.join_code_rotated"
	TeamDeleted         = "team.deleted"

	MemberAdded   = "membership.added"
	MemberRemoved = "membership.removed"

	InvitationCreated   = "invitation.created"
	InvitationAccepted  = "invitation.accepted"
	InvitationRejected  = "invitation.rejected"
	InvitationCancelled = "invitation.cancelled"
)

// Event is the payload published for every committed state change. Messages
// are keyed by team so a consumer sees one team's changes in order.
type Event struct {
	Type         string     `json:"type"`
	TeamID       uuid.UUID  `json:"team_id"`
	StudentID    *uuid.UUID `json:"student_id,omitempty"`
	InvitationID *uuid.UUID `json:"invitation_id,omitempty"`
	Status       string     `json:"status,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	OccurredAt   time.Time  `json:"occurred_at"`
}

func New(eventType string, teamID uuid.UUID) Event {
	return Event{Type: eventType, TeamID: teamID, OccurredAt: time.Now().UTC()}
}

func (e Event) WithStudent(id uuid.UUID) Event {
	e.StudentID = &id
	return e
}

func (e Event) WithInvitation(id uuid.UUID, status string) Event {
	e.InvitationID = &id
	e.Status = status
	return e
}

func (e Event) WithReason(reason string) Event {
	e.Reason = reason
	return e
}

func (e Event) Key() string {
	return e.TeamID.String()
}
