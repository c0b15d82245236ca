package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateInvitationRequest struct {
	TeamID    string  `json:"equipeId" validate:"required,uuid"`
	InviterID string  `json:"convidadoPorId" validate:"required,uuid"`
	InviteeID string  `json:"convidadoId" validate:"required,uuid"`
	Message   *string `json:"mensagem,omitempty" validate:"omitempty,max=500"`
}

// InvitationActionRequest is the body of aceitar, recusar and cancelar.
// Reason is only read when rejecting; its length is checked after the
// invitation is found and the actor authorized.
type InvitationActionRequest struct {
	StudentID string  `json:"perfilAlunoId" validate:"required,uuid"`
	Reason    *string `json:"motivo,omitempty"`
}

type InvitationResponse struct {
	ID             uuid.UUID  `json:"id"`
	Active         bool       `json:"isActive"`
	TeamID         uuid.UUID  `json:"equipeId"`
	InviterID      uuid.UUID  `json:"convidadoPorId"`
	InviteeID      uuid.UUID  `json:"convidadoId"`
	Message        *string    `json:"mensagem,omitempty"`
	Status         string     `json:"status"`
	ResponseReason *string    `json:"motivoResposta,omitempty"`
	RespondedAt    *time.Time `json:"dataResposta,omitempty"`
	CreatedAt      time.Time  `json:"criadoEm"`
	UpdatedAt      time.Time  `json:"alteradoEm"`
	TeamName       string     `json:"nomeEquipe,omitempty"`
	InviterName    string     `json:"nomeConvidadoPor,omitempty"`
	InviteeName    string     `json:"nomeConvidado,omitempty"`
}
