package dto

import (
	"time"

	"github.com/google/uuid"
)

type AddMemberRequest struct {
	TeamID    string `json:"equipeId" validate:"required,uuid"`
	StudentID string `json:"perfilAlunoId" validate:"required,uuid"`
}

type MemberResponse struct {
	ID        uuid.UUID        `json:"id"`
	TeamID    uuid.UUID        `json:"equipeId"`
	StudentID uuid.UUID        `json:"perfilAlunoId"`
	JoinedAt  time.Time        `json:"dataEntrada"`
	Active    bool             `json:"isActive"`
	LeftAt    *time.Time       `json:"dataSaida,omitempty"`
	Student   *StudentResponse `json:"aluno,omitempty"`
	Team      *TeamResponse    `json:"equipe,omitempty"`
}

type IsMemberResponse struct {
	IsMember bool `json:"isMembro"`
}
