package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateTeamRequest accepts the leader under either liderPerfilAlunoId or
// leaderId, and the name under nome or name.
type CreateTeamRequest struct {
	LeaderID string `json:"liderPerfilAlunoId" validate:"required,uuid"`
	Name     string `json:"nome" validate:"required,min=3,max=100"`

	LeaderIDAlias string `json:"leaderId,omitempty" validate:"-"`
	NameAlias     string `json:"name,omitempty" validate:"-"`
}

func (r *CreateTeamRequest) Normalize() {
	if r.LeaderID == "" {
		r.LeaderID = r.LeaderIDAlias
	}
	if r.Name == "" {
		r.Name = r.NameAlias
	}
}

type UpdateTeamRequest struct {
	Name      string `json:"nome" validate:"required,min=3,max=100"`
	NameAlias string `json:"name,omitempty" validate:"-"`
}

func (r *UpdateTeamRequest) Normalize() {
	if r.Name == "" {
		r.Name = r.NameAlias
	}
}

type TeamResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"nome"`
	LeaderID  uuid.UUID `json:"liderPerfilAlunoId"`
	JoinCode  string    `json:"codigoConvite"`
	Active    bool      `json:"isActive"`
	CreatedAt time.Time `json:"criadoEm"`
	UpdatedAt time.Time `json:"alteradoEm"`
}

type StudentResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"nome"`
	Email string    `json:"email,omitempty"`
}

type TeamDetailsResponse struct {
	TeamResponse
	Leader  StudentResponse  `json:"lider"`
	Members []MemberResponse `json:"membros"`
}
