package models

import (
	"time"

	"github.com/google/uuid"
)

// Student is a student profile (perfil de aluno). Profiles are owned by the
// academic registry; this service keeps the fields it needs for eligibility
// checks and notifications.
type Student struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
