package models

import (
	"time"

	"github.com/google/uuid"
)

type Team struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	LeaderID  uuid.UUID `json:"leader_id"`
	JoinCode  string    `json:"join_code"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TeamMember is an explicit membership row. The leader never has one.
type TeamMember struct {
	ID        uuid.UUID  `json:"id"`
	TeamID    uuid.UUID  `json:"team_id"`
	StudentID uuid.UUID  `json:"student_id"`
	JoinedAt  time.Time  `json:"joined_at"`
	Active    bool       `json:"active"`
	LeftAt    *time.Time `json:"left_at,omitempty"`
	Student   *Student   `json:"student,omitempty"`
	Team      *Team      `json:"team,omitempty"`
}

// TeamRoster is who currently belongs to a team: the leader plus active members.
type TeamRoster struct {
	Team    *Team        `json:"team"`
	Leader  *Student     `json:"leader"`
	Members []TeamMember `json:"members"`
}

func (r *TeamRoster) Includes(studentID uuid.UUID) bool {
	if r.Team != nil && r.Team.LeaderID == studentID {
		return true
	}
	for _, m := range r.Members {
		if m.StudentID == studentID {
			return true
		}
	}
	return false
}
