package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/peifeira/peifeira-api/internal/database"
	"github.com/peifeira/peifeira-api/internal/models"
	"github.com/peifeira/peifeira-api/internal/services"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateStudent creates an active student profile
func (f *Fixtures) CreateStudent(t *testing.T, opts ...StudentOption) *models.Student {
	t.Helper()
	f.counter++

	student := &models.Student{
		Name:   fmt.Sprintf("Aluno %d", f.counter),
		Email:  fmt.Sprintf("aluno%d@example.com", f.counter),
		Active: true,
	}

	for _, opt := range opts {
		opt(student)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO students (name, email, active)
		VALUES ($1, $2, $3)
		RETURNING id, name, email, active, created_at, updated_at
	`, student.Name, student.Email, student.Active).Scan(
		&student.ID, &student.Name, &student.Email, &student.Active,
		&student.CreatedAt, &student.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create student: %v", err)
	}

	return student
}

// StudentOption configures a test student
type StudentOption func(*models.Student)

// WithStudentName sets the student's name
func WithStudentName(name string) StudentOption {
	return func(s *models.Student) {
		s.Name = name
	}
}

// Inactive creates the student with its profile deactivated
func Inactive() StudentOption {
	return func(s *models.Student) {
		s.Active = false
	}
}

// CreateTeam creates an active team led by the given student
func (f *Fixtures) CreateTeam(t *testing.T, leader *models.Student, opts ...TeamOption) *models.Team {
	t.Helper()
	f.counter++

	code, err := services.NewJoinCodeGenerator(0, 0).Generate()
	if err != nil {
		t.Fatalf("failed to generate join code: %v", err)
	}

	team := &models.Team{
		Name:     fmt.Sprintf("Equipe %d", f.counter),
		LeaderID: leader.ID,
		JoinCode: code,
	}

	for _, opt := range opts {
		opt(team)
	}

	ctx := context.Background()
	err = f.db.Pool.QueryRow(ctx, `
		INSERT INTO teams (name, leader_id, join_code)
		VALUES ($1, $2, $3)
		RETURNING id, name, leader_id, join_code, active, created_at, updated_at
	`, team.Name, team.LeaderID, team.JoinCode).Scan(
		&team.ID, &team.Name, &team.LeaderID, &team.JoinCode,
		&team.Active, &team.CreatedAt, &team.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create team: %v", err)
	}

	return team
}

// TeamOption configures a test team
type TeamOption func(*models.Team)

// WithTeamName sets the team's name
func WithTeamName(name string) TeamOption {
	return func(t *models.Team) {
		t.Name = name
	}
}

// WithJoinCode sets the team's join code
func WithJoinCode(code string) TeamOption {
	return func(t *models.Team) {
		t.JoinCode = code
	}
}

// AddTeamMember adds an active membership row
func (f *Fixtures) AddTeamMember(t *testing.T, team *models.Team, student *models.Student) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO team_members (team_id, student_id)
		VALUES ($1, $2)
	`, team.ID, student.ID)
	if err != nil {
		t.Fatalf("failed to add team member: %v", err)
	}
}

// CountPending returns how many pending invitations exist for the pair
func (f *Fixtures) CountPending(t *testing.T, team *models.Team, invitee *models.Student) int {
	t.Helper()
	var n int
	err := f.db.Pool.QueryRow(context.Background(), `
		SELECT COUNT(*) FROM team_invitations
		WHERE team_id = $1 AND invitee_id = $2 AND status = $3
	`, team.ID, invitee.ID, models.InvitationPending).Scan(&n)
	if err != nil {
		t.Fatalf("failed to count pending invitations: %v", err)
	}
	return n
}

// CountActiveMemberships returns how many active membership rows exist for the pair
func (f *Fixtures) CountActiveMemberships(t *testing.T, team *models.Team, student *models.Student) int {
	t.Helper()
	var n int
	err := f.db.Pool.QueryRow(context.Background(), `
		SELECT COUNT(*) FROM team_members
		WHERE team_id = $1 AND student_id = $2 AND active
	`, team.ID, student.ID).Scan(&n)
	if err != nil {
		t.Fatalf("failed to count memberships: %v", err)
	}
	return n
}
