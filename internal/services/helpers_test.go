package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/peifeira/peifeira-api/internal/database"
	"github.com/peifeira/peifeira-api/internal/events"
	"github.com/peifeira/peifeira-api/internal/models"
	"github.com/stretchr/testify/require"
)

var (
	teamCols       = []string{"id", "name", "leader_id", "join_code", "active", "created_at", "updated_at"}
	memberCols     = []string{"id", "team_id", "student_id", "joined_at", "active", "left_at"}
	studentCols    = []string{"id", "name", "email", "active", "created_at", "updated_at"}
	invitationCols = []string{"id", "team_id", "inviter_id", "invitee_id", "message", "status", "response_reason", "responded_at", "created_at", "updated_at"}
	detailCols     = append(append([]string{}, invitationCols...), "team_name", "inviter_name", "invitee_name")
)

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// fixedCodes returns a generator whose successive codes repeat the alphabet
// letter at each index, e.g. 0 -> "AAAAAA", 1 -> "BBBBBB".
func fixedCodes(maxAttempts int, indexes ...byte) *JoinCodeGenerator {
	g := NewJoinCodeGenerator(6, maxAttempts)
	var buf []byte
	for _, i := range indexes {
		buf = append(buf, bytes.Repeat([]byte{i}, 12)...)
	}
	g.random = bytes.NewReader(buf)
	return g
}

func newMockDB(t *testing.T) (*database.DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return &database.DB{Pool: mock}, mock
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func newTeam(leaderID uuid.UUID) models.Team {
	now := time.Now()
	return models.Team{
		ID:        uuid.New(),
		Name:      "Equipe Alfa",
		LeaderID:  leaderID,
		JoinCode:  "AAAAAA",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func teamRows(teams ...models.Team) *pgxmock.Rows {
	rows := pgxmock.NewRows(teamCols)
	for _, t := range teams {
		rows.AddRow(t.ID, t.Name, t.LeaderID, t.JoinCode, t.Active, t.CreatedAt, t.UpdatedAt)
	}
	return rows
}

func memberRow(teamID, studentID uuid.UUID) *pgxmock.Rows {
	return pgxmock.NewRows(memberCols).
		AddRow(uuid.New(), teamID, studentID, time.Now(), true, (*time.Time)(nil))
}

func activeRow(active bool) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"active"}).AddRow(active)
}

func existsRow(exists bool) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"exists"}).AddRow(exists)
}

func newInvitation(teamID, inviterID, inviteeID uuid.UUID, status models.InvitationStatus) models.Invitation {
	now := time.Now()
	return models.Invitation{
		ID:        uuid.New(),
		TeamID:    teamID,
		InviterID: inviterID,
		InviteeID: inviteeID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func invitationRows(inv models.Invitation) *pgxmock.Rows {
	return pgxmock.NewRows(invitationCols).AddRow(
		inv.ID, inv.TeamID, inv.InviterID, inv.InviteeID, inv.Message, inv.Status,
		inv.ResponseReason, inv.RespondedAt, inv.CreatedAt, inv.UpdatedAt,
	)
}

func resolved(inv models.Invitation, status models.InvitationStatus, reason *string) models.Invitation {
	now := time.Now()
	inv.Status = status
	inv.ResponseReason = reason
	inv.RespondedAt = &now
	inv.UpdatedAt = now
	return inv
}

func strPtr(s string) *string { return &s }
