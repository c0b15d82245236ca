package database

import (
	"context"
	"fmt"
)

// Unique index names checked by the services when an insert races.
const (
	ConstraintActiveJoinCode    = "idx_teams_join_code_active"
	ConstraintActiveLeader      = "idx_teams_leader_active"
	ConstraintActiveMembership  = "idx_team_members_active"
	ConstraintPendingInvitation = "idx_team_invitations_pending"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS students (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS teams (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(100) NOT NULL,
		leader_id UUID NOT NULL REFERENCES students(id),
		join_code VARCHAR(16) NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS team_members (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		team_id UUID NOT NULL REFERENCES teams(id),
		student_id UUID NOT NULL REFERENCES students(id),
		joined_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		left_at TIMESTAMP WITH TIME ZONE
	)`,

	`CREATE TABLE IF NOT EXISTS team_invitations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		team_id UUID NOT NULL REFERENCES teams(id),
		inviter_id UUID NOT NULL REFERENCES students(id),
		invitee_id UUID NOT NULL REFERENCES students(id),
		message VARCHAR(500),
		status VARCHAR(20) NOT NULL DEFAULT 'Pendente',
		response_reason TEXT,
		responded_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CHECK (status IN ('Pendente', 'Aceito', 'Rejeitado', 'Cancelado'))
	)`,

	// Uniqueness among active rows only; soft-deleted rows keep their values.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_teams_join_code_active ON teams(join_code) WHERE active`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_teams_leader_active ON teams(leader_id) WHERE active`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_team_members_active ON team_members(team_id, student_id) WHERE active`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_team_invitations_pending ON team_invitations(team_id, invitee_id) WHERE status = 'Pendente'`,

	`CREATE INDEX IF NOT EXISTS idx_team_members_student_id ON team_members(student_id)`,
	`CREATE INDEX IF NOT EXISTS idx_team_invitations_team_id ON team_invitations(team_id)`,
	`CREATE INDEX IF NOT EXISTS idx_team_invitations_invitee_id ON team_invitations(invitee_id)`,
	`CREATE INDEX IF NOT EXISTS idx_team_invitations_inviter_id ON team_invitations(inviter_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
