package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/peifeira/peifeira-api/internal/database"
	"github.com/peifeira/peifeira-api/internal/events"
	"github.com/peifeira/peifeira-api/internal/logging"
	"github.com/peifeira/peifeira-api/internal/models"
	"github.com/sirupsen/logrus"
)

type TeamOptions struct {
	// AutoCancelOnDirectAdd cancels a pending invitation for the same
	// (team, student) when the student is added directly.
	AutoCancelOnDirectAdd bool
}

// TeamService owns teams and memberships and answers who currently belongs
// to a team.
type TeamService struct {
	db        *database.DB
	codes     *JoinCodeGenerator
	publisher events.Publisher
	opts      TeamOptions
	log       *logrus.Entry
}

func NewTeamService(db *database.DB, codes *JoinCodeGenerator, publisher events.Publisher, opts TeamOptions) *TeamService {
	if codes == nil {
		codes = NewJoinCodeGenerator(defaultJoinCodeLength, defaultJoinCodeMaxAttempts)
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &TeamService{
		db:        db,
		codes:     codes,
		publisher: publisher,
		opts:      opts,
		log:       logging.Component("teams"),
	}
}

const teamColumns = `id, name, leader_id, join_code, active, created_at, updated_at`

func scanTeam(row pgx.Row) (*models.Team, error) {
	var t models.Team
	if err := row.Scan(&t.ID, &t.Name, &t.LeaderID, &t.JoinCode, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TeamService) Create(ctx context.Context, leaderID uuid.UUID, name string) (*models.Team, error) {
	name, err := normalizeTeamName(name)
	if err != nil {
		return nil, err
	}

	if err := requireActiveStudent(ctx, s.db.Pool, leaderID); err != nil {
		return nil, err
	}

	var leads bool
	err = s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM teams WHERE leader_id = $1 AND active)
	`, leaderID).Scan(&leads)
	if err != nil {
		return nil, fmt.Errorf("failed to check leadership: %w", err)
	}
	if leads {
		return nil, ErrAlreadyLeader
	}

	for attempt := 1; attempt <= s.codes.MaxAttempts(); attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return nil, err
		}

		team, err := scanTeam(s.db.Pool.QueryRow(ctx, `
			INSERT INTO teams (name, leader_id, join_code)
			VALUES ($1, $2, $3)
			RETURNING `+teamColumns, name, leaderID, code))
		switch {
		case err == nil:
			s.log.WithFields(logrus.Fields{"team_id": team.ID, "leader_id": leaderID}).Info("team created")
			s.emit(ctx, events.New(events.TeamCreated, team.ID).WithStudent(leaderID))
			return team, nil
		case database.IsUniqueViolation(err, database.ConstraintActiveJoinCode):
			s.log.WithField("attempt", attempt).Debug("join code collision")
		case database.IsUniqueViolation(err, database.ConstraintActiveLeader):
			return nil, ErrAlreadyLeader
		default:
			return nil, fmt.Errorf("failed to create team: %w", err)
		}
	}

	s.log.WithField("leader_id", leaderID).Error("join code attempts exhausted")
	return nil, ErrJoinCodeExhausted
}

func (s *TeamService) Rename(ctx context.Context, teamID uuid.UUID, name string) (*models.Team, error) {
	name, err := normalizeTeamName(name)
	if err != nil {
		return nil, err
	}

	team, err := scanTeam(s.db.Pool.QueryRow(ctx, `
		UPDATE teams SET name = $1, updated_at = NOW()
		WHERE id = $2 AND active
		RETURNING `+teamColumns, name, teamID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rename team: %w", err)
	}

	s.emit(ctx, events.New(events.TeamRenamed, team.ID))
	return team, nil
}

// RegenerateJoinCode replaces the join code. The previous code stops
// resolving as soon as the update commits.
func (s *TeamService) RegenerateJoinCode(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	current, err := s.getActive(ctx, s.db.Pool, teamID, noLock)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.codes.MaxAttempts(); attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return nil, err
		}
		if code == current.JoinCode {
			continue
		}

		team, err := scanTeam(s.db.Pool.QueryRow(ctx, `
			UPDATE teams SET join_code = $1, updated_at = NOW()
			WHERE id = $2 AND active
			RETURNING `+teamColumns, code, teamID))
		switch {
		case err == nil:
			s.log.WithField("team_id", teamID).Info("join code regenerated")
			s.emit(ctx, events.New(events.TeamJoinCodeRotated, teamID))
			return team, nil
		case errors.Is(err, pgx.ErrNoRows):
			return nil, ErrTeamNotFound
		case database.IsUniqueViolation(err, database.ConstraintActiveJoinCode):
			s.log.WithField("attempt", attempt).Debug("join code collision")
		default:
			return nil, fmt.Errorf("failed to regenerate join code: %w", err)
		}
	}

	s.log.WithField("team_id", teamID).Error("join code attempts exhausted")
	return nil, ErrJoinCodeExhausted
}

// Delete soft-deletes the team, deactivates its memberships and cancels its
// pending invitations in one transaction.
func (s *TeamService) Delete(ctx context.Context, teamID uuid.UUID) error {
	var cancelled, removed int64
	err := s.db.InTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE teams SET active = FALSE, updated_at = NOW()
			WHERE id = $1 AND active
		`, teamID)
		if err != nil {
			return fmt.Errorf("failed to delete team: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrTeamNotFound
		}

		tag, err = tx.Exec(ctx, `
			UPDATE team_members SET active = FALSE, left_at = NOW()
			WHERE team_id = $1 AND active
		`, teamID)
		if err != nil {
			return fmt.Errorf("failed to deactivate members: %w", err)
		}
		removed = tag.RowsAffected()

		cancelled, err = cancelPendingForTeam(ctx, tx, teamID, models.ReasonTeamDeleted)
		return err
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"team_id":               teamID,
		"members_removed":       removed,
		"invitations_cancelled": cancelled,
	}).Info("team deleted")
	s.emit(ctx, events.New(events.TeamDeleted, teamID).WithReason(models.ReasonTeamDeleted))
	return nil
}

// GetByID returns the team whether or not it is still active.
func (s *TeamService) GetByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	team, err := scanTeam(s.db.Pool.QueryRow(ctx, `
		SELECT `+teamColumns+` FROM teams WHERE id = $1
	`, teamID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

func (s *TeamService) List(ctx context.Context) ([]models.Team, error) {
	return s.queryTeams(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY created_at DESC`)
}

func (s *TeamService) ListActive(ctx context.Context) ([]models.Team, error) {
	return s.queryTeams(ctx, `SELECT `+teamColumns+` FROM teams WHERE active ORDER BY created_at DESC`)
}

func (s *TeamService) GetByLeader(ctx context.Context, leaderID uuid.UUID) (*models.Team, error) {
	team, err := scanTeam(s.db.Pool.QueryRow(ctx, `
		SELECT `+teamColumns+` FROM teams WHERE leader_id = $1 AND active
	`, leaderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team by leader: %w", err)
	}
	return team, nil
}

// GetByJoinCode resolves a join code among active teams. Codes are
// case-insensitive on input.
func (s *TeamService) GetByJoinCode(ctx context.Context, code string) (*models.Team, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !IsValidJoinCode(code) {
		return nil, ErrTeamNotFound
	}

	team, err := scanTeam(s.db.Pool.QueryRow(ctx, `
		SELECT `+teamColumns+` FROM teams WHERE join_code = $1 AND active
	`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team by join code: %w", err)
	}
	return team, nil
}

// GetMembersAndLeader returns the leader and the active members of an
// active team.
func (s *TeamService) GetMembersAndLeader(ctx context.Context, teamID uuid.UUID) (*models.TeamRoster, error) {
	team, err := s.getActive(ctx, s.db.Pool, teamID, noLock)
	if err != nil {
		return nil, err
	}

	leader, err := getStudent(ctx, s.db.Pool, team.LeaderID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT tm.id, tm.team_id, tm.student_id, tm.joined_at, tm.active, tm.left_at,
		       s.id, s.name, s.email, s.active, s.created_at, s.updated_at
		FROM team_members tm
		JOIN students s ON tm.student_id = s.id
		WHERE tm.team_id = $1 AND tm.active
		ORDER BY tm.joined_at
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := []models.TeamMember{}
	for rows.Next() {
		var m models.TeamMember
		var st models.Student
		if err := rows.Scan(
			&m.ID, &m.TeamID, &m.StudentID, &m.JoinedAt, &m.Active, &m.LeftAt,
			&st.ID, &st.Name, &st.Email, &st.Active, &st.CreatedAt, &st.UpdatedAt,
		); err != nil {
			return nil, err
		}
		m.Student = &st
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.TeamRoster{Team: team, Leader: leader, Members: members}, nil
}

// ListStudentMemberships returns the student's active memberships in active
// teams. Teams the student leads are not included.
func (s *TeamService) ListStudentMemberships(ctx context.Context, studentID uuid.UUID) ([]models.TeamMember, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT tm.id, tm.team_id, tm.student_id, tm.joined_at, tm.active, tm.left_at,
		       t.id, t.name, t.leader_id, t.join_code, t.active, t.created_at, t.updated_at
		FROM team_members tm
		JOIN teams t ON tm.team_id = t.id
		WHERE tm.student_id = $1 AND tm.active AND t.active
		ORDER BY tm.joined_at DESC
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	memberships := []models.TeamMember{}
	for rows.Next() {
		var m models.TeamMember
		var t models.Team
		if err := rows.Scan(
			&m.ID, &m.TeamID, &m.StudentID, &m.JoinedAt, &m.Active, &m.LeftAt,
			&t.ID, &t.Name, &t.LeaderID, &t.JoinCode, &t.Active, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		m.Team = &t
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// IsMember reports whether the student leads or is an active member of the
// active team.
func (s *TeamService) IsMember(ctx context.Context, teamID, studentID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM teams WHERE id = $1 AND active AND leader_id = $2)
		    OR EXISTS(
		        SELECT 1 FROM team_members tm JOIN teams t ON tm.team_id = t.id
		        WHERE tm.team_id = $1 AND tm.student_id = $2 AND tm.active AND t.active
		    )
	`, teamID, studentID).Scan(&exists)
	return exists, err
}

func (s *TeamService) AddMember(ctx context.Context, teamID, studentID uuid.UUID) (*models.TeamMember, error) {
	var member *models.TeamMember
	var superseded int64
	err := s.db.InTx(ctx, func(tx pgx.Tx) error {
		team, err := s.getActive(ctx, tx, teamID, lockUpdate)
		if err != nil {
			return err
		}
		if err := requireActiveStudent(ctx, tx, studentID); err != nil {
			return err
		}
		if team.LeaderID == studentID {
			return ErrStudentIsLeader
		}

		isMember, err := isActiveMember(ctx, tx, teamID, studentID)
		if err != nil {
			return err
		}
		if isMember {
			return ErrAlreadyMember
		}

		member, err = s.insertMember(ctx, tx, teamID, studentID)
		if err != nil {
			return err
		}

		if s.opts.AutoCancelOnDirectAdd {
			superseded, err = cancelPendingFor(ctx, tx, teamID, studentID, uuid.Nil, models.ReasonSupersededByAdd)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"team_id":                teamID,
		"student_id":             studentID,
		"invitations_superseded": superseded,
	}).Info("member added")
	s.emit(ctx, events.New(events.MemberAdded, teamID).WithStudent(studentID))
	return member, nil
}

func (s *TeamService) RemoveMember(ctx context.Context, teamID, studentID uuid.UUID) error {
	team, err := s.getActive(ctx, s.db.Pool, teamID, noLock)
	if err != nil {
		return err
	}
	if team.LeaderID == studentID {
		return ErrCannotRemoveLeader
	}

	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE team_members SET active = FALSE, left_at = NOW()
		WHERE team_id = $1 AND student_id = $2 AND active
	`, teamID, studentID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}

	s.log.WithFields(logrus.Fields{"team_id": teamID, "student_id": studentID}).Info("member removed")
	s.emit(ctx, events.New(events.MemberRemoved, teamID).WithStudent(studentID))
	return nil
}

func (s *TeamService) queryTeams(ctx context.Context, sql string, args ...any) ([]models.Team, error) {
	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := []models.Team{}
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *team)
	}
	return teams, rows.Err()
}

// rowLock is the locking clause appended to a team read.
type rowLock string

const (
	noLock rowLock = ""
	// lockShare blocks a concurrent delete or rename until the reader commits.
	lockShare rowLock = " FOR SHARE"
	// lockUpdate serializes membership changes on the team.
	lockUpdate rowLock = " FOR UPDATE"
)

// getActive loads an active team with the given row lock.
func (s *TeamService) getActive(ctx context.Context, q database.Querier, teamID uuid.UUID, lock rowLock) (*models.Team, error) {
	sql := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1 AND active` + string(lock)

	team, err := scanTeam(q.QueryRow(ctx, sql, teamID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	return team, nil
}

// lockTeam locks the team row regardless of its active flag.
func (s *TeamService) lockTeam(ctx context.Context, q database.Querier, teamID uuid.UUID) (*models.Team, error) {
	team, err := scanTeam(q.QueryRow(ctx, `
		SELECT `+teamColumns+` FROM teams WHERE id = $1 FOR UPDATE
	`, teamID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock team: %w", err)
	}
	return team, nil
}

func (s *TeamService) insertMember(ctx context.Context, q database.Querier, teamID, studentID uuid.UUID) (*models.TeamMember, error) {
	var m models.TeamMember
	err := q.QueryRow(ctx, `
		INSERT INTO team_members (team_id, student_id)
		VALUES ($1, $2)
		RETURNING id, team_id, student_id, joined_at, active, left_at
	`, teamID, studentID).Scan(&m.ID, &m.TeamID, &m.StudentID, &m.JoinedAt, &m.Active, &m.LeftAt)
	if database.IsUniqueViolation(err, database.ConstraintActiveMembership) {
		return nil, ErrAlreadyMember
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return &m, nil
}

func isActiveMember(ctx context.Context, q database.Querier, teamID, studentID uuid.UUID) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM team_members WHERE team_id = $1 AND student_id = $2 AND active)
	`, teamID, studentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

func (s *TeamService) emit(ctx context.Context, event events.Event) {
	publish(ctx, s.publisher, s.log, event)
}

func publish(ctx context.Context, p events.Publisher, log *logrus.Entry, event events.Event) {
	if err := p.Publish(ctx, event); err != nil {
		log.WithError(err).WithField("event", event.Type).Warn("failed to publish event")
	}
}
