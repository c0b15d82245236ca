package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/peifeira/peifeira-api/internal/database"
	"github.com/peifeira/peifeira-api/internal/events"
	"github.com/peifeira/peifeira-api/internal/logging"
	"github.com/peifeira/peifeira-api/internal/models"
	"github.com/sirupsen/logrus"
)

// InvitationService runs the invitation lifecycle. Pending is the only
// non-terminal status and every transition out of it goes through a
// conditional update on status.
type InvitationService struct {
	db         *database.DB
	teams      *TeamService
	reconciler *MembershipReconciler
	publisher  events.Publisher
	log        *logrus.Entry
}

func NewInvitationService(db *database.DB, teams *TeamService, reconciler *MembershipReconciler, publisher events.Publisher) *InvitationService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &InvitationService{
		db:         db,
		teams:      teams,
		reconciler: reconciler,
		publisher:  publisher,
		log:        logging.Component("invitations"),
	}
}

const invitationColumns = `id, team_id, inviter_id, invitee_id, message, status, response_reason, responded_at, created_at, updated_at`

const invitationDetailsQuery = `
	SELECT i.id, i.team_id, i.inviter_id, i.invitee_id, i.message, i.status,
	       i.response_reason, i.responded_at, i.created_at, i.updated_at,
	       t.name, inviter.name, invitee.name
	FROM team_invitations i
	JOIN teams t ON i.team_id = t.id
	JOIN students inviter ON i.inviter_id = inviter.id
	JOIN students invitee ON i.invitee_id = invitee.id
`

func scanInvitation(row pgx.Row) (*models.Invitation, error) {
	var inv models.Invitation
	if err := row.Scan(
		&inv.ID, &inv.TeamID, &inv.InviterID, &inv.InviteeID, &inv.Message, &inv.Status,
		&inv.ResponseReason, &inv.RespondedAt, &inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &inv, nil
}

func scanInvitationDetails(row pgx.Row) (*models.Invitation, error) {
	var inv models.Invitation
	if err := row.Scan(
		&inv.ID, &inv.TeamID, &inv.InviterID, &inv.InviteeID, &inv.Message, &inv.Status,
		&inv.ResponseReason, &inv.RespondedAt, &inv.CreatedAt, &inv.UpdatedAt,
		&inv.TeamName, &inv.InviterName, &inv.InviteeName,
	); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *InvitationService) Create(ctx context.Context, teamID, inviterID, inviteeID uuid.UUID, message *string) (*models.Invitation, error) {
	msg, err := normalizeMessage(message)
	if err != nil {
		return nil, err
	}

	var inv *models.Invitation
	err = s.db.InTx(ctx, func(tx pgx.Tx) error {
		team, err := s.teams.getActive(ctx, tx, teamID, lockShare)
		if err != nil {
			return err
		}
		if team.LeaderID != inviterID {
			return ErrNotTeamLeader
		}
		if err := requireActiveStudent(ctx, tx, inviteeID); err != nil {
			return err
		}
		if inviteeID == team.LeaderID {
			return ErrStudentIsLeader
		}

		isMember, err := isActiveMember(ctx, tx, teamID, inviteeID)
		if err != nil {
			return err
		}
		if isMember {
			return ErrAlreadyMember
		}

		var pending bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM team_invitations
				WHERE team_id = $1 AND invitee_id = $2 AND status = $3
			)
		`, teamID, inviteeID, models.InvitationPending).Scan(&pending)
		if err != nil {
			return fmt.Errorf("failed to check pending invitations: %w", err)
		}
		if pending {
			return ErrPendingInviteExists
		}

		inv, err = scanInvitation(tx.QueryRow(ctx, `
			INSERT INTO team_invitations (team_id, inviter_id, invitee_id, message, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+invitationColumns, teamID, inviterID, inviteeID, msg, models.InvitationPending))
		if database.IsUniqueViolation(err, database.ConstraintPendingInvitation) {
			return ErrPendingInviteExists
		}
		if err != nil {
			return fmt.Errorf("failed to create invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"invitation_id": inv.ID,
		"team_id":       teamID,
		"invitee_id":    inviteeID,
	}).Info("invitation created")
	s.emit(ctx, events.New(events.InvitationCreated, teamID).
		WithStudent(inviteeID).
		WithInvitation(inv.ID, string(inv.Status)))
	return inv, nil
}

// Accept resolves the invitation as accepted and adds the invitee to the
// team. Concurrent accepts of the same invitation serialize on the team row;
// exactly one succeeds and the rest see a non-pending invitation.
func (s *InvitationService) Accept(ctx context.Context, invitationID, actorID uuid.UUID) (*models.Invitation, error) {
	var result *Acceptance
	err := s.db.InTx(ctx, func(tx pgx.Tx) error {
		var teamID uuid.UUID
		err := tx.QueryRow(ctx, `SELECT team_id FROM team_invitations WHERE id = $1`, invitationID).Scan(&teamID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvitationNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get invitation: %w", err)
		}

		team, err := s.teams.lockTeam(ctx, tx, teamID)
		if err != nil {
			return err
		}
		inv, err := getInvitation(ctx, tx, invitationID, true)
		if err != nil {
			return err
		}

		if err := s.authorize(ctx, tx, inv, actorID, models.InvitationAccepted); err != nil {
			return err
		}
		if inv.Status != models.InvitationPending {
			return ErrInvitationNotPending
		}

		result, err = s.reconciler.ReconcileAcceptance(ctx, tx, team, inv)
		return err
	})
	if err != nil {
		return nil, err
	}

	inv := result.Invitation
	s.log.WithFields(logrus.Fields{
		"invitation_id": inv.ID,
		"team_id":       inv.TeamID,
		"student_id":    inv.InviteeID,
		"superseded":    result.Superseded,
	}).Info("invitation accepted")
	s.emit(ctx, events.New(events.InvitationAccepted, inv.TeamID).
		WithStudent(inv.InviteeID).
		WithInvitation(inv.ID, string(inv.Status)))
	s.emit(ctx, events.New(events.MemberAdded, inv.TeamID).WithStudent(inv.InviteeID))
	return inv, nil
}

func (s *InvitationService) Reject(ctx context.Context, invitationID, actorID uuid.UUID, reason *string) (*models.Invitation, error) {
	return s.resolve(ctx, invitationID, actorID, models.InvitationRejected, reason)
}

func (s *InvitationService) Cancel(ctx context.Context, invitationID, actorID uuid.UUID) (*models.Invitation, error) {
	return s.resolve(ctx, invitationID, actorID, models.InvitationCancelled, nil)
}

// resolve moves a pending invitation to a terminal status without touching
// memberships. Checks run in order: existence, actor, status, reason.
func (s *InvitationService) resolve(ctx context.Context, invitationID, actorID uuid.UUID, target models.InvitationStatus, reason *string) (*models.Invitation, error) {
	inv, err := getInvitation(ctx, s.db.Pool, invitationID, false)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, s.db.Pool, inv, actorID, target); err != nil {
		return nil, err
	}
	if inv.Status != models.InvitationPending {
		return nil, ErrInvitationNotPending
	}
	reason, err = normalizeReason(reason)
	if err != nil {
		return nil, err
	}

	updated, err := resolveInvitation(ctx, s.db.Pool, invitationID, target, reason)
	if err != nil {
		return nil, err
	}

	eventType := events.InvitationRejected
	if target == models.InvitationCancelled {
		eventType = events.InvitationCancelled
	}
	s.log.WithFields(logrus.Fields{
		"invitation_id": updated.ID,
		"team_id":       updated.TeamID,
		"status":        updated.Status,
		"actor_id":      actorID,
	}).Info("invitation resolved")
	event := events.New(eventType, updated.TeamID).
		WithStudent(updated.InviteeID).
		WithInvitation(updated.ID, string(updated.Status))
	if reason != nil {
		event = event.WithReason(*reason)
	}
	s.emit(ctx, event)
	return updated, nil
}

// authorize checks that actor may move inv to target. Only the invitee
// accepts or rejects; only the inviter who still leads the team cancels.
func (s *InvitationService) authorize(ctx context.Context, q database.Querier, inv *models.Invitation, actorID uuid.UUID, target models.InvitationStatus) error {
	switch target {
	case models.InvitationAccepted, models.InvitationRejected:
		if inv.InviteeID != actorID {
			return ErrNotInvitee
		}
		return nil
	case models.InvitationCancelled:
		if inv.InviterID != actorID {
			return ErrNotInviter
		}
		var leaderID uuid.UUID
		err := q.QueryRow(ctx, `SELECT leader_id FROM teams WHERE id = $1`, inv.TeamID).Scan(&leaderID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrTeamNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get team leader: %w", err)
		}
		if leaderID != actorID {
			return ErrNotTeamLeader
		}
		return nil
	default:
		return fmt.Errorf("unsupported invitation transition to %q", target)
	}
}

func (s *InvitationService) GetByID(ctx context.Context, invitationID uuid.UUID) (*models.Invitation, error) {
	inv, err := scanInvitationDetails(s.db.Pool.QueryRow(ctx, invitationDetailsQuery+` WHERE i.id = $1`, invitationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

// ListPendingForStudent returns pending invitations the student received or
// sent, newest first.
func (s *InvitationService) ListPendingForStudent(ctx context.Context, studentID uuid.UUID) ([]models.Invitation, error) {
	return s.queryDetails(ctx, invitationDetailsQuery+`
		WHERE i.status = $1 AND (i.invitee_id = $2 OR i.inviter_id = $2)
		ORDER BY i.created_at DESC
	`, models.InvitationPending, studentID)
}

// ListByTeam returns the team's invitations in every status, newest first.
func (s *InvitationService) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Invitation, error) {
	return s.queryDetails(ctx, invitationDetailsQuery+`
		WHERE i.team_id = $1
		ORDER BY i.created_at DESC
	`, teamID)
}

func (s *InvitationService) queryDetails(ctx context.Context, sql string, args ...any) ([]models.Invitation, error) {
	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	invitations := []models.Invitation{}
	for rows.Next() {
		inv, err := scanInvitationDetails(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, *inv)
	}
	return invitations, rows.Err()
}

func (s *InvitationService) emit(ctx context.Context, event events.Event) {
	publish(ctx, s.publisher, s.log, event)
}

func getInvitation(ctx context.Context, q database.Querier, invitationID uuid.UUID, forUpdate bool) (*models.Invitation, error) {
	sql := `SELECT ` + invitationColumns + ` FROM team_invitations WHERE id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}

	inv, err := scanInvitation(q.QueryRow(ctx, sql, invitationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

// resolveInvitation is the only writer of terminal statuses. The update
// matches pending rows only, so a lost race returns ErrInvitationNotPending.
func resolveInvitation(ctx context.Context, q database.Querier, invitationID uuid.UUID, target models.InvitationStatus, reason *string) (*models.Invitation, error) {
	if !target.IsTerminal() {
		return nil, fmt.Errorf("invalid target status %q", target)
	}

	inv, err := scanInvitation(q.QueryRow(ctx, `
		UPDATE team_invitations
		SET status = $1, response_reason = $2, responded_at = NOW(), updated_at = NOW()
		WHERE id = $3 AND status = $4
		RETURNING `+invitationColumns, target, reason, invitationID, models.InvitationPending))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvitationNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update invitation: %w", err)
	}
	return inv, nil
}

// cancelPendingFor cancels pending invitations of (team, invitee) other than
// except. Pass uuid.Nil to cancel all of them.
func cancelPendingFor(ctx context.Context, q database.Querier, teamID, inviteeID, except uuid.UUID, reason string) (int64, error) {
	tag, err := q.Exec(ctx, `
		UPDATE team_invitations
		SET status = $1, response_reason = $2, responded_at = NOW(), updated_at = NOW()
		WHERE team_id = $3 AND invitee_id = $4 AND status = $5 AND id <> $6
	`, models.InvitationCancelled, reason, teamID, inviteeID, models.InvitationPending, except)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel pending invitations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func cancelPendingForTeam(ctx context.Context, q database.Querier, teamID uuid.UUID, reason string) (int64, error) {
	tag, err := q.Exec(ctx, `
		UPDATE team_invitations
		SET status = $1, response_reason = $2, responded_at = NOW(), updated_at = NOW()
		WHERE team_id = $3 AND status = $4
	`, models.InvitationCancelled, reason, teamID, models.InvitationPending)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel team invitations: %w", err)
	}
	return tag.RowsAffected(), nil
}
