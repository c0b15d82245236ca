package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/peifeira/peifeira-api/internal/models"
)

// TeamServiceInterface defines the methods used by handlers from TeamService
type TeamServiceInterface interface {
	Create(ctx context.Context, leaderID uuid.UUID, name string) (*models.Team, error)
	Rename(ctx context.Context, teamID uuid.UUID, name string) (*models.Team, error)
	RegenerateJoinCode(ctx context.Context, teamID uuid.UUID) (*models.Team, error)
	Delete(ctx context.Context, teamID uuid.UUID) error
	GetByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	ListActive(ctx context.Context) ([]models.Team, error)
	GetByLeader(ctx context.Context, leaderID uuid.UUID) (*models.Team, error)
	GetByJoinCode(ctx context.Context, code string) (*models.Team, error)
	GetMembersAndLeader(ctx context.Context, teamID uuid.UUID) (*models.TeamRoster, error)
	ListStudentMemberships(ctx context.Context, studentID uuid.UUID) ([]models.TeamMember, error)
	IsMember(ctx context.Context, teamID, studentID uuid.UUID) (bool, error)
	AddMember(ctx context.Context, teamID, studentID uuid.UUID) (*models.TeamMember, error)
	RemoveMember(ctx context.Context, teamID, studentID uuid.UUID) error
}

// InvitationServiceInterface defines the methods used by handlers from InvitationService
type InvitationServiceInterface interface {
	Create(ctx context.Context, teamID, inviterID, inviteeID uuid.UUID, message *string) (*models.Invitation, error)
	Accept(ctx context.Context, invitationID, actorID uuid.UUID) (*models.Invitation, error)
	Reject(ctx context.Context, invitationID, actorID uuid.UUID, reason *string) (*models.Invitation, error)
	Cancel(ctx context.Context, invitationID, actorID uuid.UUID) (*models.Invitation, error)
	GetByID(ctx context.Context, invitationID uuid.UUID) (*models.Invitation, error)
	ListPendingForStudent(ctx context.Context, studentID uuid.UUID) ([]models.Invitation, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Invitation, error)
}

// StudentServiceInterface defines the methods used by handlers from StudentService
type StudentServiceInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error)
}

// EmailServiceInterface defines the methods used by handlers from EmailService
type EmailServiceInterface interface {
	SendTeamInvitation(to, teamName, inviterName, invitationURL string) error
}
