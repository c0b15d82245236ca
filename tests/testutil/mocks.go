package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/peifeira/peifeira-api/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockTeamService mocks the TeamService
type MockTeamService struct {
	mock.Mock
}

func (m *MockTeamService) Create(ctx context.Context, leaderID uuid.UUID, name string) (*models.Team, error) {
	args := m.Called(ctx, leaderID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamService) Rename(ctx context.Context, teamID uuid.UUID, name string) (*models.Team, error) {
	args := m.Called(ctx, teamID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamService) RegenerateJoinCode(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamService) Delete(ctx context.Context, teamID uuid.UUID) error {
	args := m.Called(ctx, teamID)
	return args.Error(0)
}

func (m *MockTeamService) GetByID(ctx context.Context, teamID uuid.UUID) (*models.Team, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamService) List(ctx context.Context) ([]models.Team, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Team), args.Error(1)
}

func (m *MockTeamService) ListActive(ctx context.Context) ([]models.Team, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Team), args.Error(1)
}

func (m *MockTeamService) GetByLeader(ctx context.Context, leaderID uuid.UUID) (*models.Team, error) {
	args := m.Called(ctx, leaderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamService) GetByJoinCode(ctx context.Context, code string) (*models.Team, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamService) GetMembersAndLeader(ctx context.Context, teamID uuid.UUID) (*models.TeamRoster, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamRoster), args.Error(1)
}

func (m *MockTeamService) ListStudentMemberships(ctx context.Context, studentID uuid.UUID) ([]models.TeamMember, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TeamMember), args.Error(1)
}

func (m *MockTeamService) IsMember(ctx context.Context, teamID, studentID uuid.UUID) (bool, error) {
	args := m.Called(ctx, teamID, studentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTeamService) AddMember(ctx context.Context, teamID, studentID uuid.UUID) (*models.TeamMember, error) {
	args := m.Called(ctx, teamID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamMember), args.Error(1)
}

func (m *MockTeamService) RemoveMember(ctx context.Context, teamID, studentID uuid.UUID) error {
	args := m.Called(ctx, teamID, studentID)
	return args.Error(0)
}

// MockInvitationService mocks the InvitationService
type MockInvitationService struct {
	mock.Mock
}

func (m *MockInvitationService) Create(ctx context.Context, teamID, inviterID, inviteeID uuid.UUID, message *string) (*models.Invitation, error) {
	args := m.Called(ctx, teamID, inviterID, inviteeID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationService) Accept(ctx context.Context, invitationID, actorID uuid.UUID) (*models.Invitation, error) {
	args := m.Called(ctx, invitationID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationService) Reject(ctx context.Context, invitationID, actorID uuid.UUID, reason *string) (*models.Invitation, error) {
	args := m.Called(ctx, invitationID, actorID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationService) Cancel(ctx context.Context, invitationID, actorID uuid.UUID) (*models.Invitation, error) {
	args := m.Called(ctx, invitationID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationService) GetByID(ctx context.Context, invitationID uuid.UUID) (*models.Invitation, error) {
	args := m.Called(ctx, invitationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationService) ListPendingForStudent(ctx context.Context, studentID uuid.UUID) ([]models.Invitation, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invitation), args.Error(1)
}

func (m *MockInvitationService) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Invitation, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invitation), args.Error(1)
}

// MockStudentService mocks the StudentService
type MockStudentService struct {
	mock.Mock
}

func (m *MockStudentService) GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

// MockEmailService mocks the EmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendTeamInvitation(to, teamName, inviterName, invitationURL string) error {
	args := m.Called(to, teamName, inviterName, invitationURL)
	return args.Error(0)
}
