package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/peifeira/peifeira-api/internal/models"
	"github.com/peifeira/peifeira-api/internal/services"
	"github.com/peifeira/peifeira-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvitationService_Integration_InviteAndAccept(t *testing.T) {
	e := setupTest(t, services.TeamOptions{})
	ctx := context.Background()

	leader := e.fixtures.CreateStudent(t)
	student := e.fixtures.CreateStudent(t)
	team := e.fixtures.CreateTeam(t, leader)

	msg := "Join us!"
	inv, err := e.invitations.Create(ctx, team.ID, leader.ID, student.ID, &msg)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationPending, inv.Status)

	_, err = e.invitations.Create(ctx, team.ID, leader.ID, student.ID, nil)
	assert.ErrorIs(t, err, services.ErrPendingInviteExists)

	accepted, err := e.invitations.Accept(ctx, inv.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, accepted.Status)
	assert.NotNil(t, accepted.RespondedAt)

	roster, err := e.teams.GetMembersAndLeader(ctx, team.ID)
	require.NoError(t, err)
	assert.True(t, roster.Includes(student.ID))

	_, err = e.invitations.Accept(ctx, inv.ID, student.ID)
	assert.ErrorIs(t, err, services.ErrInvitationNotPending)

	_, err = e.invitations.Create(ctx, team.ID, leader.ID, student.ID, nil)
	assert.ErrorIs(t, err, services.ErrAlreadyMember)
}

func TestInvitationService_Integration_EligibilityOnCreate(t *testing.T) {
	e := setupTest(t, services.TeamOptions{})
	ctx := context.Background()

	leader := e.fixtures.CreateStudent(t)
	outsider := e.fixtures.CreateStudent(t)
	student := e.fixtures.CreateStudent(t)
	team := e.fixtures.CreateTeam(t, leader)

	_, err := e.invitations.Create(ctx, team.ID, outsider.ID, student.ID, nil)
	assert.ErrorIs(t, err, services.ErrNotTeamLeader)

	_, err = e.invitations.Create(ctx, team.ID, leader.ID, leader.ID, nil)
	assert.ErrorIs(t, err, services.ErrStudentIsLeader)
}

func TestInvitationService_Integration_RejectIsOnce(t *testing.T) {
	e := setupTest(t, services.TeamOptions{})
	ctx := context.Background()

	leader := e.fixtures.CreateStudent(t)
	student := e.fixtures.CreateStudent(t)
	team := e.fixtures.CreateTeam(t, leader)

	inv, err := e.invitations.Create(ctx, team.ID, leader.ID, student.ID, nil)
	require.NoError(t, err)

	_, err = e.invitations.Reject(ctx, inv.ID, leader.ID, nil)
	assert.ErrorIs(t, err, services.ErrNotInvitee)

	reason := "Já estou em outra equipe"
	rejected, err := e.invitations.Reject(ctx, inv.ID, student.ID, &reason)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationRejected, rejected.Status)
	require.NotNil(t, rejected.ResponseReason)
	assert.Equal(t, reason, *rejected.ResponseReason)

	_, err = e.invitations.Reject(ctx, inv.ID, student.ID, nil)
	assert.ErrorIs(t, err, services.ErrInvitationNotPending)

	again, err := e.invitations.Create(ctx, team.ID, leader.ID, student.ID, nil)
	require.NoError(t, err, "a rejected invitation does not block a new one")
	assert.NotEqual(t, inv.ID, again.ID)
}

func TestInvitationService_Integration_Cancel(t *testing.T) {
	e := setupTest(t, services.TeamOptions{})
	ctx := context.Background()

	leader := e.fixtures.CreateStudent(t)
	student := e.fixtures.CreateStudent(t)
	team := e.fixtures.CreateTeam(t, leader)

	inv, err := e.invitations.Create(ctx, team.ID, leader.ID, student.ID, nil)
	require.NoError(t, err)

	_, err = e.invitations.Cancel(ctx, inv.ID, student.ID)
	assert.ErrorIs(t, err, services.ErrNotInviter)

	cancelled, err := e.invitations.Cancel(ctx, inv.ID, leader.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationCancelled, cancelled.Status)

	_, err = e.invitations.Accept(ctx, inv.ID, student.ID)
	assert.ErrorIs(t, err, services.ErrInvitationNotPending)
	assert.Equal(t, 0, e.fixtures.CountActiveMemberships(t, team, student))
}

func TestInvitationService_Integration_DirectAddLeavesPending(t *testing.T) {
	e := setupTest(t, services.TeamOptions{})
	ctx := context.Background()

	leader := e.fixtures.CreateStudent(t)
	student := e.fixtures.CreateStudent(t)
	team := e.fixtures.CreateTeam(t, leader)

	inv, err := e.invitations.Create(ctx, team.ID, leader.ID, student.ID, nil)
	require.NoError(t, err)

	_, err = e.teams.AddMember(ctx, team.ID, student.ID)
	require.NoError(t, err)

	_, err = e.invitations.Accept(ctx, inv.ID, student.ID)
	assert.ErrorIs(t, err, services.ErrAlreadyMember)

	current, err := e.invitations.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationPending, current.Status)
	assert.Equal(t, 1, e.fixtures.CountActiveMemberships(t, team, student))
}

func TestInvitationService_Integration_DirectAddAutoCancels(t *testing.T) {
	e := setupTest(t, services.TeamOptions{AutoCancelOnDirectAdd: true})
	ctx := context.Background()

	leader := e.fixtures.CreateStudent(t)
	student := e.fixtures.CreateStudent(t)
	team := e.fixtures.CreateTeam(t, leader)

	inv, err := e.invitations.Create(ctx, team.ID, leader.ID, student.ID, nil)
	require.NoError(t, err)

	_, err = e.teams.AddMember(ctx, team.ID, student.ID)
	require.NoError(t, err)

	current, err := e.invitations.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationCancelled, current.Status)
	require.NotNil(t, current.ResponseReason)
	assert.Equal(t, models.ReasonSupersededByAdd, *current.ResponseReason)
	assert.Equal(t, 0, e.fixtures.CountPending(t, team, student))
}

func TestInvitationService_Integration_DeleteTeamCancelsPending(t *testing.T) {
	e := setupTest(t, services.TeamOptions{})
	ctx := context.Background()

	leader := e.fixtures.CreateStudent(t)
	first := e.fixtures.CreateStudent(t)
	second := e.fixtures.CreateStudent(t)
	team := e.fixtures.CreateTeam(t, leader)

	inv1, err := e.invitations.Create(ctx, team.ID, leader.ID, first.ID, nil)
	require.NoError(t, err)
	inv2, err := e.invitations.Create(ctx, team.ID, leader.ID, second.ID, nil)
	require.NoError(t, err)

	require.NoError(t, e.teams.Delete(ctx, team.ID))

	for _, tc := range []struct {
		inv     *models.Invitation
		invitee *models.Student
	}{{inv1, first}, {inv2, second}} {
		current, err := e.invitations.GetByID(ctx, tc.inv.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InvitationCancelled, current.Status)
		require.NotNil(t, current.ResponseReason)
		assert.Equal(t, models.ReasonTeamDeleted, *current.ResponseReason)

		_, err = e.invitations.Accept(ctx, tc.inv.ID, tc.invitee.ID)
		assert.ErrorIs(t, err, services.ErrInvitationNotPending)
	}
}

func TestInvitationService_Integration_InviteRacesTeamDeletion(t *testing.T) {
	e := setupTest(t, services.TeamOptions{})
	ctx := context.Background()

	for round := 0; round < 10; round++ {
		leader := e.fixtures.CreateStudent(t)
		student := e.fixtures.CreateStudent(t)
		team := e.fixtures.CreateTeam(t, leader)

		var createErr, deleteErr error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, createErr = e.invitations.Create(ctx, team.ID, leader.ID, student.ID, nil)
		}()
		go func() {
			defer wg.Done()
			deleteErr = e.teams.Delete(ctx, team.ID)
		}()
		wg.Wait()

		require.NoError(t, deleteErr)
		if createErr != nil {
			assert.ErrorIs(t, createErr, services.ErrTeamNotFound)
		}
		assert.Equal(t, 0, e.fixtures.CountPending(t, team, student), "round %d left a pending invitation", round)
	}
}

func TestInvitationService_Integration_ConcurrentAccept(t *testing.T) {
	e := setupTest(t, services.TeamOptions{})
	ctx := context.Background()

	leader := e.fixtures.CreateStudent(t)
	student := e.fixtures.CreateStudent(t)
	team := e.fixtures.CreateTeam(t, leader)

	inv, err := e.invitations.Create(ctx, team.ID, leader.ID, student.ID, nil)
	require.NoError(t, err)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.invitations.Accept(ctx, inv.ID, student.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, services.ErrInvitationNotPending)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, e.fixtures.CountActiveMemberships(t, team, student))
}

func TestInvitationService_Integration_AcceptRacesCancel(t *testing.T) {
	e := setupTest(t, services.TeamOptions{})
	ctx := context.Background()

	leader := e.fixtures.CreateStudent(t)
	student := e.fixtures.CreateStudent(t)
	team := e.fixtures.CreateTeam(t, leader)

	inv, err := e.invitations.Create(ctx, team.ID, leader.ID, student.ID, nil)
	require.NoError(t, err)

	var acceptErr, cancelErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, acceptErr = e.invitations.Accept(ctx, inv.ID, student.ID)
	}()
	go func() {
		defer wg.Done()
		_, cancelErr = e.invitations.Cancel(ctx, inv.ID, leader.ID)
	}()
	wg.Wait()

	current, err := e.invitations.GetByID(ctx, inv.ID)
	require.NoError(t, err)

	memberships := e.fixtures.CountActiveMemberships(t, team, student)
	switch current.Status {
	case models.InvitationAccepted:
		assert.NoError(t, acceptErr)
		assert.ErrorIs(t, cancelErr, services.ErrInvitationNotPending)
		assert.Equal(t, 1, memberships)
	case models.InvitationCancelled:
		assert.NoError(t, cancelErr)
		assert.ErrorIs(t, acceptErr, services.ErrInvitationNotPending)
		assert.Equal(t, 0, memberships)
	default:
		t.Fatalf("unexpected status %s", current.Status)
	}
}

func TestInvitationService_Integration_ConcurrentDuplicateInvite(t *testing.T) {
	e := setupTest(t, services.TeamOptions{})
	ctx := context.Background()

	leader := e.fixtures.CreateStudent(t)
	student := e.fixtures.CreateStudent(t)
	team := e.fixtures.CreateTeam(t, leader)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.invitations.Create(ctx, team.ID, leader.ID, student.ID, nil)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, services.ErrPendingInviteExists)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, e.fixtures.CountPending(t, team, student))
}

func TestInvitationService_Integration_ListPendingForStudent(t *testing.T) {
	e := setupTest(t, services.TeamOptions{})
	ctx := context.Background()

	leaderA := e.fixtures.CreateStudent(t, testutil.WithStudentName("Ana"))
	leaderB := e.fixtures.CreateStudent(t)
	student := e.fixtures.CreateStudent(t)
	teamA := e.fixtures.CreateTeam(t, leaderA)
	teamB := e.fixtures.CreateTeam(t, leaderB)

	_, err := e.invitations.Create(ctx, teamA.ID, leaderA.ID, student.ID, nil)
	require.NoError(t, err)
	invB, err := e.invitations.Create(ctx, teamB.ID, leaderB.ID, student.ID, nil)
	require.NoError(t, err)
	_, err = e.invitations.Reject(ctx, invB.ID, student.ID, nil)
	require.NoError(t, err)

	pending, err := e.invitations.ListPendingForStudent(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, teamA.ID, pending[0].TeamID)
	assert.Equal(t, teamA.Name, pending[0].TeamName)
	assert.Equal(t, "Ana", pending[0].InviterName)

	sent, err := e.invitations.ListPendingForStudent(ctx, leaderA.ID)
	require.NoError(t, err)
	assert.Len(t, sent, 1)

	byTeam, err := e.invitations.ListByTeam(ctx, teamB.ID)
	require.NoError(t, err)
	require.Len(t, byTeam, 1)
	assert.Equal(t, models.InvitationRejected, byTeam[0].Status)
}
