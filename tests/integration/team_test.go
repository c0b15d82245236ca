package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/peifeira/peifeira-api/internal/services"
	"github.com/peifeira/peifeira-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamService_Integration_CreateAndRegenerateJoinCode(t *testing.T) {
	e := setupTest(t, services.TeamOptions{})
	ctx := context.Background()

	leader := e.fixtures.CreateStudent(t)

	team, err := e.teams.Create(ctx, leader.ID, "Tech Warriors")
	require.NoError(t, err)
	assert.Len(t, team.JoinCode, 6)
	assert.True(t, services.IsValidJoinCode(team.JoinCode))

	found, err := e.teams.GetByJoinCode(ctx, team.JoinCode)
	require.NoError(t, err)
	assert.Equal(t, team.ID, found.ID)

	regenerated, err := e.teams.RegenerateJoinCode(ctx, team.ID)
	require.NoError(t, err)
	assert.NotEqual(t, team.JoinCode, regenerated.JoinCode)

	_, err = e.teams.GetByJoinCode(ctx, team.JoinCode)
	assert.ErrorIs(t, err, services.ErrTeamNotFound)

	found, err = e.teams.GetByJoinCode(ctx, regenerated.JoinCode)
	require.NoError(t, err)
	assert.Equal(t, team.ID, found.ID)
}

func TestTeamService_Integration_SingleLeadership(t *testing.T) {
	e := setupTest(t, services.TeamOptions{})
	ctx := context.Background()

	leader := e.fixtures.CreateStudent(t)

	_, err := e.teams.Create(ctx, leader.ID, "Equipe Um")
	require.NoError(t, err)

	_, err = e.teams.Create(ctx, leader.ID, "Equipe Dois")
	assert.ErrorIs(t, err, services.ErrAlreadyLeader)
}

func TestTeamService_Integration_ConcurrentCreateBySameLeader(t *testing.T) {
	e := setupTest(t, services.TeamOptions{})
	ctx := context.Background()

	leader := e.fixtures.CreateStudent(t)

	const n = 5
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.teams.Create(ctx, leader.ID, "Equipe Paralela")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, services.ErrAlreadyLeader)
	}
	assert.Equal(t, 1, succeeded)
}

func TestTeamService_Integration_JoinCodesUniqueAcrossActiveTeams(t *testing.T) {
	e := setupTest(t, services.TeamOptions{})
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		leader := e.fixtures.CreateStudent(t)
		team, err := e.teams.Create(ctx, leader.ID, "Equipe Codigo")
		require.NoError(t, err)
		assert.False(t, seen[team.JoinCode], "duplicate join code %s", team.JoinCode)
		seen[team.JoinCode] = true
	}
}

func TestTeamService_Integration_AddAndRemoveMember(t *testing.T) {
	e := setupTest(t, services.TeamOptions{})
	ctx := context.Background()

	leader := e.fixtures.CreateStudent(t)
	student := e.fixtures.CreateStudent(t)
	team := e.fixtures.CreateTeam(t, leader)

	_, err := e.teams.AddMember(ctx, team.ID, student.ID)
	require.NoError(t, err)

	_, err = e.teams.AddMember(ctx, team.ID, student.ID)
	assert.ErrorIs(t, err, services.ErrAlreadyMember)

	_, err = e.teams.AddMember(ctx, team.ID, leader.ID)
	assert.ErrorIs(t, err, services.ErrStudentIsLeader)

	roster, err := e.teams.GetMembersAndLeader(ctx, team.ID)
	require.NoError(t, err)
	assert.True(t, roster.Includes(leader.ID))
	assert.True(t, roster.Includes(student.ID))
	assert.Len(t, roster.Members, 1)

	err = e.teams.RemoveMember(ctx, team.ID, leader.ID)
	assert.ErrorIs(t, err, services.ErrCannotRemoveLeader)

	require.NoError(t, e.teams.RemoveMember(ctx, team.ID, student.ID))

	isMember, err := e.teams.IsMember(ctx, team.ID, student.ID)
	require.NoError(t, err)
	assert.False(t, isMember)

	err = e.teams.RemoveMember(ctx, team.ID, student.ID)
	assert.ErrorIs(t, err, services.ErrMemberNotFound)

	_, err = e.teams.AddMember(ctx, team.ID, student.ID)
	require.NoError(t, err, "a removed member can rejoin")
}

func TestTeamService_Integration_AddInactiveStudent(t *testing.T) {
	e := setupTest(t, services.TeamOptions{})
	ctx := context.Background()

	leader := e.fixtures.CreateStudent(t)
	inactive := e.fixtures.CreateStudent(t, testutil.Inactive())
	team := e.fixtures.CreateTeam(t, leader)

	_, err := e.teams.AddMember(ctx, team.ID, inactive.ID)
	assert.ErrorIs(t, err, services.ErrStudentNotFound)
}

func TestTeamService_Integration_DeleteFreesLeaderAndCode(t *testing.T) {
	e := setupTest(t, services.TeamOptions{})
	ctx := context.Background()

	leader := e.fixtures.CreateStudent(t)
	member := e.fixtures.CreateStudent(t)

	team, err := e.teams.Create(ctx, leader.ID, "Equipe Antiga")
	require.NoError(t, err)
	_, err = e.teams.AddMember(ctx, team.ID, member.ID)
	require.NoError(t, err)

	require.NoError(t, e.teams.Delete(ctx, team.ID))

	_, err = e.teams.GetMembersAndLeader(ctx, team.ID)
	assert.ErrorIs(t, err, services.ErrTeamNotFound)
	assert.Equal(t, 0, e.fixtures.CountActiveMemberships(t, team, member))

	deleted, err := e.teams.GetByID(ctx, team.ID)
	require.NoError(t, err)
	assert.False(t, deleted.Active)

	_, err = e.teams.Create(ctx, leader.ID, "Equipe Nova")
	require.NoError(t, err, "leader of a deleted team may lead again")

	err = e.teams.Delete(ctx, team.ID)
	assert.ErrorIs(t, err, services.ErrTeamNotFound)
}
