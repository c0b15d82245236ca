package handlers

import (
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/peifeira/peifeira-api/internal/middleware"
	"github.com/peifeira/peifeira-api/pkg/dto"
)

type TeamHandler struct {
	teamService TeamServiceInterface
}

func NewTeamHandler(teamService TeamServiceInterface) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

func (h *TeamHandler) Create(c *drift.Context) {
	var req dto.CreateTeamRequest
	if !bind(c, &req) {
		return
	}

	leaderID := uuid.MustParse(req.LeaderID)
	if !middleware.CanActAs(c, leaderID) {
		c.Forbidden("cannot create a team for another student")
		return
	}

	team, err := h.teamService.Create(c.Request.Context(), leaderID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(201, toTeamResponse(team))
}

func (h *TeamHandler) List(c *drift.Context) {
	teams, err := h.teamService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, toTeamResponses(teams))
}

func (h *TeamHandler) ListActive(c *drift.Context) {
	teams, err := h.teamService.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, toTeamResponses(teams))
}

func (h *TeamHandler) Get(c *drift.Context) {
	teamID, ok := parseID(c, "id", "team")
	if !ok {
		return
	}

	team, err := h.teamService.GetByID(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, toTeamResponse(team))
}

// Details returns the team with its leader and active members.
func (h *TeamHandler) Details(c *drift.Context) {
	teamID, ok := parseID(c, "id", "team")
	if !ok {
		return
	}

	roster, err := h.teamService.GetMembersAndLeader(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, dto.TeamDetailsResponse{
		TeamResponse: toTeamResponse(roster.Team),
		Leader:       toStudentResponse(roster.Leader),
		Members:      toMemberResponses(roster.Members),
	})
}

func (h *TeamHandler) GetByLeader(c *drift.Context) {
	leaderID, ok := parseID(c, "liderId", "leader")
	if !ok {
		return
	}

	team, err := h.teamService.GetByLeader(c.Request.Context(), leaderID)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, toTeamResponse(team))
}

func (h *TeamHandler) GetByJoinCode(c *drift.Context) {
	team, err := h.teamService.GetByJoinCode(c.Request.Context(), c.Param("codigo"))
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, toTeamResponse(team))
}

func (h *TeamHandler) Update(c *drift.Context) {
	teamID, ok := parseID(c, "id", "team")
	if !ok {
		return
	}

	var req dto.UpdateTeamRequest
	if !bind(c, &req) {
		return
	}

	if !authorizeTeamManager(c, h.teamService, teamID) {
		return
	}

	team, err := h.teamService.Rename(c.Request.Context(), teamID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, toTeamResponse(team))
}

func (h *TeamHandler) Delete(c *drift.Context) {
	teamID, ok := parseID(c, "id", "team")
	if !ok {
		return
	}

	if !authorizeTeamManager(c, h.teamService, teamID) {
		return
	}

	if err := h.teamService.Delete(c.Request.Context(), teamID); err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, map[string]string{"message": "team deleted"})
}

func (h *TeamHandler) RegenerateJoinCode(c *drift.Context) {
	teamID, ok := parseID(c, "id", "team")
	if !ok {
		return
	}

	if !authorizeTeamManager(c, h.teamService, teamID) {
		return
	}

	team, err := h.teamService.RegenerateJoinCode(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, toTeamResponse(team))
}

// authorizeTeamManager lets staff through and otherwise requires the caller
// to be the team's leader. It writes the error response itself.
func authorizeTeamManager(c *drift.Context, teams TeamServiceInterface, teamID uuid.UUID) bool {
	if middleware.IsStaff(c) {
		return true
	}

	team, err := teams.GetByID(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !team.Active {
		c.NotFound("team not found")
		return false
	}
	if team.LeaderID != middleware.GetStudentID(c) {
		c.Forbidden("only the team leader can manage this team")
		return false
	}
	return true
}
