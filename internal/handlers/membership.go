package handlers

import (
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/peifeira/peifeira-api/internal/middleware"
	"github.com/peifeira/peifeira-api/pkg/dto"
)

type MembershipHandler struct {
	teamService TeamServiceInterface
}

func NewMembershipHandler(teamService TeamServiceInterface) *MembershipHandler {
	return &MembershipHandler{teamService: teamService}
}

// Add puts a student directly on a team, bypassing invitations.
func (h *MembershipHandler) Add(c *drift.Context) {
	var req dto.AddMemberRequest
	if !bind(c, &req) {
		return
	}

	teamID := uuid.MustParse(req.TeamID)
	studentID := uuid.MustParse(req.StudentID)

	if !authorizeTeamManager(c, h.teamService, teamID) {
		return
	}

	member, err := h.teamService.AddMember(c.Request.Context(), teamID, studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(201, toMemberResponse(member))
}

// Remove is allowed for the team leader, staff, or the member leaving.
func (h *MembershipHandler) Remove(c *drift.Context) {
	teamID, ok := parseID(c, "equipeId", "team")
	if !ok {
		return
	}
	studentID, ok := parseID(c, "perfilAlunoId", "student")
	if !ok {
		return
	}

	if !middleware.CanActAs(c, studentID) && !authorizeTeamManager(c, h.teamService, teamID) {
		return
	}

	if err := h.teamService.RemoveMember(c.Request.Context(), teamID, studentID); err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, map[string]string{"message": "member removed"})
}

func (h *MembershipHandler) ListByTeam(c *drift.Context) {
	teamID, ok := parseID(c, "equipeId", "team")
	if !ok {
		return
	}

	roster, err := h.teamService.GetMembersAndLeader(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, toMemberResponses(roster.Members))
}

func (h *MembershipHandler) ListByStudent(c *drift.Context) {
	studentID, ok := parseID(c, "perfilAlunoId", "student")
	if !ok {
		return
	}

	if !middleware.CanActAs(c, studentID) {
		c.Forbidden("cannot list memberships of another student")
		return
	}

	members, err := h.teamService.ListStudentMemberships(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, toMemberResponses(members))
}

func (h *MembershipHandler) IsMember(c *drift.Context) {
	teamID, ok := parseID(c, "equipeId", "team")
	if !ok {
		return
	}
	studentID, ok := parseID(c, "perfilAlunoId", "student")
	if !ok {
		return
	}

	isMember, err := h.teamService.IsMember(c.Request.Context(), teamID, studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, dto.IsMemberResponse{IsMember: isMember})
}
