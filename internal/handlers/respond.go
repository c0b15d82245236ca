package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/peifeira/peifeira-api/internal/logging"
	"github.com/peifeira/peifeira-api/internal/models"
	"github.com/peifeira/peifeira-api/internal/services"
	"github.com/peifeira/peifeira-api/internal/validation"
	"github.com/peifeira/peifeira-api/pkg/dto"
	"github.com/sirupsen/logrus"
)

var handlerLog = logging.Component("handlers")

// respondError maps a service error onto its HTTP status. Conflict and state
// errors both answer 409 and carry the kind in "code".
func respondError(c *drift.Context, err error) {
	kind := services.KindOf(err)
	switch kind {
	case services.KindValidation:
		c.BadRequest(err.Error())
	case services.KindAuthorization:
		c.Forbidden(err.Error())
	case services.KindNotFound:
		c.NotFound(err.Error())
	case services.KindConflict, services.KindState:
		_ = c.JSON(http.StatusConflict, map[string]string{
			"error": err.Error(),
			"code":  kind.String(),
		})
	default:
		handlerLog.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("request failed")
		c.InternalServerError("internal server error")
	}
}

// bind decodes, normalizes and validates the body. It writes the 400 itself and reports
// whether the handler should continue.
func bind(c *drift.Context, req any) bool {
	if err := c.BindJSON(req); err != nil {
		c.BadRequest("invalid request body")
		return false
	}
	if n, ok := req.(interface{ Normalize() }); ok {
		n.Normalize()
	}
	if err := validation.Struct(req); err != nil {
		c.BadRequest(err.Error())
		return false
	}
	return true
}

func parseID(c *drift.Context, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.BadRequest("invalid " + what + " id")
		return uuid.Nil, false
	}
	return id, true
}

func toTeamResponse(t *models.Team) dto.TeamResponse {
	return dto.TeamResponse{
		ID:        t.ID,
		Name:      t.Name,
		LeaderID:  t.LeaderID,
		JoinCode:  t.JoinCode,
		Active:    t.Active,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toTeamResponses(teams []models.Team) []dto.TeamResponse {
	out := make([]dto.TeamResponse, len(teams))
	for i := range teams {
		out[i] = toTeamResponse(&teams[i])
	}
	return out
}

func toStudentResponse(s *models.Student) dto.StudentResponse {
	return dto.StudentResponse{ID: s.ID, Name: s.Name, Email: s.Email}
}

func toMemberResponse(m *models.TeamMember) dto.MemberResponse {
	resp := dto.MemberResponse{
		ID:        m.ID,
		TeamID:    m.TeamID,
		StudentID: m.StudentID,
		JoinedAt:  m.JoinedAt,
		Active:    m.Active,
		LeftAt:    m.LeftAt,
	}
	if m.Student != nil {
		st := toStudentResponse(m.Student)
		resp.Student = &st
	}
	if m.Team != nil {
		team := toTeamResponse(m.Team)
		resp.Team = &team
	}
	return resp
}

func toMemberResponses(members []models.TeamMember) []dto.MemberResponse {
	out := make([]dto.MemberResponse, len(members))
	for i := range members {
		out[i] = toMemberResponse(&members[i])
	}
	return out
}

func toInvitationResponse(inv *models.Invitation) dto.InvitationResponse {
	return dto.InvitationResponse{
		ID:             inv.ID,
		Active:         inv.Status == models.InvitationPending,
		TeamID:         inv.TeamID,
		InviterID:      inv.InviterID,
		InviteeID:      inv.InviteeID,
		Message:        inv.Message,
		Status:         string(inv.Status),
		ResponseReason: inv.ResponseReason,
		RespondedAt:    inv.RespondedAt,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
		TeamName:       inv.TeamName,
		InviterName:    inv.InviterName,
		InviteeName:    inv.InviteeName,
	}
}

func toInvitationResponses(invitations []models.Invitation) []dto.InvitationResponse {
	out := make([]dto.InvitationResponse, len(invitations))
	for i := range invitations {
		out[i] = toInvitationResponse(&invitations[i])
	}
	return out
}
