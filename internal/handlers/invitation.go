package handlers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/peifeira/peifeira-api/internal/middleware"
	"github.com/peifeira/peifeira-api/internal/models"
	"github.com/peifeira/peifeira-api/pkg/dto"
	"github.com/sirupsen/logrus"
)

type InvitationHandler struct {
	invitationService InvitationServiceInterface
	teamService       TeamServiceInterface
	studentService    StudentServiceInterface
	emailService      EmailServiceInterface
	frontendURL       string
}

func NewInvitationHandler(
	invitationService InvitationServiceInterface,
	teamService TeamServiceInterface,
	studentService StudentServiceInterface,
	emailService EmailServiceInterface,
	frontendURL string,
) *InvitationHandler {
	return &InvitationHandler{
		invitationService: invitationService,
		teamService:       teamService,
		studentService:    studentService,
		emailService:      emailService,
		frontendURL:       strings.TrimRight(frontendURL, "/"),
	}
}

func (h *InvitationHandler) Create(c *drift.Context) {
	var req dto.CreateInvitationRequest
	if !bind(c, &req) {
		return
	}

	teamID := uuid.MustParse(req.TeamID)
	inviterID := uuid.MustParse(req.InviterID)
	inviteeID := uuid.MustParse(req.InviteeID)

	if !middleware.CanActAs(c, inviterID) {
		c.Forbidden("cannot invite on behalf of another student")
		return
	}

	ctx := c.Request.Context()
	inv, err := h.invitationService.Create(ctx, teamID, inviterID, inviteeID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	inv = h.withDetails(ctx, inv)
	h.notifyInvitee(ctx, inv)

	_ = c.JSON(201, toInvitationResponse(inv))
}

func (h *InvitationHandler) Accept(c *drift.Context) {
	h.act(c, func(ctx context.Context, id, actorID uuid.UUID, _ *string) (*models.Invitation, error) {
		return h.invitationService.Accept(ctx, id, actorID)
	})
}

func (h *InvitationHandler) Reject(c *drift.Context) {
	h.act(c, h.invitationService.Reject)
}

func (h *InvitationHandler) Cancel(c *drift.Context) {
	h.act(c, func(ctx context.Context, id, actorID uuid.UUID, _ *string) (*models.Invitation, error) {
		return h.invitationService.Cancel(ctx, id, actorID)
	})
}

type invitationAction func(ctx context.Context, invitationID, actorID uuid.UUID, reason *string) (*models.Invitation, error)

// act runs one of the resolving transitions for the acting student named in
// the body.
func (h *InvitationHandler) act(c *drift.Context, action invitationAction) {
	invitationID, ok := parseID(c, "id", "invitation")
	if !ok {
		return
	}

	var req dto.InvitationActionRequest
	if !bind(c, &req) {
		return
	}

	actorID := uuid.MustParse(req.StudentID)
	if !middleware.CanActAs(c, actorID) {
		c.Forbidden("cannot act on behalf of another student")
		return
	}

	ctx := c.Request.Context()
	inv, err := action(ctx, invitationID, actorID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	_ = c.JSON(200, toInvitationResponse(h.withDetails(ctx, inv)))
}

func (h *InvitationHandler) Get(c *drift.Context) {
	invitationID, ok := parseID(c, "id", "invitation")
	if !ok {
		return
	}

	inv, err := h.invitationService.GetByID(c.Request.Context(), invitationID)
	if err != nil {
		respondError(c, err)
		return
	}

	if !middleware.CanActAs(c, inv.InviteeID) && !middleware.CanActAs(c, inv.InviterID) {
		c.Forbidden("not a party to this invitation")
		return
	}

	_ = c.JSON(200, toInvitationResponse(inv))
}

// ListPendingForStudent returns pending invitations the student received or sent.
func (h *InvitationHandler) ListPendingForStudent(c *drift.Context) {
	studentID, ok := parseID(c, "perfilAlunoId", "student")
	if !ok {
		return
	}

	if !middleware.CanActAs(c, studentID) {
		c.Forbidden("cannot list invitations of another student")
		return
	}

	invitations, err := h.invitationService.ListPendingForStudent(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, toInvitationResponses(invitations))
}

func (h *InvitationHandler) ListByTeam(c *drift.Context) {
	teamID, ok := parseID(c, "equipeId", "team")
	if !ok {
		return
	}

	if !authorizeTeamManager(c, h.teamService, teamID) {
		return
	}

	invitations, err := h.invitationService.ListByTeam(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = c.JSON(200, toInvitationResponses(invitations))
}

// withDetails reloads the invitation with display names, falling back to the
// bare row if the lookup fails.
func (h *InvitationHandler) withDetails(ctx context.Context, inv *models.Invitation) *models.Invitation {
	detailed, err := h.invitationService.GetByID(ctx, inv.ID)
	if err != nil {
		handlerLog.WithError(err).WithField("invitation_id", inv.ID).Warn("failed to load invitation details")
		return inv
	}
	return detailed
}

func (h *InvitationHandler) notifyInvitee(ctx context.Context, inv *models.Invitation) {
	if h.emailService == nil {
		return
	}

	log := handlerLog.WithFields(logrus.Fields{
		"invitation_id": inv.ID,
		"invitee_id":    inv.InviteeID,
	})

	invitee, err := h.studentService.GetByID(ctx, inv.InviteeID)
	if err != nil {
		log.WithError(err).Warn("failed to load invitee for notification")
		return
	}
	if invitee.Email == "" {
		return
	}

	url := h.frontendURL + "/convites"
	if err := h.emailService.SendTeamInvitation(invitee.Email, inv.TeamName, inv.InviterName, url); err != nil {
		log.WithError(err).Warn("failed to send invitation email")
	}
}
