package handlers

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/peifeira/peifeira-api/internal/middleware"
	"github.com/peifeira/peifeira-api/internal/sse"
)

type NotificationHandler struct {
	hub         *sse.Hub
	teamService TeamServiceInterface
}

func NewNotificationHandler(hub *sse.Hub, teamService TeamServiceInterface) *NotificationHandler {
	return &NotificationHandler{
		hub:         hub,
		teamService: teamService,
	}
}

// Stream pushes every event about the calling student: invitations received,
// memberships gained or lost, and teams they lead.
func (h *NotificationHandler) Stream(c *drift.Context) {
	studentID := middleware.GetStudentID(c)
	if studentID == uuid.Nil {
		c.BadRequest("token has no student profile")
		return
	}

	h.serve(c, &sse.Client{
		ID:        uuid.New().String(),
		StudentID: studentID,
		Teams:     map[uuid.UUID]bool{},
		Send:      make(chan []byte, 256),
	})
}

// StreamTeam pushes every event for one team. Open to its leader, its
// members and staff.
func (h *NotificationHandler) StreamTeam(c *drift.Context) {
	teamID, ok := parseID(c, "equipeId", "team")
	if !ok || !h.canFollow(c, teamID) {
		return
	}

	h.serve(c, &sse.Client{
		ID:    uuid.New().String(),
		Teams: map[uuid.UUID]bool{teamID: true},
		Send:  make(chan []byte, 256),
	})
}

// Subscribe adds a team to an open stream of the caller.
func (h *NotificationHandler) Subscribe(c *drift.Context) {
	clientID := c.Param("clientId")
	if clientID == "" {
		c.BadRequest("client id is required")
		return
	}
	teamID, ok := parseID(c, "equipeId", "team")
	if !ok || !h.canFollow(c, teamID) {
		return
	}

	if !h.hub.SubscribeToTeam(clientID, middleware.GetStudentID(c), teamID) {
		c.NotFound("stream not found")
		return
	}
	_ = c.JSON(200, map[string]string{
		"message": fmt.Sprintf("subscribed to team %s", teamID),
	})
}

func (h *NotificationHandler) Unsubscribe(c *drift.Context) {
	clientID := c.Param("clientId")
	if clientID == "" {
		c.BadRequest("client id is required")
		return
	}
	teamID, ok := parseID(c, "equipeId", "team")
	if !ok {
		return
	}

	if !h.hub.UnsubscribeFromTeam(clientID, middleware.GetStudentID(c), teamID) {
		c.NotFound("stream not found")
		return
	}
	_ = c.JSON(200, map[string]string{
		"message": fmt.Sprintf("unsubscribed from team %s", teamID),
	})
}

// canFollow lets staff, the leader and active members follow a team.
func (h *NotificationHandler) canFollow(c *drift.Context, teamID uuid.UUID) bool {
	roster, err := h.teamService.GetMembersAndLeader(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !middleware.IsStaff(c) && !roster.Includes(middleware.GetStudentID(c)) {
		c.Forbidden("only team members can follow this team")
		return false
	}
	return true
}

func (h *NotificationHandler) serve(c *drift.Context, client *sse.Client) {
	sseCtx := c.SSE()

	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": client.ID,
	}, "system", ""); err != nil {
		return
	}

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
