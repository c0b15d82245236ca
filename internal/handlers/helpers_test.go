package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peifeira/peifeira-api/internal/models"
	"github.com/peifeira/peifeira-api/tests/testutil"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, app http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", testutil.AuthHeader(token))
	}

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func sampleTeam(leaderID uuid.UUID) *models.Team {
	now := time.Now()
	return &models.Team{
		ID:        uuid.New(),
		Name:      "Equipe Alfa",
		LeaderID:  leaderID,
		JoinCode:  "ABC234",
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func sampleInvitation(teamID, inviterID, inviteeID uuid.UUID) *models.Invitation {
	now := time.Now()
	return &models.Invitation{
		ID:        uuid.New(),
		TeamID:    teamID,
		InviterID: inviterID,
		InviteeID: inviteeID,
		Status:    models.InvitationPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
