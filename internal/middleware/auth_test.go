package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/peifeira/peifeira-api/internal/models"
	"github.com/peifeira/peifeira-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *services.JWTService {
	return services.NewJWTService("test-secret-key", 15*time.Minute)
}

func generateTestToken(t *testing.T, jwtSvc *services.JWTService, userID uuid.UUID, role string, studentID *uuid.UUID) string {
	t.Helper()
	token, err := jwtSvc.GenerateAccessToken(userID, "test@example.com", role, studentID)
	require.NoError(t, err)
	return token
}

func protectedApp(jwtSvc *services.JWTService, handler drift.HandlerFunc) http.Handler {
	app := drift.New()
	app.Use(Auth(jwtSvc))
	app.Get("/protected", handler)
	return app
}

func okHandler(c *drift.Context) {
	_ = c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func TestAuth_MissingAuthorizationHeader(t *testing.T) {
	app := protectedApp(newTestJWTService(), okHandler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing authorization header")
}

func TestAuth_InvalidAuthorizationFormat(t *testing.T) {
	app := protectedApp(newTestJWTService(), okHandler)

	for _, header := range []string{"Token some-token", "Bearer"} {
		t.Run(header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()

			app.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "invalid authorization header format")
		})
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	app := protectedApp(newTestJWTService(), okHandler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}

func TestAuth_ExpiredToken(t *testing.T) {
	jwtSvc := services.NewJWTService("test-secret-key", 1*time.Millisecond)
	token := generateTestToken(t, jwtSvc, uuid.New(), "Admin", nil)

	time.Sleep(10 * time.Millisecond)

	app := protectedApp(jwtSvc, okHandler)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired token")
}

func TestAuth_UnknownRole(t *testing.T) {
	jwtSvc := newTestJWTService()
	token := generateTestToken(t, jwtSvc, uuid.New(), "Janitor", nil)

	app := protectedApp(jwtSvc, okHandler)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown role")
}

func TestAuth_StudentWithoutProfile(t *testing.T) {
	jwtSvc := newTestJWTService()
	token := generateTestToken(t, jwtSvc, uuid.New(), "Aluno", nil)

	app := protectedApp(jwtSvc, okHandler)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ValidStudentToken(t *testing.T) {
	jwtSvc := newTestJWTService()
	userID := uuid.New()
	studentID := uuid.New()
	token := generateTestToken(t, jwtSvc, userID, "aluno", &studentID)

	var (
		gotUserID    uuid.UUID
		gotRole      models.Role
		gotStudentID uuid.UUID
		actsAsSelf   bool
		actsAsOther  bool
	)
	app := protectedApp(jwtSvc, func(c *drift.Context) {
		gotUserID = GetUserID(c)
		gotRole = GetRole(c)
		gotStudentID = GetStudentID(c)
		actsAsSelf = CanActAs(c, studentID)
		actsAsOther = CanActAs(c, uuid.New())
		okHandler(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotUserID)
	assert.Equal(t, models.RoleStudent, gotRole)
	assert.Equal(t, studentID, gotStudentID)
	assert.True(t, actsAsSelf)
	assert.False(t, actsAsOther)
}

func TestAuth_StaffCanActForAnyone(t *testing.T) {
	jwtSvc := newTestJWTService()
	token := generateTestToken(t, jwtSvc, uuid.New(), "Professor", nil)

	var canAct, staff bool
	app := protectedApp(jwtSvc, func(c *drift.Context) {
		canAct = CanActAs(c, uuid.New())
		staff = IsStaff(c)
		okHandler(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, canAct)
	assert.True(t, staff)
}

func TestAuth_BearerCaseInsensitive(t *testing.T) {
	jwtSvc := newTestJWTService()
	token := generateTestToken(t, jwtSvc, uuid.New(), "Admin", nil)
	app := protectedApp(jwtSvc, okHandler)

	for _, bearer := range []string{"bearer", "BEARER", "BeArEr"} {
		t.Run(bearer, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", bearer+" "+token)
			rec := httptest.NewRecorder()

			app.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestGetters_NotSet(t *testing.T) {
	app := drift.New()

	var (
		userID    uuid.UUID
		studentID uuid.UUID
		role      models.Role
		canAct    bool
	)
	app.Get("/test", func(c *drift.Context) {
		userID = GetUserID(c)
		studentID = GetStudentID(c)
		role = GetRole(c)
		canAct = CanActAs(c, uuid.Nil)
		_ = c.JSON(http.StatusOK, nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, uuid.Nil, userID)
	assert.Equal(t, uuid.Nil, studentID)
	assert.Equal(t, models.Role(""), role)
	assert.False(t, canAct)
}
