package middleware

import (
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/peifeira/peifeira-api/internal/models"
	"github.com/peifeira/peifeira-api/internal/services"
)

const (
	UserIDKey    = "user_id"
	RoleKey      = "role"
	StudentIDKey = "student_id"
)

func Auth(jwtService *services.JWTService) drift.HandlerFunc {
	return func(c *drift.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Unauthorized("missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.Unauthorized("invalid authorization header format")
			return
		}

		claims, err := jwtService.ValidateAccessToken(parts[1])
		if err != nil {
			c.Unauthorized("invalid or expired token")
			return
		}

		role, ok := models.ParseRole(claims.Role)
		if !ok {
			c.Unauthorized("unknown role")
			return
		}
		if role == models.RoleStudent && (claims.StudentID == nil || *claims.StudentID == uuid.Nil) {
			c.Unauthorized("student token without profile")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, role)
		if claims.StudentID != nil {
			c.Set(StudentIDKey, *claims.StudentID)
		}

		c.Next()
	}
}

func GetUserID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(UserIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}

func GetRole(c *drift.Context) models.Role {
	if v, ok := c.Get(RoleKey); ok {
		if r, ok := v.(models.Role); ok {
			return r
		}
	}
	return ""
}

// GetStudentID returns the caller's student profile id, or uuid.Nil for
// callers without one.
func GetStudentID(c *drift.Context) uuid.UUID {
	if v, ok := c.Get(StudentIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func IsStaff(c *drift.Context) bool {
	return GetRole(c).IsStaff()
}

// CanActAs reports whether the caller may act as the given student. Staff
// may act for anyone; a student only as itself.
func CanActAs(c *drift.Context, studentID uuid.UUID) bool {
	if IsStaff(c) {
		return true
	}
	own := GetStudentID(c)
	return own != uuid.Nil && own == studentID
}
