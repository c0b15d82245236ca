package models

import "strings"

type Role string

const (
	RoleAdmin       Role = "Admin"
	RoleProfessor   Role = "Professor"
	RoleStudent     Role = "Aluno"
	RoleCoordinator Role = "Coordenador"
)

var roleAliases = map[string]Role{
	"admin":       RoleAdmin,
	"professor":   RoleProfessor,
	"aluno":       RoleStudent,
	"student":     RoleStudent,
	"coordenador": RoleCoordinator,
	"coordinator": RoleCoordinator,
}

// ParseRole maps the role strings used by the identity service onto the closed
// set above. Unknown roles report ok=false.
func ParseRole(s string) (Role, bool) {
	r, ok := roleAliases[strings.ToLower(strings.TrimSpace(s))]
	return r, ok
}

// IsStaff reports whether the role manages teams on behalf of students.
func (r Role) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleProfessor, RoleCoordinator:
		return true
	}
	return false
}
