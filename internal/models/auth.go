package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles recognised by the API. Authentication itself
// is delegated to the external identity provider; tokens arrive already
// issued and the API only reads their claims.
type UserRole string

const (
	RoleTeacher    UserRole = "teacher"
	RoleSuperAdmin UserRole = "superadmin"
)

// JWTClaims represents the payload of access tokens issued by the identity
// provider.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	jwt.RegisteredClaims
}

// Scope captures the identity and data visibility of the calling user.
// TeacherID is always the caller's own id (writes are attributed to it);
// read filters only apply it when the scope is restricted.
type Scope struct {
	Role      UserRole
	TeacherID string
}

// Unrestricted reports whether the scope may read every record.
func (s Scope) Unrestricted() bool {
	return s.Role == RoleSuperAdmin
}

// ScopeFromClaims derives the visibility scope for a set of token claims.
func ScopeFromClaims(claims *JWTClaims) Scope {
	if claims == nil {
		return Scope{}
	}
	return Scope{Role: claims.Role, TeacherID: claims.UserID}
}
