package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pawdx/vetlab-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID    uuid.UUID
	Role      enums.UserRole
	StaffRole *enums.StaffRole
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID    uuid.UUID        `json:"user_id"`
	Role      enums.UserRole   `json:"role"`
	StaffRole *enums.StaffRole `json:"staff_role,omitempty"`
	jwt.RegisteredClaims
}
