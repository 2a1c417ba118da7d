package auth

import "github.com/golang-jwt/jwt/v5"

type Authenticator interface {
	GenerateToken(userID, role string) (string, error)
	ValidateToken(token string) (*Claims, error)
}

// Claims carries the user id in the subject and the user's role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
