package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the bearer token claims the functions accept
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
