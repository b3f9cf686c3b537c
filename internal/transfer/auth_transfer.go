package transfer

import "github.com/golang-jwt/jwt/v5"

type CustomClaims struct {
	WorkspaceID string `json:"workspace_id"`
	jwt.RegisteredClaims
}
