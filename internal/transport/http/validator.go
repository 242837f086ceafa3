package httptransport

import (
	"github.com/google/uuid"

	"craftgate/internal/jwttoken"
	"craftgate/internal/platform/middleware"
	dErrors "craftgate/pkg/domain-errors"
)

// TokenValidator adapts the jwttoken service to the middleware's
// validator interface.
type TokenValidator struct {
	tokens *jwttoken.Service
}

func NewTokenValidator(tokens *jwttoken.Service) *TokenValidator {
	return &TokenValidator{tokens: tokens}
}

func (v *TokenValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	claims, err := v.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	playerID, err := uuid.Parse(claims.PlayerID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	return &middleware.JWTClaims{
		PlayerID:    playerID,
		IsSiteAdmin: claims.IsSiteAdmin,
	}, nil
}
