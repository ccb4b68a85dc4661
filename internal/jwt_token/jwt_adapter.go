package jwttoken

import (
	"recruitline/internal/platform/middleware"
)

// JWTServiceAdapter exposes a JWTService as a middleware.TokenValidator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.Claims, error) {
	if len(a.service.signingKey) == 0 {
		return nil, middleware.ErrNotConfigured
	}
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.Claims{Subject: claims.Subject}, nil
}
