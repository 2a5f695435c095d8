package service

import (
	"errors"
	"time"

	"salesdesk/config"
	"salesdesk/internal/core"
	"salesdesk/internal/dto"
	cErr "salesdesk/internal/pkg/error"

	"github.com/golang-jwt/jwt/v4"
)

// AuthService 控制平面管理端 JWT（HS256，APP__SECRET_KEY）
type AuthService struct {
	conf *config.Configuration
}

func NewAuthService(conf *config.Configuration) *AuthService {
	return &AuthService{conf: conf}
}

func (s *AuthService) IssueToken(username string, ttl time.Duration) (*dto.AdminTokenDto, error) {
	if s.conf.App.SecretKey == "" {
		return nil, cErr.InternalServer("APP__SECRET_KEY is not configured")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	claims := core.Claims{
		Username: username,
		Role:     core.AdminRoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.conf.App.Name,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.conf.App.SecretKey))
	if err != nil {
		return nil, cErr.InternalServer("sign token failed")
	}
	return &dto.AdminTokenDto{Token: signed, Username: username, Role: claims.Role, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) ParseToken(raw string) (*core.Claims, error) {
	if s.conf.App.SecretKey == "" {
		return nil, cErr.Unauthorized("admin authentication is not configured")
	}
	claims := &core.Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.conf.App.SecretKey), nil
	})
	if err != nil || !token.Valid {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, cErr.InvalidSession("token expired")
		}
		return nil, cErr.Unauthorized("invalid token")
	}
	if claims.Role != core.AdminRoleOperator {
		return nil, cErr.Forbidden("operator role required")
	}
	return claims, nil
}
