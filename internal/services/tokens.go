package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// TokenService issues and verifies HS256 access tokens. Logged out tokens
// are kept in a TokenRepository until they expire. A token is only valid
// while its user exists and is active.
type TokenService struct {
	secret  []byte
	ttl     time.Duration
	revoked repositories.TokenRepository
	users   repositories.UserRepository
	now     func() time.Time
}

func NewTokenService(secret string, ttl time.Duration, revoked repositories.TokenRepository, users repositories.UserRepository) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, revoked: revoked, users: users, now: time.Now}
}

// Issue signs a token for user.
func (s *TokenService) Issue(user *models.User) (string, error) {
	now := s.now()
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature, expiry and revocation state of raw.
func (s *TokenService) Parse(ctx context.Context, raw string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, &Error{Kind: KindAuthentication, Detail: "Token has expired."}
		}
		return nil, &Error{Kind: KindAuthentication, Detail: "Invalid token."}
	}

	if claims.ID != "" {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return nil, &Error{Kind: KindAuthentication, Detail: "Token has been revoked."}
		}
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &Error{Kind: KindAuthentication, Detail: "User not found."}
	}
	if err != nil {
		return nil, fmt.Errorf("load token user: %w", err)
	}
	if !user.IsActive {
		return nil, &Error{Kind: KindAuthentication, Detail: "User account is disabled."}
	}
	return claims, nil
}

// Revoke denies the token with the given claims until it would have expired.
func (s *TokenService) Revoke(ctx context.Context, claims *models.JwtCustomClaims) error {
	if claims == nil || claims.ID == "" {
		return &Error{Kind: KindValidation, Detail: "Token cannot be revoked."}
	}
	expiresAt := s.now().Add(s.ttl)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.revoked.RevokeToken(ctx, claims.ID, expiresAt.UTC()); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// PurgeExpired drops revocation records of tokens that have expired anyway.
func (s *TokenService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.revoked.PurgeExpired(ctx, now)
}
