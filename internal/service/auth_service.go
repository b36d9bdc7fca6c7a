package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const refreshTokenTTL = 7 * 24 * time.Hour

type AuthService struct {
	users     UserStore
	secret    []byte
	accessTTL time.Duration
	logger    *zap.Logger
}

func NewAuthService(users UserStore, secret string, accessTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		logger:    logger,
	}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type tokenClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Login verifies credentials and issues an access/refresh token pair. The
// error is deliberately the same for an unknown username and a wrong
// password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("invalid username or password: %w", model.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid username or password: %w", model.ErrUnauthorized)
	}
	if !user.IsActive() {
		return nil, &model.ForbiddenError{Action: "log in", Reason: "account is " + string(user.Status)}
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		// A missed last_login stamp must not fail the login itself.
		s.logger.Warn("Failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}

	s.logger.Info("User logged in",
		zap.String("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))

	return pair, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. The account is
// re-checked so a suspended user cannot keep rolling tokens forward.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive() {
		return nil, fmt.Errorf("account unavailable: %w", model.ErrUnauthorized)
	}
	return s.issueTokens(user)
}

// Authenticate resolves a bearer token into an Actor. The role comes from
// the user record, not the token, so role changes take effect immediately.
func (s *AuthService) Authenticate(ctx context.Context, token string) (model.Actor, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return model.Actor{}, err
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return model.Actor{}, err
	}
	if user == nil {
		return model.Actor{}, fmt.Errorf("unknown token subject: %w", model.ErrUnauthorized)
	}
	if !user.IsActive() {
		return model.Actor{}, &model.ForbiddenError{Action: "authenticate", Reason: "account is " + string(user.Status)}
	}
	return model.Actor{UserID: user.ID, Role: user.Role}, nil
}

func (s *AuthService) issueTokens(user *model.User) (*TokenPair, error) {
	access, err := s.signToken(user, s.accessTTL, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.signToken(user, refreshTokenTTL, "")
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

func (s *AuthService) signToken(user *model.User, ttl time.Duration, role string) (string, error) {
	now := time.Now().UTC()
	claims := tokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AuthService) parseToken(raw string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", model.ErrUnauthorized)
	}
	return claims, nil
}
