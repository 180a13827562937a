package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/streamhive/user-service/internal/domain/user/apperr"
	"github.com/streamhive/user-service/internal/domain/user/model"
	"github.com/streamhive/user-service/internal/domain/user/repo"
	"github.com/streamhive/user-service/internal/infra/config"
)

// AccessClaims carry enough identity to authorize most requests without
// a storage lookup.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
	Username string `json:"username"`
}

type RefreshClaims struct {
	jwt.RegisteredClaims
}

// Service issues, verifies, and rotates the access/refresh token pair.
// The two token types are signed with distinct secrets so that leaking
// one cannot forge the other.
type Service struct {
	users         repo.UserRepo
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

func New(users repo.UserRepo, cfg *config.Config) *Service {
	return &Service{
		users:         users,
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		issuer:        cfg.Issuer,
	}
}

// IssuePair mints a fresh token pair for userID and stores the refresh
// token in the user's session slot, displacing any previous session.
func (s *Service) IssuePair(ctx context.Context, userID uuid.UUID) (model.TokenPair, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return model.TokenPair{}, apperr.New(apperr.Unauthorized, "user no longer exists")
		}
		return model.TokenPair{}, apperr.Wrap(apperr.Internal, "IssuePair", err)
	}

	pair, err := s.mintPair(user)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return model.TokenPair{}, apperr.Wrap(apperr.Internal, "persist refresh token", err)
	}
	return pair, nil
}

// VerifyAccess checks signature and expiry only; no storage round-trip.
// Expired and malformed tokens fail with distinct kinds so callers can
// trigger a silent refresh instead of a forced re-login.
func (s *Service) VerifyAccess(raw string) (model.Principal, error) {
	var claims AccessClaims
	if err := s.parse(raw, &claims, s.accessSecret); err != nil {
		return model.Principal{}, err
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Principal{}, apperr.New(apperr.Unauthorized, "invalid access token")
	}

	return model.Principal{
		UserID:   uid,
		Email:    claims.Email,
		Role:     claims.Role,
		Username: claims.Username,
	}, nil
}

// Rotate exchanges a valid refresh token for a new pair. The presented
// token must match the stored slot exactly, and the comparison happens
// inside one conditional write so two racing rotations on the same
// token cannot both succeed.
func (s *Service) Rotate(ctx context.Context, presented string) (model.TokenPair, error) {
	var claims RefreshClaims
	if err := s.parse(presented, &claims, s.refreshSecret); err != nil {
		return model.TokenPair{}, err
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.TokenPair{}, apperr.New(apperr.Unauthorized, "invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if apperr.IsNotFound(err) {
			return model.TokenPair{}, apperr.New(apperr.Unauthorized, "invalid refresh token")
		}
		return model.TokenPair{}, apperr.Wrap(apperr.Internal, "Rotate", err)
	}

	pair, err := s.mintPair(user)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.users.RotateRefreshToken(ctx, user.ID, presented, pair.RefreshToken); err != nil {
		// A stale slot means the token was already rotated or revoked.
		return model.TokenPair{}, err
	}
	return pair, nil
}

// Invalidate empties the session slot. Already-issued access tokens stay
// valid until natural expiry; this is the only revocation primitive.
func (s *Service) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		return apperr.Wrap(apperr.Internal, "Invalidate", err)
	}
	return nil
}

func (s *Service) AccessTTL() time.Duration  { return s.accessTTL }
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *Service) mintPair(user model.User) (model.TokenPair, error) {
	now := time.Now()

	access := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			ID:        uuid.NewString(),
		},
		Email:    user.Email,
		Role:     user.Role,
		Username: user.Username,
	}
	at, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(s.accessSecret)
	if err != nil {
		return model.TokenPair{}, apperr.Wrap(apperr.Internal, "sign access token", err)
	}

	refresh := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
			ID:        uuid.NewString(),
		},
	}
	rt, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(s.refreshSecret)
	if err != nil {
		return model.TokenPair{}, apperr.Wrap(apperr.Internal, "sign refresh token", err)
	}

	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		AccessTTL:    s.accessTTL,
		RefreshTTL:   s.refreshTTL,
		UserID:       user.ID,
	}, nil
}

func (s *Service) parse(raw string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, apperr.New(apperr.Unauthorized, "unexpected signing method")
		}
		return secret, nil
	}, jwt.WithIssuedAt(), jwt.WithLeeway(30*time.Second))

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperr.New(apperr.TokenExpired, "token has expired")
	case err != nil || !token.Valid:
		return apperr.New(apperr.Unauthorized, "invalid token")
	}

	if s.issuer != "" {
		iss, _ := token.Claims.GetIssuer()
		if iss != s.issuer {
			return apperr.New(apperr.Unauthorized, "invalid token")
		}
	}
	return nil
}
