package user

import (
	"context"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"

	"github.com/streamhive/user-service/internal/adapters/transport/http/dto"
	"github.com/streamhive/user-service/internal/app/token"
	"github.com/streamhive/user-service/internal/app/validation"
	"github.com/streamhive/user-service/internal/domain/user/apperr"
	"github.com/streamhive/user-service/internal/domain/user/model"
	"github.com/streamhive/user-service/internal/domain/user/repo"
	"github.com/streamhive/user-service/internal/infra/config"
)

// ProfileCache holds channel aggregate counts for a short TTL. A nil
// cache is valid and means every lookup hits the store.
type ProfileCache interface {
	GetCounts(ctx context.Context, channelID uuid.UUID) (subscribers, subscribedTo int64, ok bool)
	SetCounts(ctx context.Context, channelID uuid.UUID, subscribers, subscribedTo int64)
}

type Service struct {
	users  repo.UserRepo
	subs   repo.SubscriptionRepo
	tokens *token.Service
	cache  ProfileCache
	v      *validation.Validator

	hashParams *argon2id.Params
	pepper     string
}

func New(
	users repo.UserRepo,
	subs repo.SubscriptionRepo,
	tokens *token.Service,
	cache ProfileCache,
	v *validation.Validator,
	cfg *config.Config,
) *Service {
	return &Service{
		users:  users,
		subs:   subs,
		tokens: tokens,
		cache:  cache,
		v:      v,
		hashParams: &argon2id.Params{
			Memory:      cfg.ArgonMemoryKiB,
			Iterations:  cfg.ArgonIterations,
			Parallelism: 4,
			SaltLength:  16,
			KeyLength:   32,
		},
		pepper: cfg.PasswordPepper,
	}
}

// Register creates a user after uniqueness and schema checks. The
// returned shape never contains the password hash or session slot.
func (s *Service) Register(ctx context.Context, in dto.RegisterDTO) (model.PublicUser, error) {
	if err := s.v.Validate(&in); err != nil {
		return model.PublicUser{}, err
	}

	hash, err := argon2id.CreateHash(in.Password+s.pepper, s.hashParams)
	if err != nil {
		return model.PublicUser{}, apperr.Wrap(apperr.Internal, "hash password", err)
	}

	created, err := s.users.Create(ctx, model.User{
		ID:            uuid.New(),
		Username:      in.Username,
		Email:         in.Email,
		FullName:      in.FullName,
		PasswordHash:  hash,
		AvatarURL:     in.Avatar,
		CoverImageURL: in.CoverImage,
		Role:          "user",
	})
	if err != nil {
		return model.PublicUser{}, err
	}
	return created.Public(), nil
}

// Login verifies credentials and issues a fresh token pair, displacing
// any previous session for the user.
func (s *Service) Login(ctx context.Context, in dto.LoginDTO) (model.PublicUser, model.TokenPair, error) {
	if err := s.v.Validate(&in); err != nil {
		return model.PublicUser{}, model.TokenPair{}, err
	}

	u, err := s.findByIdentifier(ctx, in.Email, in.Username)
	if err != nil {
		if apperr.IsNotFound(err) {
			return model.PublicUser{}, model.TokenPair{}, apperr.New(apperr.InvalidCredential, "invalid username/email or password")
		}
		return model.PublicUser{}, model.TokenPair{}, err
	}

	ok, err := argon2id.ComparePasswordAndHash(in.Password+s.pepper, u.PasswordHash)
	if err != nil {
		return model.PublicUser{}, model.TokenPair{}, apperr.Wrap(apperr.Internal, "compare password", err)
	}
	if !ok {
		return model.PublicUser{}, model.TokenPair{}, apperr.New(apperr.InvalidCredential, "invalid username/email or password")
	}

	pair, err := s.tokens.IssuePair(ctx, u.ID)
	if err != nil {
		return model.PublicUser{}, model.TokenPair{}, err
	}
	return u.Public(), pair, nil
}

func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.tokens.Invalidate(ctx, userID)
}

func (s *Service) Refresh(ctx context.Context, presented string) (model.TokenPair, error) {
	return s.tokens.Rotate(ctx, presented)
}

// ChangePassword re-verifies the current password before accepting the
// replacement. A wrong current password leaves the record untouched.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, in dto.ChangePasswordDTO) error {
	if err := s.v.Validate(&in); err != nil {
		return err
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := argon2id.ComparePasswordAndHash(in.OldPassword+s.pepper, u.PasswordHash)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "compare password", err)
	}
	if !ok {
		return apperr.New(apperr.InvalidCredential, "current password is incorrect")
	}

	hash, err := argon2id.CreateHash(in.NewPassword+s.pepper, s.hashParams)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "hash password", err)
	}

	u.PasswordHash = hash
	return s.users.Update(ctx, u)
}

func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (model.PublicUser, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}
	return u.Public(), nil
}

// UpdateAccount applies a partial update of the mutable profile fields.
func (s *Service) UpdateAccount(ctx context.Context, userID uuid.UUID, in dto.UpdateAccountDTO) (model.PublicUser, error) {
	if err := s.v.Validate(&in); err != nil {
		return model.PublicUser{}, err
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}

	if in.FullName != "" {
		u.FullName = in.FullName
	}
	if in.Email != "" {
		u.Email = in.Email
	}
	if err := s.users.Update(ctx, u); err != nil {
		return model.PublicUser{}, err
	}
	return u.Public(), nil
}

// AddWatchHistory appends a video reference, dropping the oldest entry
// once the bounded length is reached.
func (s *Service) AddWatchHistory(ctx context.Context, userID uuid.UUID, in dto.WatchHistoryDTO) (model.PublicUser, error) {
	if err := s.v.Validate(&in); err != nil {
		return model.PublicUser{}, err
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, err
	}

	u.WatchHistory = append(u.WatchHistory, in.VideoID)
	if n := len(u.WatchHistory); n > model.WatchHistoryLimit {
		u.WatchHistory = u.WatchHistory[n-model.WatchHistoryLimit:]
	}

	if err := s.users.Update(ctx, u); err != nil {
		return model.PublicUser{}, err
	}
	return u.Public(), nil
}

func (s *Service) ListUsers(ctx context.Context, in dto.ListQueryDTO) ([]model.PublicUser, int64, error) {
	if err := s.v.Validate(&in); err != nil {
		return nil, 0, err
	}

	users, total, err := s.users.List(ctx, repo.ListQuery{
		Page:   in.Page,
		Limit:  in.Limit,
		Search: in.Search,
		SortBy: in.SortBy,
		Order:  in.Order,
	})
	if err != nil {
		return nil, 0, err
	}

	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, total, nil
}

// ChannelProfile resolves a channel by username together with its
// subscriber aggregates and whether viewer is among the subscribers.
func (s *Service) ChannelProfile(ctx context.Context, username string, viewer uuid.UUID) (model.ChannelProfile, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if apperr.IsNotFound(err) {
			return model.ChannelProfile{}, apperr.New(apperr.NotFound, "channel does not exist")
		}
		return model.ChannelProfile{}, err
	}

	subscribers, subscribedTo, err := s.channelCounts(ctx, u.ID)
	if err != nil {
		return model.ChannelProfile{}, err
	}

	profile := model.ChannelProfile{
		ID:                     u.ID,
		Username:               u.Username,
		FullName:               u.FullName,
		Email:                  u.Email,
		AvatarURL:              u.AvatarURL,
		CoverImageURL:          u.CoverImageURL,
		SubscribersCount:       subscribers,
		SubscribedChannelCount: subscribedTo,
	}

	if viewer != uuid.Nil {
		profile.IsSubscribed, err = s.subs.IsSubscribed(ctx, viewer, u.ID)
		if err != nil {
			return model.ChannelProfile{}, err
		}
	}
	return profile, nil
}

func (s *Service) channelCounts(ctx context.Context, channelID uuid.UUID) (int64, int64, error) {
	if s.cache != nil {
		if subscribers, subscribedTo, ok := s.cache.GetCounts(ctx, channelID); ok {
			return subscribers, subscribedTo, nil
		}
	}

	subscribers, err := s.subs.CountSubscribers(ctx, channelID)
	if err != nil {
		return 0, 0, err
	}
	subscribedTo, err := s.subs.CountSubscribedTo(ctx, channelID)
	if err != nil {
		return 0, 0, err
	}

	if s.cache != nil {
		s.cache.SetCounts(ctx, channelID, subscribers, subscribedTo)
	}
	return subscribers, subscribedTo, nil
}

func (s *Service) findByIdentifier(ctx context.Context, email, username string) (model.User, error) {
	if email != "" {
		if u, err := s.users.GetByEmail(ctx, email); err == nil || !apperr.IsNotFound(err) {
			return u, err
		}
	}
	if username != "" {
		return s.users.GetByUsername(ctx, username)
	}
	return model.User{}, apperr.New(apperr.NotFound, "user not found")
}
