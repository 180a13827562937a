package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/streamhive/user-service/internal/domain/user/model"
)

// ListQuery is a validated pagination request. SortBy is restricted to a
// whitelist by the validation layer before it reaches any repository.
type ListQuery struct {
	Page   int
	Limit  int
	Search string
	SortBy string
	Order  string
}

func (q ListQuery) Offset() int { return (q.Page - 1) * q.Limit }

type UserRepo interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	// Update writes the mutable profile columns. It never touches the
	// refresh-token slot: only the three slot methods below do, so a
	// profile write racing a login or rotation cannot resurrect a
	// displaced token.
	Update(ctx context.Context, u model.User) error
	List(ctx context.Context, q ListQuery) ([]model.User, int64, error)

	// SetRefreshToken overwrites the session slot unconditionally
	// (login, fresh issue).
	SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	// RotateRefreshToken replaces old with next only if old is still the
	// stored value, as one conditional write. A stale old token fails
	// with apperr.TokenExpired and must leave the slot untouched.
	RotateRefreshToken(ctx context.Context, id uuid.UUID, old, next string) error
	// ClearRefreshToken empties the slot (logout).
	ClearRefreshToken(ctx context.Context, id uuid.UUID) error
}

type SubscriptionRepo interface {
	CountSubscribers(ctx context.Context, channelID uuid.UUID) (int64, error)
	CountSubscribedTo(ctx context.Context, subscriberID uuid.UUID) (int64, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error)
}
