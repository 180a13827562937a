package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/streamhive/user-service/internal/domain/user/apperr"
	"github.com/streamhive/user-service/internal/domain/user/model"
	"github.com/streamhive/user-service/internal/domain/user/repo"
)

// Whitelist of sortable columns; anything else falls back to created_at.
var sortColumns = map[string]string{
	"username":  "username",
	"email":     "email",
	"fullName":  "full_name",
	"createdAt": "created_at",
}

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (p *UserRepo) Create(ctx context.Context, user model.User) (model.User, error) {
	res := p.db.WithContext(ctx).Create(&user)
	if err := res.Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.User{}, apperr.New(apperr.Conflict, "username or email already exists")
		}
		return model.User{}, apperr.Wrap(apperr.Internal, "Create", err)
	}
	return user, nil
}

func (p *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return p.getOne(ctx, "id = ?", id)
}

func (p *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return p.getOne(ctx, "email = ?", email)
}

func (p *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return p.getOne(ctx, "username = ?", username)
}

func (p *UserRepo) getOne(ctx context.Context, query string, arg any) (model.User, error) {
	var u model.User
	res := p.db.WithContext(ctx).Where(query, arg).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, apperr.New(apperr.NotFound, "user not found")
	}
	if err := res.Error; err != nil {
		return model.User{}, apperr.Wrap(apperr.Internal, "get user", err)
	}
	return u, nil
}

// Update writes the profile columns only. The refresh-token slot is
// excluded so a stale in-memory copy cannot overwrite a token stored by
// a concurrent login or rotation.
func (p *UserRepo) Update(ctx context.Context, user model.User) error {
	res := p.db.WithContext(ctx).Omit("refresh_token").Save(&user)
	if err := res.Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.New(apperr.Conflict, "username or email already exists")
		}
		return apperr.Wrap(apperr.Internal, "Update", err)
	}
	return nil
}

func (p *UserRepo) List(ctx context.Context, q repo.ListQuery) ([]model.User, int64, error) {
	tx := p.db.WithContext(ctx).Model(&model.User{})

	if q.Search != "" {
		like := "%" + q.Search + "%"
		tx = tx.Where("username ILIKE ? OR email ILIKE ? OR full_name ILIKE ?", like, like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, "List count", err)
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	order := "desc"
	if q.Order == "asc" {
		order = "asc"
	}

	var users []model.User
	err := tx.Order(column + " " + order).
		Offset(q.Offset()).
		Limit(q.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Internal, "List", err)
	}
	return users, total, nil
}

func (p *UserRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("refresh_token", token)
	if err := res.Error; err != nil {
		return apperr.Wrap(apperr.Internal, "SetRefreshToken", err)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "user not found")
	}
	return nil
}

// RotateRefreshToken is the anti-replay write: the equality check and
// the overwrite happen in one conditional UPDATE, so of two rotations
// racing on the same token only one can see RowsAffected == 1.
func (p *UserRepo) RotateRefreshToken(ctx context.Context, id uuid.UUID, old, next string) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND refresh_token = ?", id, old).
		Update("refresh_token", next)
	if err := res.Error; err != nil {
		return apperr.Wrap(apperr.Internal, "RotateRefreshToken", err)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.TokenExpired, "refresh token is stale")
	}
	return nil
}

func (p *UserRepo) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("refresh_token", "")
	if err := res.Error; err != nil {
		return apperr.Wrap(apperr.Internal, "ClearRefreshToken", err)
	}
	return nil
}
