package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/streamhive/user-service/internal/domain/user/apperr"
	"github.com/streamhive/user-service/internal/domain/user/model"
)

type SubscriptionRepo struct {
	db *gorm.DB
}

func NewSubscriptionRepo(db *gorm.DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

func (p *SubscriptionRepo) CountSubscribers(ctx context.Context, channelID uuid.UUID) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("channel_id = ?", channelID).
		Count(&n).Error
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "CountSubscribers", err)
	}
	return n, nil
}

func (p *SubscriptionRepo) CountSubscribedTo(ctx context.Context, subscriberID uuid.UUID) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("subscriber_id = ?", subscriberID).
		Count(&n).Error
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "CountSubscribedTo", err)
	}
	return n, nil
}

func (p *SubscriptionRepo) IsSubscribed(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	var sub model.Subscription
	err := p.db.WithContext(ctx).
		Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Wrap(apperr.Internal, "IsSubscribed", err)
	}
	return true, nil
}
