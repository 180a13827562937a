package model

import (
	"time"

	"github.com/google/uuid"
)

// WatchHistoryLimit caps the number of video references kept per user.
// Older entries are dropped when the limit is reached.
const WatchHistoryLimit = 1000

type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username      string    `gorm:"uniqueIndex;not null" json:"username"`
	Email         string    `gorm:"uniqueIndex;not null" json:"email"`
	FullName      string    `gorm:"not null" json:"fullName"`
	PasswordHash  string    `gorm:"not null" json:"-"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	Role          string    `json:"role,omitempty"`
	// RefreshToken is the single session slot: empty means no active
	// session, otherwise exactly the most recently issued refresh token.
	RefreshToken string    `json:"-"`
	WatchHistory []string  `gorm:"serializer:json" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUser is the only user shape that crosses the API boundary.
// It has no password or refresh-token fields at all, so sanitization
// holds by construction rather than by caller discipline.
type PublicUser struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	Role          string    `json:"role,omitempty"`
	WatchHistory  []string  `json:"watchHistory,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		Role:          u.Role,
		WatchHistory:  u.WatchHistory,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// Subscription is a directed edge: subscriber follows channel.
// At most one edge exists per (subscriber, channel) pair.
type Subscription struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	SubscriberID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_subscriptions_pair"`
	ChannelID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_subscriptions_pair"`
	CreatedAt    time.Time
}

type TokenPair struct {
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	AccessTTL    time.Duration `json:"-"`
	RefreshTTL   time.Duration `json:"-"`
	UserID       uuid.UUID     `json:"-"`
}

// Principal is the request-scoped identity taken from a verified access
// token. It carries claims only, never live record state.
type Principal struct {
	UserID   uuid.UUID
	Email    string
	Role     string
	Username string
}

type ChannelProfile struct {
	ID                     uuid.UUID `json:"id"`
	Username               string    `json:"username"`
	FullName               string    `json:"fullName"`
	Email                  string    `json:"email"`
	AvatarURL              string    `json:"avatar"`
	CoverImageURL          string    `json:"coverImage,omitempty"`
	SubscribersCount       int64     `json:"subscribersCount"`
	SubscribedChannelCount int64     `json:"subscribedChannelCount"`
	IsSubscribed           bool      `json:"isSubscribed"`
}

type UploadedFile struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Size     int64  `json:"size"`
}
