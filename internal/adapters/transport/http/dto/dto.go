package dto

import "strings"

// Every DTO normalizes itself before validation runs, so handlers only
// ever see trimmed, case-folded values.

type RegisterDTO struct {
	Username   string `json:"username"   validate:"required,min=3,max=30,username"`
	Email      string `json:"email"      validate:"required,email,max=255,permanent"`
	FullName   string `json:"fullName"   validate:"required,min=2,max=100,fullname"`
	Password   string `json:"password"   validate:"required,strongpwd"`
	Avatar     string `json:"avatar"     validate:"required,mediaurl,max=2048"`
	CoverImage string `json:"coverImage" validate:"omitempty,mediaurl,max=2048"`
}

func (d *RegisterDTO) Normalize() {
	d.Username = strings.ToLower(strings.TrimSpace(d.Username))
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.FullName = strings.TrimSpace(d.FullName)
	d.Avatar = strings.TrimSpace(d.Avatar)
	d.CoverImage = strings.TrimSpace(d.CoverImage)
}

type LoginDTO struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email"    validate:"required_without=Username"`
	Password string `json:"password" validate:"required"`
}

func (d *LoginDTO) Normalize() {
	d.Username = strings.ToLower(strings.TrimSpace(d.Username))
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken" validate:"required,max=500"`
}

type ChangePasswordDTO struct {
	OldPassword     string `json:"oldPassword"     validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,strongpwd,nefield=OldPassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type UpdateAccountDTO struct {
	FullName string `json:"fullName" validate:"required_without=Email,omitempty,min=2,max=100,fullname"`
	Email    string `json:"email"    validate:"omitempty,email,max=255,permanent"`
}

func (d *UpdateAccountDTO) Normalize() {
	d.FullName = strings.TrimSpace(d.FullName)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
}

type WatchHistoryDTO struct {
	VideoID string `json:"videoId" validate:"required,uuid"`
}

type ListQueryDTO struct {
	Page   int    `form:"page"   json:"page"   validate:"omitempty,min=1"`
	Limit  int    `form:"limit"  json:"limit"  validate:"omitempty,min=1,max=100"`
	Search string `form:"search" json:"search" validate:"omitempty,max=100"`
	SortBy string `form:"sortBy" json:"sortBy" validate:"omitempty,oneof=username email fullName createdAt"`
	Order  string `form:"order"  json:"order"  validate:"omitempty,oneof=asc desc"`
}

func (d *ListQueryDTO) Normalize() {
	if d.Page == 0 {
		d.Page = 1
	}
	if d.Limit == 0 {
		d.Limit = 10
	}
	if d.Order == "" {
		d.Order = "desc"
	}
	d.Search = strings.TrimSpace(d.Search)
}
