package validation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/streamhive/user-service/internal/adapters/transport/http/dto"
	"github.com/streamhive/user-service/internal/app/validation"
	"github.com/streamhive/user-service/internal/domain/user/apperr"
)

func validRegister() dto.RegisterDTO {
	return dto.RegisterDTO{
		Username: "jane_doe",
		Email:    "jane@example.com",
		FullName: "Jane Doe",
		Password: "Str0ng!pass",
		Avatar:   "https://cdn.example.com/a.png",
	}
}

func TestValidate_RegisterOK(t *testing.T) {
	va := validation.New()
	d := validRegister()
	require.NoError(t, va.Validate(&d))
}

func TestValidate_NormalizesBeforeChecking(t *testing.T) {
	va := validation.New()
	d := validRegister()
	d.Username = "  Jane_Doe  "
	d.Email = "  JANE@Example.COM "

	require.NoError(t, va.Validate(&d))
	require.Equal(t, "jane_doe", d.Username)
	require.Equal(t, "jane@example.com", d.Email)
}

func TestValidate_PasswordWithoutDigit(t *testing.T) {
	va := validation.New()
	d := validRegister()
	d.Password = "NoDigits!here"

	err := va.Validate(&d)
	require.True(t, apperr.IsValidation(err))
	require.Contains(t, apperr.From(err).Fields, "password")
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	va := validation.New()
	d := validRegister()
	d.Password = "short"
	d.Email = "not-an-email"
	d.Username = "ab" // too short as well

	err := va.Validate(&d)
	require.True(t, apperr.IsValidation(err))

	fields := apperr.From(err).Fields
	require.Contains(t, fields, "password")
	require.Contains(t, fields, "email")
	require.Contains(t, fields, "username")
}

func TestValidate_DisposableEmail(t *testing.T) {
	va := validation.New()
	d := validRegister()
	d.Email = "jane@tempmail.com"

	err := va.Validate(&d)
	require.True(t, apperr.IsValidation(err))
	require.Contains(t, apperr.From(err).Fields, "email")
}

func TestValidate_LoginNeedsIdentifier(t *testing.T) {
	va := validation.New()
	d := dto.LoginDTO{Password: "whatever"}

	err := va.Validate(&d)
	require.True(t, apperr.IsValidation(err))

	d = dto.LoginDTO{Email: "jane@example.com", Password: "whatever"}
	require.NoError(t, va.Validate(&d))
}

func TestValidate_ChangePasswordCrossRules(t *testing.T) {
	va := validation.New()

	same := dto.ChangePasswordDTO{
		OldPassword: "Str0ng!pass",
		NewPassword: "Str0ng!pass",
	}
	err := va.Validate(&same)
	require.True(t, apperr.IsValidation(err))
	require.Contains(t, apperr.From(err).Fields, "newPassword")

	mismatch := dto.ChangePasswordDTO{
		OldPassword:     "Old0ne!pass",
		NewPassword:     "New0ne!pass",
		ConfirmPassword: "Different!1",
	}
	err = va.Validate(&mismatch)
	require.True(t, apperr.IsValidation(err))
	require.Contains(t, apperr.From(err).Fields, "confirmPassword")

	missing := dto.ChangePasswordDTO{
		OldPassword: "Old0ne!pass",
		NewPassword: "New0ne!pass",
	}
	err = va.Validate(&missing)
	require.True(t, apperr.IsValidation(err))
	require.Contains(t, apperr.From(err).Fields, "confirmPassword")
}

func TestValidate_ListQueryDefaults(t *testing.T) {
	va := validation.New()
	q := dto.ListQueryDTO{}

	require.NoError(t, va.Validate(&q))
	require.Equal(t, 1, q.Page)
	require.Equal(t, 10, q.Limit)
	require.Equal(t, "desc", q.Order)

	q = dto.ListQueryDTO{Limit: 500}
	err := va.Validate(&q)
	require.True(t, apperr.IsValidation(err))
	require.Contains(t, apperr.From(err).Fields, "limit")
}
