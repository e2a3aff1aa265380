package users_test

import (
	"math"
	"strings"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-chat-portal/internal/errors"
	"github.com/jrsteele09/go-chat-portal/users"
	"github.com/stretchr/testify/require"
)

func TestParseCredentials(t *testing.T) {
	t.Run("strings", func(t *testing.T) {
		c, err := users.ParseCredentials(strings.NewReader(`{"username":"alice","password":"password123"}`))
		require.NoError(t, err)
		require.Equal(t, users.Credentials{Username: "alice", Password: "password123"}, c)
	})

	t.Run("non-string field", func(t *testing.T) {
		_, err := users.ParseCredentials(strings.NewReader(`{"username":42,"password":"password123"}`))
		require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := users.ParseCredentials(strings.NewReader(`username=alice`))
		require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	})
}

func TestCredentialsValidate(t *testing.T) {
	require.NoError(t, users.Credentials{Username: "alice", Password: "x"}.Validate())
	require.ErrorIs(t, users.Credentials{Password: "x"}.Validate(), apperrors.ErrMissingCredentials)
	require.ErrorIs(t, users.Credentials{Username: "alice"}.Validate(), apperrors.ErrMissingCredentials)
	require.NoError(t, users.Credentials{Username: "  ", Password: "x"}.Validate(), "whitespace is left to the backend")
}

func TestCredentialsValidateForm(t *testing.T) {
	require.NoError(t, users.Credentials{Username: "alice", Password: "password123"}.ValidateForm())

	err := users.Credentials{Username: "al", Password: "short"}.ValidateForm()
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	var verrs users.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 2)
	require.Equal(t, "username", verrs[0].Field)
	require.Equal(t, "password", verrs[1].Field)

	err = users.Credentials{Username: "alice", Password: strings.Repeat("a", 33)}.ValidateForm()
	require.ErrorAs(t, err, &verrs)
	require.Contains(t, verrs.First(), "at most 32")
}

func TestValidatePasswordStrength(t *testing.T) {
	require.NoError(t, users.ValidatePasswordStrength("abcdefg1"))
	require.Error(t, users.ValidatePasswordStrength("abc1"))
	require.Error(t, users.ValidatePasswordStrength("abcdefgh"))
	require.Error(t, users.ValidatePasswordStrength("12345678"))
	require.Error(t, users.ValidatePasswordStrength(strings.Repeat("a1", 17)))
}

func TestRegistrationValidate(t *testing.T) {
	require.NoError(t, users.Registration{Username: "alice", Email: "alice@example.com", Password: "password123"}.Validate())

	err := users.Registration{Username: "alice", Email: "not-an-email", Password: "password"}.Validate()
	var verrs users.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 2)
	require.Equal(t, "email", verrs[0].Field)
	require.Equal(t, "password", verrs[1].Field)
}

func TestOTPAndResetValidate(t *testing.T) {
	require.NoError(t, users.OTPRequest{Email: "alice@example.com"}.Validate())
	require.NoError(t, users.OTPRequest{Email: "alice@example.com", OTP: "123456"}.Validate())
	require.Error(t, users.OTPRequest{Email: "alice@example.com", OTP: "12a456"}.Validate())
	require.Error(t, users.OTPRequest{}.Validate())

	require.NoError(t, users.PasswordReset{Email: "alice@example.com", Password: "newpass123"}.Validate())
	require.Error(t, users.PasswordReset{Email: "alice@example.com", Password: "newpass"}.Validate())

	require.NoError(t, users.PasswordChange{Email: "alice@example.com", OldPassword: "old", NewPassword: "newpass123"}.Validate())
	require.Error(t, users.PasswordChange{Email: "alice@example.com", OldPassword: "newpass123", NewPassword: "newpass123"}.Validate())
}

func TestProfile(t *testing.T) {
	defer func(orig func() time.Time) { users.NowTimeFunc = orig }(users.NowTimeFunc)
	users.NowTimeFunc = func() time.Time { return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) }

	t.Run("derive age and bmi", func(t *testing.T) {
		p := users.Profile{Username: "alice", DateOfBirth: "2000-06-16", Height: 180, Weight: 81}
		require.NoError(t, p.Validate())
		p.Derive()
		require.NotNil(t, p.Age)
		require.Equal(t, 24, *p.Age)
		require.NotNil(t, p.BMI)
		require.Equal(t, 25.0, *p.BMI)
	})

	t.Run("backend values are kept", func(t *testing.T) {
		age := 40
		p := users.Profile{Username: "alice", DateOfBirth: "2000-01-01", Age: &age}
		p.Derive()
		require.Equal(t, 40, *p.Age)
		require.Nil(t, p.BMI)
	})

	t.Run("invalid", func(t *testing.T) {
		err := users.Profile{Username: "al", DateOfBirth: "2030-01-01", Height: -1}.Validate()
		var verrs users.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		require.Len(t, verrs, 3)
	})

	t.Run("non-finite numbers", func(t *testing.T) {
		err := users.Profile{Username: "alice", Height: math.NaN(), Weight: math.Inf(1)}.Validate()
		var verrs users.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		require.Equal(t, users.ValidationErrors{
			{Field: "height", Message: "Height must be a number"},
			{Field: "weight", Message: "Weight must be a number"},
		}, verrs)
	})
}

func TestTokenPairOAuth2Token(t *testing.T) {
	pair := users.TokenPair{AccessToken: "a", RefreshToken: "r"}
	require.True(t, pair.Complete())
	require.Equal(t, "a", pair.OAuth2Token().AccessToken)
	require.Equal(t, "Bearer", pair.OAuth2Token().Type())
	require.Equal(t, "r", pair.RefreshOAuth2Token().AccessToken)
	require.False(t, users.TokenPair{AccessToken: "a"}.Complete())
}
