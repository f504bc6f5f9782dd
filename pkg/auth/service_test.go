package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"equipapi/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-secret")

func newTestService(t *testing.T) (*Service, *MemoryTokenRepository) {
	t.Helper()
	tokens := NewMemoryTokenRepository()
	svc := NewService(NewMemoryUserRepository(), tokens, Options{
		Secret:     testSecret,
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, nil)
	return svc, tokens
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Name:                 "Alice",
		Email:                "alice@example.com",
		Password:             "s3cret",
		PasswordConfirmation: "s3cret",
	}
}

func validationFields(t *testing.T, err error) map[string][]string {
	t.Helper()
	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	return ve.Fields
}

func TestRegister_IssuesWorkingToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, []byte("s3cret"), user.HashedPassword)

	uid, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, uid)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		field  string
	}{
		{"missing name", func(in *RegisterInput) { in.Name = " " }, "name"},
		{"missing email", func(in *RegisterInput) { in.Email = "" }, "email"},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, "email"},
		{"missing password", func(in *RegisterInput) { in.Password = ""; in.PasswordConfirmation = "" }, "password"},
		{"confirmation mismatch", func(in *RegisterInput) { in.PasswordConfirmation = "other" }, "password_confirmation"},
		{"password too long", func(in *RegisterInput) {
			in.Password = strings.Repeat("p", MaxPasswordBytes+8)
			in.PasswordConfirmation = in.Password
		}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			in := validRegistration()
			tt.mutate(&in)
			_, _, err := svc.Register(context.Background(), in)
			assert.Contains(t, validationFields(t, err), tt.field)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	in := validRegistration()
	in.Email = "  ALICE@example.com "
	_, _, err = svc.Register(ctx, in)
	assert.Contains(t, validationFields(t, err), "email")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_UniformFailure(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, _, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, errWrongPassword := svc.Login(ctx, "alice@example.com", "nope")
	_, errNoUser := svc.Login(ctx, "bob@example.com", "s3cret")
	assert.ErrorIs(t, errWrongPassword, ErrAuthFailed)
	assert.ErrorIs(t, errNoUser, ErrAuthFailed)
	assert.Equal(t, errWrongPassword.Error(), errNoUser.Error())

	token, err := svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestLogout_RevokesEveryToken(t *testing.T) {
	svc, tokens := newTestService(t)
	ctx := context.Background()

	user, regToken, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	loginToken, err := svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, 2, tokens.Count(user.ID))

	require.NoError(t, svc.Logout(ctx, user.ID))
	assert.Equal(t, 0, tokens.Count(user.ID))

	for _, tok := range []string{regToken, loginToken} {
		_, err := svc.Verify(ctx, tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestVerify_RejectsForgedAndExpired(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, token, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify(ctx, token+"x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// signed with the right key but never stored
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        "00000000-0000-0000-0000-000000000000",
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}).SignedString(testSecret)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetPassword(t *testing.T) {
	svc, tokens := newTestService(t)
	ctx := context.Background()
	user, token, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(ctx, "alice@example.com", "n3w"))
	assert.Equal(t, 0, tokens.Count(user.ID))
	_, err = svc.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Login(ctx, "alice@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrAuthFailed)
	_, err = svc.Login(ctx, "alice@example.com", "n3w")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ResetPassword(ctx, "nobody@example.com", "x"), apperr.ErrNotFound)

	err = svc.ResetPassword(ctx, "alice@example.com", strings.Repeat("x", MaxPasswordBytes+1))
	assert.Contains(t, validationFields(t, err), "password")
}

func TestCreateUser_PasswordTooLong(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateUser(context.Background(), "Admin", "admin@example.com", strings.Repeat("x", MaxPasswordBytes+1))
	assert.Contains(t, validationFields(t, err), "password")

	_, err = svc.CreateUser(context.Background(), "Admin", "admin@example.com", strings.Repeat("x", MaxPasswordBytes))
	require.NoError(t, err)
}

func TestCreateUser(t *testing.T) {
	svc, _ := newTestService(t)
	u, err := svc.CreateUser(context.Background(), "Admin", "Admin@Example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", u.Email)

	got, err := svc.User(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Admin", got.Name)
}
