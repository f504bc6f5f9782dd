// Package auth registers users, checks their credentials and issues, verifies
// and revokes bearer tokens.
//
// Tokens are HS256 JWTs whose sha256 hash is also stored as an AccessToken row.
// A token is valid only while its signature, its expiry and its row all hold, so
// deleting the rows of a user logs that user out everywhere.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"equipapi/models"
	"equipapi/pkg/apperr"
	"equipapi/pkg/logging"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrAuthFailed is returned by Login for an unknown email and for a wrong
	// password alike.
	ErrAuthFailed   = errors.New("invalid credentials")
	ErrInvalidToken = errors.New("invalid token")
	ErrEmailTaken   = errors.New("email already registered")
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// Token names recorded on the AccessToken rows.
const (
	TokenRegister = "register"
	TokenLogin    = "login"
)

// UserRepository persists users.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error // ErrEmailTaken on duplicates
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id uint) (models.User, error)
	UpdatePassword(ctx context.Context, id uint, hash []byte) error
}

// TokenRepository persists issued tokens.
type TokenRepository interface {
	Create(ctx context.Context, t *models.AccessToken) error
	GetByHash(ctx context.Context, hash string) (models.AccessToken, error)
	Touch(ctx context.Context, id string, at time.Time) error
	DeleteByUser(ctx context.Context, userID uint) (int64, error)
}

// Claims are the JWT claims of a bearer token. Subject is the user id, ID the
// AccessToken row id.
type Claims struct {
	jwt.RegisteredClaims
}

type Options struct {
	Secret     []byte
	TokenTTL   time.Duration
	BcryptCost int
}

type Service struct {
	users    UserRepository
	tokens   TokenRepository
	secret   []byte
	ttl      time.Duration
	cost     int
	validate *validator.Validate
	now      func() time.Time
	log      logging.Logger
}

func NewService(users UserRepository, tokens TokenRepository, opts Options, log logging.Logger) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Service{
		users:    users,
		tokens:   tokens,
		secret:   opts.Secret,
		ttl:      opts.TokenTTL,
		cost:     opts.BcryptCost,
		validate: apperr.NewValidator(),
		now:      time.Now,
		log:      log.With("component", "auth"),
	}
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type newUser struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

// Register creates the user and returns it together with a fresh token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return models.User{}, "", apperr.FromValidator(err)
	}
	user, err := s.createUser(ctx, in.Name, in.Email, in.Password)
	if err != nil {
		return models.User{}, "", err
	}
	token, err := s.issueToken(ctx, user, TokenRegister)
	if err != nil {
		return models.User{}, "", err
	}
	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user, token, nil
}

// CreateUser creates a user without issuing a token.
func (s *Service) CreateUser(ctx context.Context, name, email, password string) (models.User, error) {
	in := newUser{Name: strings.TrimSpace(name), Email: normalizeEmail(email), Password: password}
	if err := s.validate.Struct(in); err != nil {
		return models.User{}, apperr.FromValidator(err)
	}
	return s.createUser(ctx, in.Name, in.Email, in.Password)
}

func (s *Service) createUser(ctx context.Context, name, email, password string) (models.User, error) {
	// pre-check existing (optimistic)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return models.User{}, emailTaken()
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return models.User{}, err
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{Name: name, Email: email, HashedPassword: hash}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, ErrEmailTaken) { // race after the pre-check
			return models.User{}, emailTaken()
		}
		return models.User{}, err
	}
	return user, nil
}

// hashPassword bcrypts password. Passwords bcrypt cannot take are reported as
// a validation failure on the password field.
func (s *Service) hashPassword(password string) ([]byte, error) {
	if len(password) > MaxPasswordBytes {
		return nil, passwordTooLong()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, passwordTooLong()
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func passwordTooLong() error {
	return apperr.Invalid("password", fmt.Sprintf("The password field must not be greater than %d bytes.", MaxPasswordBytes))
}

func emailTaken() error {
	ve := apperr.Invalid("email", "The email has already been taken.")
	ve.Cause = ErrEmailTaken
	return ve
}

// Login checks the credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", ErrAuthFailed
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return "", ErrAuthFailed
	}
	return s.issueToken(ctx, user, TokenLogin)
}

// Logout revokes every token of the user.
func (s *Service) Logout(ctx context.Context, userID uint) error {
	n, err := s.tokens.DeleteByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	s.log.Info(ctx, "user logged out", "user_id", userID, "revoked", n)
	return nil
}

// ResetPassword replaces the password of the user and revokes their tokens.
func (s *Service) ResetPassword(ctx context.Context, email, password string) error {
	if password == "" {
		return apperr.Invalid("password", "The password field is required.")
	}
	if len(password) > MaxPasswordBytes {
		return passwordTooLong()
	}
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	return s.Logout(ctx, user.ID)
}

// Verify resolves a bearer token to the id of its user.
func (s *Service) Verify(ctx context.Context, raw string) (uint, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}

	row, err := s.tokens.GetByHash(ctx, hashToken(raw))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return 0, ErrInvalidToken
		}
		return 0, err
	}
	now := s.now()
	if row.UserID != uint(uid) || row.ID != claims.ID || !now.Before(row.ExpiresAt) {
		return 0, ErrInvalidToken
	}
	if err := s.tokens.Touch(ctx, row.ID, now); err != nil {
		s.log.Warn(ctx, "failed to record token use", "token_id", row.ID, "error", err)
	}
	return row.UserID, nil
}

// User loads a user by id.
func (s *Service) User(ctx context.Context, id uint) (models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) issueToken(ctx context.Context, user models.User, name string) (string, error) {
	now := s.now()
	id := uuid.NewString()
	exp := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	row := models.AccessToken{ID: id, UserID: user.ID, Name: name, TokenHash: hashToken(signed), ExpiresAt: exp}
	if err := s.tokens.Create(ctx, &row); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return signed, nil
}

func hashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
