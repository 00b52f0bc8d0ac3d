package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"powerbi-portal/internal/model"
	"powerbi-portal/internal/pkg/passhash"
	"powerbi-portal/internal/repository"
)

var (
	ErrInvalidInput      = errors.New("username and password are required")
	ErrUsernameExists    = errors.New("username already exists")
	ErrInvalidCredential = errors.New("invalid username or password")
)

// UserStore is the slice of the user repository the auth service needs.
type UserStore interface {
	Create(user *model.User) error
	GetByUsername(username string) (*model.User, error)
	GetByID(id uint) (*model.User, error)
}

// AuditPublisher pushes portal activity onto the audit queue. Publishing is
// best-effort: a broker outage must never fail a login.
type AuditPublisher interface {
	Publish(ctx context.Context, event model.AuditEvent) error
}

type AuthService struct {
	users  UserStore
	hasher *passhash.Hasher
	audit  AuditPublisher
	log    zerolog.Logger
}

type SignupInput struct {
	Username string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

func NewAuthService(users UserStore, hasher *passhash.Hasher, audit AuditPublisher, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		audit:  audit,
		log:    logger,
	}
}

// Signup creates a new user. The new account is NOT logged in; the caller has
// to go through Login. A taken username fails without mutating anything.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	password := input.Password
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.users.Create(user); err != nil {
		// Two racing signups for one username both reach the insert; the
		// unique index picks the winner.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUsernameExists
		}
		return nil, err
	}

	s.publishAudit(ctx, user.ID, user.Username, "signup", "")
	return user, nil
}

// Login verifies credentials by exact username match. Unknown username and
// wrong password are indistinguishable to the caller so usernames cannot be
// enumerated.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	password := input.Password
	if username == "" || password == "" {
		return nil, ErrInvalidCredential
	}

	user, err := s.users.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		if errors.Is(err, passhash.ErrCorruptHash) {
			s.log.Error().Err(err).Uint("user_id", user.ID).Msg("stored password hash unreadable")
			return nil, ErrInvalidCredential
		}
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredential
	}

	s.publishAudit(ctx, user.ID, user.Username, "login", "")
	return user, nil
}

func (s *AuthService) GetUserByID(id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	return s.users.GetByID(id)
}

// RecordLogout notes a logout on the audit trail.
func (s *AuthService) RecordLogout(ctx context.Context, userID uint, username string) {
	s.publishAudit(ctx, userID, username, "logout", "")
}

func (s *AuthService) publishAudit(ctx context.Context, userID uint, username, action, detail string) {
	if s.audit == nil {
		return
	}
	event := model.AuditEvent{
		UserID:    userID,
		Username:  username,
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if err := s.audit.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("publish audit event failed")
	}
}
