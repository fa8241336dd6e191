package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"dmchat/internal/pkg/auth/jwt"
	"dmchat/internal/pkg/errs"
	"dmchat/internal/pkg/logx"
)

// RegisterInput is the data accepted by Service.Register.
type RegisterInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	Token string `json:"token"`
	User  Public `json:"user"`
}

// Option customizes a Service.
type Option func(*Service)

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service implements registration, login and the user directory on top of a Store.
type Service struct {
	store    Store
	tokens   *jwt.TokenService
	hashCost int
	now      func() time.Time

	// dummyHash is compared against on unknown usernames so both login
	// failures cost one bcrypt comparison.
	dummyHash []byte

	logger zerolog.Logger
}

// NewService constructs a Service.
func NewService(store Store, tokens *jwt.TokenService, opts ...Option) *Service {
	s := &Service{
		store:    store,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logx.Component("user"),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dmchat-dummy-password"), s.hashCost)

	return s
}

// Register creates a user and issues a token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || strings.TrimSpace(in.Password) == "" {
		return nil, errs.NewError(errs.ErrInvalidParams)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, errs.NewError(errs.ErrUnknown, err)
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = username
	}

	now := s.now()
	u := &User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hashedPassword),
		DisplayName:  displayName,
		LastSeen:     now,
		CreatedAt:    now,
		Contacts:     []string{},
	}

	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			s.logger.Warn().Str("username", username).Msg("registration conflict: username already exists")
			return nil, errs.NewError(errs.ErrUserAlreadyExists)
		}
		return nil, errs.NewError(errs.ErrStorage, fmt.Errorf("create user: %w", err))
	}

	s.logger.Info().Str("user_id", u.ID).Str("username", u.Username).Msg("User registered")

	return s.issue(u)
}

// Login verifies credentials, marks the user online and issues a token.
// Unknown usernames and wrong passwords produce the same ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	u, err := s.store.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, errs.NewError(errs.ErrStorage, fmt.Errorf("get user by username: %w", err))
		}

		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.logger.Warn().Str("username", username).Msg("login: unknown username")
		return nil, errs.NewError(errs.ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn().Str("username", username).Msg("login: password mismatch")
		return nil, errs.NewError(errs.ErrInvalidCredentials)
	}

	updated, err := s.store.SetOnline(ctx, u.ID, true, s.now())
	if err != nil {
		return nil, errs.NewError(errs.ErrStorage, fmt.Errorf("mark user online: %w", err))
	}

	return s.issue(updated)
}

// Logout marks the user offline and stamps last-seen. Tokens stay valid until expiry.
func (s *Service) Logout(ctx context.Context, id string) error {
	_, err := s.SetOnline(ctx, id, false)
	return err
}

// List returns every user, sanitized.
func (s *Service) List(ctx context.Context) ([]Public, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, errs.NewError(errs.ErrStorage, fmt.Errorf("list users: %w", err))
	}
	return toPublic(users), nil
}

// Search returns users whose username contains query, ignoring case.
func (s *Service) Search(ctx context.Context, query string) ([]Public, error) {
	users, err := s.store.SearchByUsername(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, errs.NewError(errs.ErrStorage, fmt.Errorf("search users: %w", err))
	}
	return toPublic(users), nil
}

// Get returns one sanitized user.
func (s *Service) Get(ctx context.Context, id string) (Public, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Public{}, s.lookupErr(err)
	}
	return u.Public(), nil
}

// SetOnline updates the presence flag and last-seen time.
func (s *Service) SetOnline(ctx context.Context, id string, online bool) (Public, error) {
	u, err := s.store.SetOnline(ctx, id, online, s.now())
	if err != nil {
		return Public{}, s.lookupErr(err)
	}
	return u.Public(), nil
}

func (s *Service) issue(u *User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u.Username, u.ID)
	if err != nil {
		return nil, errs.NewError(errs.ErrUnknown, fmt.Errorf("issue token: %w", err))
	}
	return &AuthResult{Token: token, User: u.Public()}, nil
}

func (s *Service) lookupErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return errs.NewError(errs.ErrUserNotFound)
	}
	return errs.NewError(errs.ErrStorage, err)
}

func toPublic(users []*User) []Public {
	out := make([]Public, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}
