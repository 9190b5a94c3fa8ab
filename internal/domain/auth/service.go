package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const minPasswordLength = 8

type Service struct {
	Store    *Store
	secret   string
	tokenTTL time.Duration
}

func NewService(store *Store, secret string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &Service{Store: store, secret: secret, tokenTTL: tokenTTL}
}

func (s *Service) Secret() string {
	return s.secret
}

func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = RoleUser
	}
	if !ValidRole(in.Role) {
		return User{}, ErrInvalidRole
	}
	if len(in.Password) < minPasswordLength {
		return User{}, ErrWeakPassword
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	u := User{
		ID:        uuid.NewString(),
		Username:  in.Username,
		Email:     in.Email,
		Role:      in.Role,
		Name:      strings.TrimSpace(in.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.Create(ctx, u, hash); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	return s.Store.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.Store.List(ctx)
}

func (s *Service) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (User, error) {
	u, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if in.Username != nil {
		u.Username = strings.TrimSpace(*in.Username)
	}
	if in.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Role != nil && *in.Role != u.Role {
		if !ValidRole(*in.Role) {
			return User{}, ErrInvalidRole
		}
		if u.Role == RoleAdmin {
			if err := s.ensureAnotherAdmin(ctx); err != nil {
				return User{}, err
			}
		}
		u.Role = *in.Role
	}

	var hash *string
	if in.Password != nil {
		if len(*in.Password) < minPasswordLength {
			return User{}, ErrWeakPassword
		}
		hashed, err := HashPassword(*in.Password)
		if err != nil {
			return User{}, err
		}
		hash = &hashed
	}
	u.UpdatedAt = time.Now().UTC()
	if err := s.Store.Update(ctx, u, hash); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	u, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Role == RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return err
		}
	}
	return s.Store.Delete(ctx, id)
}

func (s *Service) ensureAnotherAdmin(ctx context.Context) error {
	admins, err := s.Store.CountByRole(ctx, RoleAdmin)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}

// ValidateCredentials accepts a username or email.
func (s *Service) ValidateCredentials(ctx context.Context, login, password string) (User, error) {
	u, hash, err := s.Store.GetByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := CheckPassword(hash, password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, login, password string) (LoginResult, error) {
	u, err := s.ValidateCredentials(ctx, login, password)
	if err != nil {
		return LoginResult{}, err
	}
	token, err := GenerateToken(s.secret, Claims{UserID: u.ID, Role: u.Role, Name: u.Name, Username: u.Username}, s.tokenTTL)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}
	return LoginResult{Token: token, ExpiresAt: time.Now().Add(s.tokenTTL).UTC(), User: u}, nil
}

func (s *Service) NeedsSetup(ctx context.Context) (bool, error) {
	count, err := s.Store.Count(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// Setup creates the first admin account. It is refused once any user exists.
func (s *Service) Setup(ctx context.Context, in CreateUserInput) (User, error) {
	needed, err := s.NeedsSetup(ctx)
	if err != nil {
		return User{}, err
	}
	if !needed {
		return User{}, ErrSetupComplete
	}
	in.Role = RoleAdmin
	return s.CreateUser(ctx, in)
}

// EnsureAdmin creates the seed admin when both email and password are set
// and no user with that login exists yet.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	if strings.TrimSpace(username) == "" {
		username = "admin"
	}
	_, _, err := s.Store.GetByLogin(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	if _, err := s.CreateUser(ctx, CreateUserInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     RoleAdmin,
		Name:     "Administrator",
	}); err != nil {
		return err
	}
	zap.L().Info("seed admin created", zap.String("email", email))
	return nil
}
