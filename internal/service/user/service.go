package user

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/swift-payments-portal/internal/auth"
	"github.com/josh-kwaku/swift-payments-portal/internal/domain"
	"github.com/josh-kwaku/swift-payments-portal/internal/logging"
	"github.com/josh-kwaku/swift-payments-portal/internal/validation"
)

type Repository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByIdentity(ctx context.Context, username, accountNumber, idNumber string) (bool, error)
}

type Service struct {
	users     Repository
	jwtSecret string
	jwtExpiry time.Duration
	hash      func(password string) (string, error)
	check     func(hash, password string) bool
	now       func() time.Time

	// decoy is compared against on unknown usernames so both login
	// failures cost one bcrypt comparison.
	decoyOnce sync.Once
	decoy     string
}

func NewService(users Repository, jwtSecret string, jwtExpiry time.Duration) *Service {
	return &Service{
		users:     users,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
		hash:      auth.HashPassword,
		check:     auth.CheckPassword,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Session is the outcome of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Register creates a customer account. Role is never taken from the caller.
func (s *Service) Register(ctx context.Context, in validation.RegistrationInput) (*domain.User, error) {
	if err := validation.ValidateRegistration(in); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	u, err := s.create(ctx, in.FullName, in.IDNumber, in.AccountNumber, in.Username, in.Password, domain.RoleCustomer)
	if err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	logging.FromContext(ctx).Info("customer registered", "user_id", u.ID)
	return u, nil
}

// ProvisionEmployee creates a staff account with generated identity and
// account numbers. Employees cannot self-register.
func (s *Service) ProvisionEmployee(ctx context.Context, fullName, username, password string) (*domain.User, error) {
	if err := validation.ValidateEmployee(fullName, username, password); err != nil {
		return nil, fmt.Errorf("ProvisionEmployee: %w", err)
	}

	idNumber, err := generateDigits(employeeIDNumberLength)
	if err != nil {
		return nil, fmt.Errorf("ProvisionEmployee: %w", err)
	}
	accountNumber, err := generateDigits(employeeAccountNumberLength)
	if err != nil {
		return nil, fmt.Errorf("ProvisionEmployee: %w", err)
	}

	u, err := s.create(ctx, fullName, idNumber, accountNumber, username, password, domain.RoleEmployee)
	if err != nil {
		return nil, fmt.Errorf("ProvisionEmployee: %w", err)
	}

	logging.Audit(ctx).Info("employee provisioned", "user_id", u.ID, "username", u.Username)
	return u, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.check(s.decoyHash(), password)
			return nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("Login: %w", err)
	}

	if !s.check(u.PasswordHash, password) {
		logging.FromContext(ctx).Warn("login rejected", "user_id", u.ID)
		return nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
	}

	token, err := auth.GenerateToken(domain.Identity{SubjectID: u.ID, Role: u.Role}, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}

	return &Session{
		Token:     token,
		ExpiresAt: s.now().Add(s.jwtExpiry),
		User:      u,
	}, nil
}

func (s *Service) decoyHash() string {
	s.decoyOnce.Do(func() {
		h, err := s.hash("decoy-password-never-issued")
		if err == nil {
			s.decoy = h
		}
	})
	return s.decoy
}

// Me returns the account behind a resolved identity.
func (s *Service) Me(ctx context.Context, id domain.Identity) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("Me: %w", err)
	}
	return u, nil
}

func (s *Service) create(ctx context.Context, fullName, idNumber, accountNumber, username, password string, role domain.Role) (*domain.User, error) {
	exists, err := s.users.ExistsByIdentity(ctx, username, accountNumber, idNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	u := &domain.User{
		ID:            uuid.New(),
		FullName:      fullName,
		IDNumber:      idNumber,
		AccountNumber: accountNumber,
		Username:      username,
		PasswordHash:  hash,
		Role:          role,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
