package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/taskboard-auth/internal/core/domain"
	"github.com/arklim/taskboard-auth/internal/core/port"
	"github.com/arklim/taskboard-auth/internal/repository"
)

// Demo account created by DemoSeeder.
const (
	DemoEmail    = "admin@demo.com"
	DemoUsername = "admin_user"
	DemoPassword = "demopassword"
)

// DemoSeeder makes sure the demo account exists.
type DemoSeeder struct {
	accounts port.AccountRepository
	hasher   port.PasswordHasher
	logger   *zap.Logger
	now      func() time.Time
}

// NewDemoSeeder constructs a DemoSeeder.
func NewDemoSeeder(accounts port.AccountRepository, hasher port.PasswordHasher, logger *zap.Logger) *DemoSeeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DemoSeeder{accounts: accounts, hasher: hasher, logger: logger, now: time.Now}
}

// Seed creates the demo account unless its email or username is already taken.
func (s *DemoSeeder) Seed(ctx context.Context) error {
	for _, identifier := range []string{DemoEmail, DemoUsername} {
		_, err := s.accounts.GetByIdentifier(ctx, identifier)
		if err == nil {
			s.logger.Info("demo account already present")
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return storeError("lookup demo account", err)
		}
	}

	encoded, err := s.hasher.Hash(DemoPassword)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	now := s.now().UTC()
	err = s.accounts.Create(ctx, domain.Account{
		ID:           uuid.NewString(),
		FirstName:    "Admin",
		LastName:     "User",
		Username:     DemoUsername,
		Email:        DemoEmail,
		PasswordHash: encoded,
		Role:         "Administrator",
		Location:     "Global",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	switch {
	case err == nil:
		s.logger.Info("demo account created", zap.String("username", DemoUsername))
		return nil
	case errors.Is(err, repository.ErrDuplicateEmail), errors.Is(err, repository.ErrDuplicateUsername):
		// Another instance seeded concurrently.
		return nil
	default:
		return storeError("create demo account", err)
	}
}
