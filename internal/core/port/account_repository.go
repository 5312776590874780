package port

import (
	"context"
	"time"

	"github.com/arklim/taskboard-auth/internal/core/domain"
)

// AccountRepository exposes persistence behavior for accounts.
// Email and username uniqueness is enforced by the store itself.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByIdentifier matches email or username; an email match wins over a username match.
	GetByIdentifier(ctx context.Context, identifier string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate, at time.Time) (*domain.Account, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	SetResetToken(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error
	// ClearResetToken cancels an outstanding reset token. A successful
	// ConsumeResetToken already clears the token itself.
	ClearResetToken(ctx context.Context, id string) error
	// FindByValidResetToken only matches tokens whose expiry is after at.
	FindByValidResetToken(ctx context.Context, tokenHash string, at time.Time) (*domain.Account, error)
	// ConsumeResetToken stores the new password hash and clears the token in one statement.
	// It returns the account id, or repository.ErrNotFound when the token is unknown,
	// expired or already consumed.
	ConsumeResetToken(ctx context.Context, tokenHash string, passwordHash string, at time.Time) (string, error)
}
