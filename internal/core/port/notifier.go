package port

import (
	"context"

	"github.com/arklim/taskboard-auth/internal/core/domain"
)

// ResetNotifier delivers password reset links to account owners.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, msg domain.PasswordResetMessage) error
}
