package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arklim/taskboard-auth/internal/core/domain"
	"github.com/arklim/taskboard-auth/internal/core/port"
	"github.com/arklim/taskboard-auth/internal/repository"
)

const accountsTable = "auth.accounts"

var accountColumns = []string{
	"id",
	"first_name",
	"last_name",
	"username",
	"email",
	"password_hash",
	"role",
	"location",
	"avatar_url",
	"reset_token_hash",
	"reset_token_expires_at",
	"last_login_at",
	"created_at",
	"updated_at",
}

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAccountRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewAccountRepository(exec pgExecutor) *AccountRepository {
	return &AccountRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *AccountRepository) WithTx(tx pgx.Tx) *AccountRepository {
	if tx == nil {
		return r
	}
	return &AccountRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new account row. Email and username are stored lowercased;
// the unique indexes on lower(email) and lower(username) reject duplicates.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account) error {
	role := account.Role
	if role == "" {
		role = domain.DefaultRole
	}

	stmt, args, err := r.builder.Insert(accountsTable).
		Columns(
			"id",
			"first_name",
			"last_name",
			"username",
			"email",
			"password_hash",
			"role",
			"location",
			"avatar_url",
			"created_at",
			"updated_at",
		).
		Values(
			account.ID,
			account.FirstName,
			account.LastName,
			domain.NormalizeIdentifier(account.Username),
			domain.NormalizeIdentifier(account.Email),
			account.PasswordHash,
			role,
			account.Location,
			account.AvatarURL,
			account.CreatedAt,
			account.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert account sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert account: %w", mapError(err))
	}

	return nil
}

// GetByID retrieves an account by identifier.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From(accountsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	account, err := scanAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if isInvalidTextRepresentation(err) {
			return nil, repository.ErrNotFound
		}
		return nil, wrapScanError("scan account", err)
	}

	return account, nil
}

// GetByIdentifier retrieves an account by email or username, case-insensitively.
// A username may look like somebody else's email; the email owner is returned first.
func (r *AccountRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	normalized := domain.NormalizeIdentifier(identifier)
	if normalized == "" {
		return nil, repository.ErrNotFound
	}

	stmt, args, err := r.builder.
		Select(accountColumns...).
		From(accountsTable).
		Where(squirrel.Or{
			squirrel.Expr("lower(email) = ?", normalized),
			squirrel.Expr("lower(username) = ?", normalized),
		}).
		OrderByClause("lower(email) = ? DESC", normalized).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account by identifier sql: %w", err)
	}

	account, err := scanAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, wrapScanError("scan account by identifier", err)
	}

	return account, nil
}

// GetByEmail retrieves an account by email only, case-insensitively.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	normalized := domain.NormalizeIdentifier(email)
	if normalized == "" {
		return nil, repository.ErrNotFound
	}

	stmt, args, err := r.builder.
		Select(accountColumns...).
		From(accountsTable).
		Where(squirrel.Expr("lower(email) = ?", normalized)).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account by email sql: %w", err)
	}

	account, err := scanAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, wrapScanError("scan account by email", err)
	}

	return account, nil
}

// UpdateProfile applies the non-nil fields of update and returns the stored row.
func (r *AccountRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate, at time.Time) (*domain.Account, error) {
	query := r.builder.Update(accountsTable)

	if update.FirstName != nil {
		query = query.Set("first_name", *update.FirstName)
	}
	if update.LastName != nil {
		query = query.Set("last_name", *update.LastName)
	}
	if update.Email != nil {
		query = query.Set("email", domain.NormalizeIdentifier(*update.Email))
	}
	if update.Role != nil {
		query = query.Set("role", *update.Role)
	}
	if update.Location != nil {
		query = query.Set("location", *update.Location)
	}
	if update.AvatarURL != nil {
		query = query.Set("avatar_url", *update.AvatarURL)
	}

	stmt, args, err := query.
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		Suffix(returningAccountColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update profile sql: %w", err)
	}

	account, err := scanAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if isInvalidTextRepresentation(err) {
			return nil, repository.ErrNotFound
		}
		return nil, wrapScanError("update profile", err)
	}

	return account, nil
}

// TouchLastLogin records the time of the latest successful login.
func (r *AccountRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.Update(accountsTable).
		Set("last_login_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build touch last login sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("touch last login: %w", mapError(err))
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetResetToken stores a reset token hash and its expiry, replacing any previous token.
func (r *AccountRepository) SetResetToken(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error {
	stmt, args, err := r.builder.Update(accountsTable).
		Set("reset_token_hash", tokenHash).
		Set("reset_token_expires_at", expiresAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set reset token sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("set reset token: %w", mapError(err))
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ClearResetToken removes any reset token from the account. ConsumeResetToken
// clears the token in its own statement and does not need this.
func (r *AccountRepository) ClearResetToken(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Update(accountsTable).
		Set("reset_token_hash", nil).
		Set("reset_token_expires_at", nil).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear reset token sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("clear reset token: %w", mapError(err))
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// FindByValidResetToken returns the account holding tokenHash if it expires after at.
// Expired tokens are filtered by the query itself.
func (r *AccountRepository) FindByValidResetToken(ctx context.Context, tokenHash string, at time.Time) (*domain.Account, error) {
	stmt, args, err := r.builder.
		Select(accountColumns...).
		From(accountsTable).
		Where(squirrel.Eq{"reset_token_hash": tokenHash}).
		Where(squirrel.Gt{"reset_token_expires_at": at}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account by reset token sql: %w", err)
	}

	account, err := scanAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, wrapScanError("scan account by reset token", err)
	}

	return account, nil
}

// ConsumeResetToken sets the new password hash and clears the token in a single conditional
// UPDATE. Of several concurrent calls with the same token at most one matches a row.
func (r *AccountRepository) ConsumeResetToken(ctx context.Context, tokenHash string, passwordHash string, at time.Time) (string, error) {
	stmt, args, err := r.builder.Update(accountsTable).
		Set("password_hash", passwordHash).
		Set("reset_token_hash", nil).
		Set("reset_token_expires_at", nil).
		Set("updated_at", at).
		Where(squirrel.Eq{"reset_token_hash": tokenHash}).
		Where(squirrel.Gt{"reset_token_expires_at": at}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build consume reset token sql: %w", err)
	}

	var id string
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		return "", wrapScanError("consume reset token", err)
	}

	return id, nil
}

func returningAccountColumns() string {
	suffix := "RETURNING "
	for i, col := range accountColumns {
		if i > 0 {
			suffix += ", "
		}
		suffix += col
	}
	return suffix
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account        domain.Account
		resetTokenHash sql.NullString
		resetExpiresAt sql.NullTime
		lastLoginAt    sql.NullTime
	)

	if err := row.Scan(
		&account.ID,
		&account.FirstName,
		&account.LastName,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.Location,
		&account.AvatarURL,
		&resetTokenHash,
		&resetExpiresAt,
		&lastLoginAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}

	account.ResetTokenHash = nullableStringPtr(resetTokenHash)
	account.ResetTokenExpiresAt = nullableTimePtr(resetExpiresAt)
	account.LastLoginAt = nullableTimePtr(lastLoginAt)

	return &account, nil
}

func wrapScanError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, mapError(err))
}

var _ port.AccountRepository = (*AccountRepository)(nil)
