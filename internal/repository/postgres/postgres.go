package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arklim/taskboard-auth/internal/repository"
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
	connectionExceptionClass  = "08"
	adminShutdown             = "57P01"
	cannotConnectNow          = "57P03"
)

// Unique index names from the migrations.
const (
	emailUniqueIndex    = "accounts_email_key"
	usernameUniqueIndex = "accounts_username_key"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Accounts *AccountRepository
}

// NewRepositories wires all repositories backed by the provided executor (usually a *pgxpool.Pool).
func NewRepositories(exec pgExecutor) *Repositories {
	return &Repositories{
		Accounts: NewAccountRepository(exec),
	}
}

// mapError translates driver errors into repository sentinels and keeps the original for logs.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == uniqueViolation && pgErr.ConstraintName == emailUniqueIndex:
			return fmt.Errorf("%w: %s", repository.ErrDuplicateEmail, pgErr.Message)
		case pgErr.Code == uniqueViolation && pgErr.ConstraintName == usernameUniqueIndex:
			return fmt.Errorf("%w: %s", repository.ErrDuplicateUsername, pgErr.Message)
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == connectionExceptionClass,
			pgErr.Code == adminShutdown,
			pgErr.Code == cannotConnectNow:
			return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
		}
		return err
	}

	if isConnectivityError(err) {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}

	return err
}

func isConnectivityError(err error) bool {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return pgconn.Timeout(err)
}

func isInvalidTextRepresentation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}

func nullableStringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func nullableTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time.UTC()
	return &t
}
