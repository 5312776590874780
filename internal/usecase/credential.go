package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/taskboard-auth/internal/core/domain"
	"github.com/arklim/taskboard-auth/internal/core/port"
	"github.com/arklim/taskboard-auth/internal/infra/logger"
	"github.com/arklim/taskboard-auth/internal/repository"
)

const (
	defaultNotifyTimeout = 30 * time.Second
	timingDummyPassword  = "taskboard-timing-equalizer"
)

// Outcome labels reported to the OutcomeRecorder.
const (
	outcomeSuccess            = "success"
	outcomeInvalidInput       = "invalid_input"
	outcomeDuplicateEmail     = "duplicate_email"
	outcomeDuplicateUsername  = "duplicate_username"
	outcomeInvalidCredentials = "invalid_credentials"
	outcomeUnknownAccount     = "unknown_account"
	outcomeInvalidToken       = "invalid_token"
	outcomeError              = "error"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CredentialDependencies lists the collaborators of CredentialService.
type CredentialDependencies struct {
	Accounts port.AccountRepository
	Hasher   port.PasswordHasher
	Policy   port.PasswordPolicyValidator
	Sessions port.SessionTokens
	Resets   *ResetTokenManager
	Notifier port.ResetNotifier
	Events   port.EventPublisher
	Outcomes port.OutcomeRecorder
	Logger   *zap.Logger

	// FrontendURL is the base of the reset link sent by mail.
	FrontendURL string
	// NotifyTimeout bounds the background mail delivery.
	NotifyTimeout time.Duration
}

// CredentialService orchestrates registration, login, password recovery and profile access.
type CredentialService struct {
	accounts      port.AccountRepository
	hasher        port.PasswordHasher
	policy        port.PasswordPolicyValidator
	sessions      port.SessionTokens
	resets        *ResetTokenManager
	notifier      port.ResetNotifier
	events        port.EventPublisher
	outcomes      port.OutcomeRecorder
	logger        *zap.Logger
	now           func() time.Time
	newID         func() string
	dispatch      func(func())
	frontendURL   string
	notifyTimeout time.Duration

	dummyOnce sync.Once
	dummyHash string
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// LoginInput carries a login attempt. Identifier is an email or a username.
type LoginInput struct {
	Identifier string
	Password   string
	IP         string
	UserAgent  string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Profile   domain.Profile
}

// ForgotPasswordInput carries a password reset request.
type ForgotPasswordInput struct {
	Email     string
	IP        string
	UserAgent string
}

// ResetPasswordInput carries the redemption of a reset token.
type ResetPasswordInput struct {
	Token     string
	Password  string
	IP        string
	UserAgent string
}

// ProfileUpdateInput lists the editable profile fields; nil leaves a field unchanged.
// Name is split into first name (first word) and last name (the rest).
type ProfileUpdateInput struct {
	Name     *string
	Email    *string
	Role     *string
	Location *string
	Avatar   *string
}

// NewCredentialService constructs a CredentialService.
func NewCredentialService(deps CredentialDependencies) *CredentialService {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	outcomes := deps.Outcomes
	if outcomes == nil {
		outcomes = port.NopOutcomeRecorder{}
	}
	notifyTimeout := deps.NotifyTimeout
	if notifyTimeout <= 0 {
		notifyTimeout = defaultNotifyTimeout
	}
	resets := deps.Resets
	if resets == nil {
		resets = NewResetTokenManager(deps.Accounts, deps.Hasher, deps.Policy, log)
	}

	return &CredentialService{
		accounts:      deps.Accounts,
		hasher:        deps.Hasher,
		policy:        deps.Policy,
		sessions:      deps.Sessions,
		resets:        resets,
		notifier:      deps.Notifier,
		events:        deps.Events,
		outcomes:      outcomes,
		logger:        log,
		now:           time.Now,
		newID:         uuid.NewString,
		dispatch:      func(fn func()) { go fn() },
		frontendURL:   strings.TrimRight(strings.TrimSpace(deps.FrontendURL), "/"),
		notifyTimeout: notifyTimeout,
	}
}

// WithClock overrides the time source used for timestamps.
func (s *CredentialService) WithClock(now func() time.Time) *CredentialService {
	if now != nil {
		s.now = now
	}
	return s
}

// Register creates an account. The password is hashed before it reaches the store.
func (s *CredentialService) Register(ctx context.Context, input RegisterInput) (domain.Profile, error) {
	log := logger.Scoped(ctx, s.logger)

	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	username := domain.NormalizeIdentifier(input.Username)
	email := domain.NormalizeIdentifier(input.Email)

	if firstName == "" || lastName == "" || username == "" || email == "" || input.Password == "" {
		s.outcomes.RecordOutcome("register", outcomeInvalidInput)
		return domain.Profile{}, newValidationError("", MsgFieldsRequired)
	}
	if !emailPattern.MatchString(email) {
		s.outcomes.RecordOutcome("register", outcomeInvalidInput)
		return domain.Profile{}, newValidationError("email", MsgInvalidEmail)
	}

	pctx := domain.PasswordContext{Username: username, Email: email, FirstName: firstName, LastName: lastName}
	if err := validatePassword(s.policy, input.Password, pctx); err != nil {
		s.outcomes.RecordOutcome("register", outcomeInvalidInput)
		return domain.Profile{}, err
	}

	encoded, err := hashPassword(s.hasher, input.Password)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			s.outcomes.RecordOutcome("register", outcomeInvalidInput)
		}
		return domain.Profile{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	account := domain.Account{
		ID:           s.newID(),
		FirstName:    firstName,
		LastName:     lastName,
		Username:     username,
		Email:        email,
		PasswordHash: encoded,
		Role:         domain.DefaultRole,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			s.outcomes.RecordOutcome("register", outcomeDuplicateEmail)
			log.Info("registration rejected: email taken", zap.String("email", logger.MaskEmail(email)))
			return domain.Profile{}, fmt.Errorf("create account: %w", ErrDuplicateIdentity)
		case errors.Is(err, repository.ErrDuplicateUsername):
			s.outcomes.RecordOutcome("register", outcomeDuplicateUsername)
			log.Info("registration rejected: username taken", zap.String("username", logger.MaskString(username)))
			return domain.Profile{}, fmt.Errorf("create account: %w", ErrDuplicateIdentity)
		}
		s.outcomes.RecordOutcome("register", outcomeError)
		return domain.Profile{}, storeError("create account", err)
	}

	s.outcomes.RecordOutcome("register", outcomeSuccess)
	log.Info("account registered", zap.String("account_id", account.ID), zap.String("email", logger.MaskEmail(email)))

	s.publish(ctx, "account.registered", func(ctx context.Context) error {
		return s.events.PublishAccountRegistered(ctx, domain.AccountRegisteredEvent{
			EventID:      s.newID(),
			AccountID:    account.ID,
			Username:     account.Username,
			Email:        account.Email,
			RegisteredAt: now,
			Metadata:     requestMetadata(input.IP, input.UserAgent),
		})
	})

	return account.Profile(), nil
}

// Login authenticates by email or username and issues a session token.
// Unknown identifiers and wrong passwords are indistinguishable to the caller.
func (s *CredentialService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	log := logger.Scoped(ctx, s.logger)

	identifier := domain.NormalizeIdentifier(input.Identifier)
	if identifier == "" || input.Password == "" {
		s.outcomes.RecordOutcome("login", outcomeInvalidInput)
		return LoginResult{}, newValidationError("", MsgLoginFieldsRequired)
	}

	account, err := s.accounts.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.equalizeTiming(input.Password)
			s.outcomes.RecordOutcome("login", outcomeUnknownAccount)
			return LoginResult{}, ErrInvalidCredentials
		}
		s.outcomes.RecordOutcome("login", outcomeError)
		return LoginResult{}, storeError("lookup account", err)
	}

	ok, err := s.hasher.Verify(input.Password, account.PasswordHash)
	if err != nil {
		log.Error("stored password hash could not be verified", zap.String("account_id", account.ID), zap.Error(err))
		ok = false
	}
	if !ok {
		s.outcomes.RecordOutcome("login", outcomeInvalidCredentials)
		return LoginResult{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	token, expiresAt, err := s.sessions.Issue(account.ID, account.Email, now)
	if err != nil {
		s.outcomes.RecordOutcome("login", outcomeError)
		return LoginResult{}, fmt.Errorf("issue session token: %w", err)
	}

	if err := s.accounts.TouchLastLogin(ctx, account.ID, now); err != nil {
		log.Warn("failed to record last login", zap.String("account_id", account.ID), zap.Error(err))
	}

	s.outcomes.RecordOutcome("login", outcomeSuccess)
	log.Info("login succeeded", zap.String("account_id", account.ID), zap.String("ip", logger.MaskIP(input.IP)))

	return LoginResult{Token: token, ExpiresAt: expiresAt, Profile: account.Profile()}, nil
}

// ForgotPassword issues a reset token for the account registered under email and mails the link.
// It returns nil whether or not the account exists; delivery runs in the background.
func (s *CredentialService) ForgotPassword(ctx context.Context, input ForgotPasswordInput) error {
	log := logger.Scoped(ctx, s.logger)

	email := domain.NormalizeIdentifier(input.Email)
	if email == "" {
		s.outcomes.RecordOutcome("forgot_password", outcomeInvalidInput)
		return newValidationError("email", MsgEmailRequired)
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.outcomes.RecordOutcome("forgot_password", outcomeUnknownAccount)
			return nil
		}
		s.outcomes.RecordOutcome("forgot_password", outcomeError)
		return storeError("lookup account", err)
	}

	issued, err := s.resets.Issue(ctx, account.ID)
	if err != nil {
		s.outcomes.RecordOutcome("forgot_password", outcomeError)
		return fmt.Errorf("issue reset token: %w", err)
	}

	msg := domain.PasswordResetMessage{
		To:        account.Email,
		FirstName: account.FirstName,
		ResetURL:  s.resetURL(issued.Token),
		ExpiresAt: issued.ExpiresAt,
		ValidFor:  s.resets.TTL(),
	}
	s.deliverReset(ctx, account.ID, msg)

	s.outcomes.RecordOutcome("forgot_password", outcomeSuccess)
	log.Info("password reset issued", zap.String("account_id", account.ID), zap.Time("expires_at", issued.ExpiresAt))

	s.publish(ctx, "password.reset_requested", func(ctx context.Context) error {
		return s.events.PublishPasswordResetRequested(ctx, domain.PasswordResetRequestedEvent{
			EventID:           s.newID(),
			AccountID:         account.ID,
			RequestedAt:       s.now().UTC(),
			MaskedDestination: logger.MaskEmail(account.Email),
			ExpiresAt:         issued.ExpiresAt,
			Metadata:          requestMetadata(input.IP, input.UserAgent),
		})
	})

	return nil
}

// ResetPassword redeems a reset token and sets the new password.
func (s *CredentialService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	log := logger.Scoped(ctx, s.logger)

	accountID, err := s.resets.Consume(ctx, input.Token, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidOrExpiredToken):
			s.outcomes.RecordOutcome("reset_password", outcomeInvalidToken)
		case errors.Is(err, ErrValidation):
			s.outcomes.RecordOutcome("reset_password", outcomeInvalidInput)
		default:
			s.outcomes.RecordOutcome("reset_password", outcomeError)
		}
		return err
	}

	s.outcomes.RecordOutcome("reset_password", outcomeSuccess)
	log.Info("password reset completed", zap.String("account_id", accountID))

	s.publish(ctx, "password.changed", func(ctx context.Context) error {
		return s.events.PublishPasswordChanged(ctx, domain.PasswordChangedEvent{
			EventID:   s.newID(),
			AccountID: accountID,
			ChangedAt: s.now().UTC(),
			ChangedBy: "password_reset",
			Metadata:  requestMetadata(input.IP, input.UserAgent),
		})
	})

	return nil
}

// VerifySession validates a bearer token and returns its claims.
func (s *CredentialService) VerifySession(_ context.Context, token string) (domain.SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.SessionClaims{}, ErrInvalidOrExpiredToken
	}
	claims, err := s.sessions.Verify(token)
	if err != nil {
		return domain.SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidOrExpiredToken, err)
	}
	return claims, nil
}

// GetProfile returns the profile of the authenticated account.
func (s *CredentialService) GetProfile(ctx context.Context, accountID string) (domain.Profile, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Profile{}, ErrNotFound
		}
		return domain.Profile{}, storeError("load profile", err)
	}
	return account.Profile(), nil
}

// UpdateProfile applies the given fields. Password and username cannot be changed here.
func (s *CredentialService) UpdateProfile(ctx context.Context, accountID string, input ProfileUpdateInput) (domain.Profile, error) {
	update, err := buildProfileUpdate(input)
	if err != nil {
		s.outcomes.RecordOutcome("update_profile", outcomeInvalidInput)
		return domain.Profile{}, err
	}

	account, err := s.accounts.UpdateProfile(ctx, accountID, update, s.now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return domain.Profile{}, ErrNotFound
		case errors.Is(err, repository.ErrDuplicateEmail):
			s.outcomes.RecordOutcome("update_profile", outcomeDuplicateEmail)
			return domain.Profile{}, fmt.Errorf("update profile: %w", ErrDuplicateIdentity)
		}
		s.outcomes.RecordOutcome("update_profile", outcomeError)
		return domain.Profile{}, storeError("update profile", err)
	}

	log := logger.Scoped(ctx, s.logger)
	// A pending reset link was mailed to the previous address.
	if update.Email != nil && account.ResetTokenHash != nil {
		if err := s.accounts.ClearResetToken(ctx, accountID); err != nil {
			log.Warn("failed to cancel pending password reset", zap.String("account_id", accountID), zap.Error(err))
		}
	}

	s.outcomes.RecordOutcome("update_profile", outcomeSuccess)
	log.Info("profile updated", zap.String("account_id", accountID))

	return account.Profile(), nil
}

func buildProfileUpdate(input ProfileUpdateInput) (domain.ProfileUpdate, error) {
	var update domain.ProfileUpdate

	if input.Name != nil {
		first, last := domain.SplitDisplayName(*input.Name)
		if first == "" {
			return update, newValidationError("name", MsgFieldsRequired)
		}
		if last == "" {
			return update, newValidationError("name", MsgNameNeedsLastName)
		}
		update.FirstName = &first
		update.LastName = &last
	}

	if input.Email != nil {
		email := domain.NormalizeIdentifier(*input.Email)
		if !emailPattern.MatchString(email) {
			return update, newValidationError("email", MsgInvalidEmail)
		}
		update.Email = &email
	}

	if input.Role != nil {
		if role := strings.TrimSpace(*input.Role); role != "" {
			update.Role = &role
		}
	}
	if input.Location != nil {
		location := strings.TrimSpace(*input.Location)
		update.Location = &location
	}
	if input.Avatar != nil {
		avatar := strings.TrimSpace(*input.Avatar)
		update.AvatarURL = &avatar
	}

	if update.IsEmpty() {
		return update, newValidationError("", MsgNothingToUpdate)
	}
	return update, nil
}

func (s *CredentialService) resetURL(token string) string {
	return s.frontendURL + "/reset-password/" + token
}

// deliverReset hands msg to the notifier without blocking the caller.
// Failures are logged and never reach the response.
func (s *CredentialService) deliverReset(ctx context.Context, accountID string, msg domain.PasswordResetMessage) {
	if s.notifier == nil {
		return
	}
	bg := context.WithoutCancel(ctx)
	log := logger.Scoped(ctx, s.logger)

	s.dispatch(func() {
		sendCtx, cancel := context.WithTimeout(bg, s.notifyTimeout)
		defer cancel()
		if err := s.notifier.SendPasswordReset(sendCtx, msg); err != nil {
			log.Warn("password reset mail not delivered",
				zap.String("account_id", accountID),
				zap.String("to", logger.MaskEmail(msg.To)),
				zap.Error(err),
			)
		}
	})
}

func (s *CredentialService) publish(ctx context.Context, name string, send func(context.Context) error) {
	if s.events == nil {
		return
	}
	if err := send(ctx); err != nil {
		logger.Scoped(ctx, s.logger).Warn("failed to publish event", zap.String("event", name), zap.Error(err))
	}
}

// equalizeTiming runs one hash verification so unknown identifiers cost as much as wrong passwords.
func (s *CredentialService) equalizeTiming(password string) {
	s.dummyOnce.Do(func() {
		encoded, err := s.hasher.Hash(timingDummyPassword)
		if err != nil {
			s.logger.Warn("failed to prepare timing hash", zap.Error(err))
			return
		}
		s.dummyHash = encoded
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}

func requestMetadata(ip, userAgent string) map[string]any {
	metadata := make(map[string]any, 2)
	if ip != "" {
		metadata["ip"] = ip
	}
	if userAgent != "" {
		metadata["user_agent"] = userAgent
	}
	return metadata
}
