package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/arklim/taskboard-auth/internal/core/domain"
	"github.com/arklim/taskboard-auth/internal/infra/security"
	"github.com/arklim/taskboard-auth/internal/repository"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// memoryAccounts is an in-memory AccountRepository that enforces the same
// uniqueness and expiry rules as the PostgreSQL store.
type memoryAccounts struct {
	mu       sync.Mutex
	accounts map[string]domain.Account

	failWith     error
	touchErr     error
	touchedAt    map[string]time.Time
	createCalls  int
	consumeCalls int
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{
		accounts:  make(map[string]domain.Account),
		touchedAt: make(map[string]time.Time),
	}
}

func (m *memoryAccounts) Create(_ context.Context, account domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.failWith != nil {
		return m.failWith
	}

	account.Email = domain.NormalizeIdentifier(account.Email)
	account.Username = domain.NormalizeIdentifier(account.Username)
	for _, existing := range m.accounts {
		if existing.Email == account.Email {
			return repository.ErrDuplicateEmail
		}
		if existing.Username == account.Username {
			return repository.ErrDuplicateUsername
		}
	}
	m.accounts[account.ID] = account
	return nil
}

func (m *memoryAccounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	account, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &account, nil
}

func (m *memoryAccounts) GetByIdentifier(_ context.Context, identifier string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	normalized := domain.NormalizeIdentifier(identifier)
	var byUsername *domain.Account
	for _, account := range m.accounts {
		a := account
		if a.Email == normalized {
			return &a, nil
		}
		if a.Username == normalized {
			byUsername = &a
		}
	}
	if byUsername != nil {
		return byUsername, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memoryAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	normalized := domain.NormalizeIdentifier(email)
	for _, account := range m.accounts {
		if account.Email == normalized {
			a := account
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryAccounts) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate, at time.Time) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	account, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.Email != nil {
		email := domain.NormalizeIdentifier(*update.Email)
		for otherID, other := range m.accounts {
			if otherID != id && other.Email == email {
				return nil, repository.ErrDuplicateEmail
			}
		}
		account.Email = email
	}
	if update.FirstName != nil {
		account.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		account.LastName = *update.LastName
	}
	if update.Role != nil {
		account.Role = *update.Role
	}
	if update.Location != nil {
		account.Location = *update.Location
	}
	if update.AvatarURL != nil {
		account.AvatarURL = *update.AvatarURL
	}
	account.UpdatedAt = at
	m.accounts[id] = account
	return &account, nil
}

func (m *memoryAccounts) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.touchErr != nil {
		return m.touchErr
	}
	m.touchedAt[id] = at
	return nil
}

func (m *memoryAccounts) SetResetToken(_ context.Context, id string, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	account, ok := m.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.ResetTokenHash = &tokenHash
	account.ResetTokenExpiresAt = &expiresAt
	m.accounts[id] = account
	return nil
}

func (m *memoryAccounts) ClearResetToken(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.ResetTokenHash = nil
	account.ResetTokenExpiresAt = nil
	m.accounts[id] = account
	return nil
}

func (m *memoryAccounts) FindByValidResetToken(_ context.Context, tokenHash string, at time.Time) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, account := range m.accounts {
		if account.ResetTokenHash != nil && *account.ResetTokenHash == tokenHash && account.ResetState(at) == domain.ResetStateIssued {
			a := account
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryAccounts) ConsumeResetToken(_ context.Context, tokenHash string, passwordHash string, at time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consumeCalls++
	for id, account := range m.accounts {
		if account.ResetTokenHash != nil && *account.ResetTokenHash == tokenHash && account.ResetState(at) == domain.ResetStateIssued {
			account.PasswordHash = passwordHash
			account.ResetTokenHash = nil
			account.ResetTokenExpiresAt = nil
			account.UpdatedAt = at
			m.accounts[id] = account
			return id, nil
		}
	}
	return "", repository.ErrNotFound
}

func (m *memoryAccounts) byEmail(t *testing.T, email string) domain.Account {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.Email == email {
			return account
		}
	}
	t.Fatalf("no account with email %q", email)
	return domain.Account{}
}

// plainHasher avoids bcrypt cost in unit tests.
type plainHasher struct {
	mu          sync.Mutex
	verifyCalls int
}

func (h *plainHasher) Hash(password string) (string, error) {
	return "plain$" + password, nil
}

func (h *plainHasher) Verify(password, encoded string) (bool, error) {
	h.mu.Lock()
	h.verifyCalls++
	h.mu.Unlock()
	if !strings.HasPrefix(encoded, "plain$") {
		return false, errors.New("unknown hash format")
	}
	return encoded == "plain$"+password, nil
}

func (h *plainHasher) verifications() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifyCalls
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []domain.PasswordResetMessage
	err      error
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, msg domain.PasswordResetMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return n.err
}

func (n *recordingNotifier) last(t *testing.T) domain.PasswordResetMessage {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		t.Fatalf("expected a reset message to be sent")
	}
	return n.messages[len(n.messages)-1]
}

type recordingEvents struct {
	mu         sync.Mutex
	registered []domain.AccountRegisteredEvent
	requested  []domain.PasswordResetRequestedEvent
	changed    []domain.PasswordChangedEvent
	err        error
}

func (e *recordingEvents) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registered = append(e.registered, event)
	return e.err
}

func (e *recordingEvents) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requested = append(e.requested, event)
	return e.err
}

func (e *recordingEvents) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.changed = append(e.changed, event)
	return e.err
}

type countingOutcomes struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingOutcomes) RecordOutcome(operation, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[operation+"/"+outcome]++
}

func (c *countingOutcomes) get(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key]
}

// testClock is a settable clock shared by the service and the token manager.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type serviceFixture struct {
	svc      *CredentialService
	accounts *memoryAccounts
	hasher   *plainHasher
	notifier *recordingNotifier
	events   *recordingEvents
	outcomes *countingOutcomes
	clock    *testClock
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	clock := &testClock{now: time.Date(2025, 10, 12, 9, 0, 0, 0, time.UTC)}
	accounts := newMemoryAccounts()
	hasher := &plainHasher{}
	notifier := &recordingNotifier{}
	events := &recordingEvents{}
	outcomes := &countingOutcomes{}
	log := zaptest.NewLogger(t)

	sessions, err := security.NewSessionTokenManager(testSecret, "taskboard-auth", 24*time.Hour)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	sessions.WithClock(clock.Now)

	policy := security.NewPasswordPolicy(security.PolicyConfigFor(security.AlgorithmBcrypt, 6, 0))
	resets := NewResetTokenManager(accounts, hasher, policy, log).WithClock(clock.Now)

	svc := NewCredentialService(CredentialDependencies{
		Accounts:    accounts,
		Hasher:      hasher,
		Policy:      policy,
		Sessions:    sessions,
		Resets:      resets,
		Notifier:    notifier,
		Events:      events,
		Outcomes:    outcomes,
		Logger:      log,
		FrontendURL: "http://localhost:3000/",
	}).WithClock(clock.Now)
	svc.dispatch = func(fn func()) { fn() }

	return &serviceFixture{
		svc:      svc,
		accounts: accounts,
		hasher:   hasher,
		notifier: notifier,
		events:   events,
		outcomes: outcomes,
		clock:    clock,
	}
}

func (f *serviceFixture) register(t *testing.T, username, email, password string) domain.Profile {
	t.Helper()
	profile, err := f.svc.Register(context.Background(), RegisterInput{
		FirstName: "A",
		LastName:  "B",
		Username:  username,
		Email:     email,
		Password:  password,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return profile
}

// tokenFromURL extracts the raw reset token from a mailed link.
func tokenFromURL(t *testing.T, url string) string {
	t.Helper()
	idx := strings.LastIndex(url, "/reset-password/")
	if idx < 0 {
		t.Fatalf("unexpected reset url %q", url)
	}
	return url[idx+len("/reset-password/"):]
}
