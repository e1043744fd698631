package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is the lifetime of tokens issued by Authenticator.
const DefaultSessionTTL = time.Hour

type account struct {
	userID   string
	email    string
	fullName string
	hash     []byte
}

// Authenticator implements ports.Authenticator and ports.Registrar with
// bcrypt hashes kept in memory.
type Authenticator struct {
	mu       sync.Mutex
	accounts map[string]account
	sessions map[string]domain.AdminSession
	ttl      time.Duration
	now      func() time.Time
}

// NewAuthenticator creates an empty account set.
func NewAuthenticator() *Authenticator {
	return &Authenticator{
		accounts: make(map[string]account),
		sessions: make(map[string]domain.AdminSession),
		ttl:      DefaultSessionTTL,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp registers an operator account.
func (a *Authenticator) SignUp(ctx context.Context, email, password, fullName string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.accounts[email]; exists {
		return fmt.Errorf("account %s already exists", email)
	}
	a.accounts[email] = account{userID: uuid.NewString(), email: email, fullName: fullName, hash: hash}
	return nil
}

// SignIn checks the password and issues a session token.
func (a *Authenticator) SignIn(ctx context.Context, email, password string) (domain.AdminSession, error) {
	a.mu.Lock()
	acc, ok := a.accounts[normalizeEmail(email)]
	a.mu.Unlock()
	if !ok {
		return domain.AdminSession{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return domain.AdminSession{}, domain.ErrInvalidCredentials
	}

	sess := domain.AdminSession{
		Token:     uuid.NewString(),
		UserID:    acc.userID,
		Email:     acc.email,
		ExpiresAt: a.now().Add(a.ttl).UTC(),
	}
	a.mu.Lock()
	a.sessions[sess.Token] = sess
	a.mu.Unlock()
	return sess, nil
}

// SignOut revokes a token. Unknown tokens are ignored.
func (a *Authenticator) SignOut(ctx context.Context, token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, token)
	return nil
}

// Session resolves a live token.
func (a *Authenticator) Session(ctx context.Context, token string) (domain.AdminSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sess, ok := a.sessions[token]
	if !ok {
		return domain.AdminSession{}, domain.ErrUnauthorized
	}
	if sess.Expired(a.now()) {
		delete(a.sessions, token)
		return domain.AdminSession{}, domain.ErrUnauthorized
	}
	return sess, nil
}
