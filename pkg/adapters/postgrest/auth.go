package postgrest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/supabase-community/gotrue-go/types"

	"github.com/aretw0/bookclub/pkg/domain"
)

// Authenticator implements ports.Authenticator and ports.Registrar against GoTrue.
type Authenticator struct {
	client *Client
	now    func() time.Time
}

// NewAuthenticator wraps a client.
func NewAuthenticator(client *Client) *Authenticator {
	return &Authenticator{client: client, now: time.Now}
}

// SignIn exchanges email and password for an access token.
func (a *Authenticator) SignIn(ctx context.Context, email, password string) (domain.AdminSession, error) {
	tok, err := a.client.auth("").SignInWithEmailPassword(email, password)
	if err != nil {
		if code := statusOf(err); code == http.StatusBadRequest || code == http.StatusUnauthorized {
			return domain.AdminSession{}, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
		}
		return domain.AdminSession{}, fmt.Errorf("failed to sign in: %w", err)
	}

	expires := a.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	if tok.ExpiresAt > 0 {
		expires = time.Unix(tok.ExpiresAt, 0)
	}
	return domain.AdminSession{
		Token:     tok.AccessToken,
		UserID:    tok.User.ID.String(),
		Email:     tok.User.Email,
		ExpiresAt: expires.UTC(),
	}, nil
}

// SignOut revokes the token on the backend.
func (a *Authenticator) SignOut(ctx context.Context, token string) error {
	err := a.client.auth(token).Logout()
	if statusOf(err) == http.StatusUnauthorized {
		// Already invalid.
		return nil
	}
	return err
}

// Session resolves the user behind a token. GoTrue does not report the
// expiry here, so the returned session has a zero ExpiresAt.
func (a *Authenticator) Session(ctx context.Context, token string) (domain.AdminSession, error) {
	user, err := a.client.auth(token).GetUser()
	if err != nil {
		if code := statusOf(err); code == http.StatusUnauthorized || code == http.StatusForbidden {
			return domain.AdminSession{}, domain.ErrUnauthorized
		}
		return domain.AdminSession{}, fmt.Errorf("failed to resolve session: %w", err)
	}
	return domain.AdminSession{Token: token, UserID: user.ID.String(), Email: user.Email}, nil
}

// SignUp registers an operator with full name metadata.
func (a *Authenticator) SignUp(ctx context.Context, email, password, fullName string) error {
	_, err := a.client.auth("").Signup(types.SignupRequest{
		Email:    email,
		Password: password,
		Data:     map[string]interface{}{"full_name": fullName},
	})
	if err != nil {
		return fmt.Errorf("failed to sign up: %w", err)
	}
	return nil
}
