package ports

import (
	"context"

	"github.com/aretw0/bookclub/pkg/domain"
)

// Authenticator is the session-based login collaborator of the admin dashboard.
type Authenticator interface {
	// SignIn exchanges credentials for a session.
	// Returns domain.ErrInvalidCredentials when they do not match.
	SignIn(ctx context.Context, email, password string) (domain.AdminSession, error)

	// SignOut revokes the session behind the token.
	SignOut(ctx context.Context, token string) error

	// Session resolves a token to its session.
	// Returns domain.ErrUnauthorized when the token is unknown or expired.
	Session(ctx context.Context, token string) (domain.AdminSession, error)
}

// Registrar is implemented by authenticators that can create operators.
type Registrar interface {
	SignUp(ctx context.Context, email, password, fullName string) error
}
