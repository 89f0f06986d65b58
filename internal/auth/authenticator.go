// Package auth implements identity for the ledger service: password-based
// accounts and JWT session tokens. It supplies the payer and settler IDs;
// the ledger core itself never touches tokens.
package auth

import (
	"context"

	"github.com/splitbook/splitbook/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction keeps the service layer independent of the auth method
// (password, OAuth, passkeys).
type Authenticator interface {
	// Register creates a new user account. The credential format depends
	// on the implementation; for passwords it is the plaintext password.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies credentials and returns the user if valid.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks whether the credential meets the
	// implementation's requirements before any account is created.
	ValidateCredential(credential string) error
}
