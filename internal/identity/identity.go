// Package identity is the identity provider collaborator: token
// verification plus account lifecycle for the user administration
// operations.
package identity

import "context"

// Provider is the external identity service surface this backend depends
// on. The local implementation keeps JWT plus bcrypt credentials in
// process; a hosted provider would satisfy the same interface.
type Provider interface {
	// VerifyToken validates a caller's identity assertion and returns the
	// subject id it was issued to.
	VerifyToken(ctx context.Context, token string) (string, error)
	// CreateUser provisions an account and returns its subject id.
	CreateUser(ctx context.Context, email, password string) (string, error)
	// SetDisabled toggles whether the account may authenticate.
	SetDisabled(ctx context.Context, subjectID string, disabled bool) error
	// DeleteUser removes the account.
	DeleteUser(ctx context.Context, subjectID string) error
}
