// Package useradmin implements the callable user administration
// operations: create, enable/disable, delete. Every operation verifies the
// caller's identity assertion and checks the manage-users permission on
// their stored profile before touching the identity provider or the record
// store.
package useradmin

import (
	"context"
	"fmt"
	"log/slog"

	"ludendorff/internal/docstore"
	"ludendorff/internal/identity"
	"ludendorff/internal/mail"
	dErrors "ludendorff/pkg/domain-errors"
	"ludendorff/pkg/randid"
)

const (
	// PermManageUsers gates all user administration operations.
	PermManageUsers = 16
	// PermSuperuser passes every permission check.
	PermSuperuser = 32

	passwordLength = 8
	mailSubject    = "Your New Ludendorff Account"
)

type Service struct {
	records     docstore.Store
	identity    identity.Provider
	mail        mail.Sender
	source      string // From address for account mail
	logger      *slog.Logger
	newPassword func() string
}

type Option func(*Service)

// WithPasswordFunc overrides password generation. Tests only.
func WithPasswordFunc(fn func() string) Option {
	return func(s *Service) { s.newPassword = fn }
}

func New(records docstore.Store, provider identity.Provider, sender mail.Sender, source string, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		records:  records,
		identity: provider,
		mail:     sender,
		source:   source,
		logger:   logger,
		newPassword: func() string {
			return randid.Password(passwordLength)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewUser are the profile fields for a created account.
type NewUser struct {
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Position    string `json:"position"`
	Permissions []int  `json:"permissions"`
}

// Create provisions an identity, stores the profile record, and mails the
// generated password to the new user.
func (s *Service) Create(ctx context.Context, token string, user NewUser) error {
	if _, err := s.authorize(ctx, token); err != nil {
		return err
	}

	password := s.newPassword()
	subjectID, err := s.identity.CreateUser(ctx, user.Email, password)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("create user: %v", err))
	}

	perms := make([]any, len(user.Permissions))
	for i, p := range user.Permissions {
		perms[i] = p
	}
	// Administrative writes carry no actor field, so the audit trail skips
	// them by the missing-actor rule.
	record := docstore.Document{
		"userId":      subjectID,
		"email":       user.Email,
		"firstName":   user.FirstName,
		"lastName":    user.LastName,
		"position":    user.Position,
		"permissions": perms,
		"disabled":    false,
	}
	if err := s.records.Set(ctx, "users/"+subjectID, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("store user record: %v", err))
	}

	msg := mail.Message{
		From:     s.source,
		To:       user.Email,
		Subject:  mailSubject,
		HTMLBody: fmt.Sprintf("Use this password for your account: <strong>%s</strong>", password),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("send account mail: %v", err))
	}

	s.logger.InfoContext(ctx, "user created", "userId", subjectID)
	return nil
}

// Modify toggles an account's disabled state in the identity provider and
// mirrors it onto the stored profile.
func (s *Service) Modify(ctx context.Context, token, userID string, disabled bool) error {
	if _, err := s.authorize(ctx, token); err != nil {
		return err
	}

	if err := s.identity.SetDisabled(ctx, userID, disabled); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("update account: %v", err))
	}
	if err := s.records.Update(ctx, "users/"+userID, docstore.Document{"disabled": disabled}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("update user record: %v", err))
	}

	s.logger.InfoContext(ctx, "user modified", "userId", userID, "disabled", disabled)
	return nil
}

// Delete removes the account and its profile record.
func (s *Service) Delete(ctx context.Context, token, userID string) error {
	if _, err := s.authorize(ctx, token); err != nil {
		return err
	}

	if err := s.identity.DeleteUser(ctx, userID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("delete account: %v", err))
	}
	if err := s.records.Delete(ctx, "users/"+userID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("delete user record: %v", err))
	}

	s.logger.InfoContext(ctx, "user deleted", "userId", userID)
	return nil
}

// authorize verifies the caller's token and requires the manage-users
// permission (or superuser) on their stored profile.
func (s *Service) authorize(ctx context.Context, token string) (string, error) {
	subjectID, err := s.identity.VerifyToken(ctx, token)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}

	profile, err := s.records.Get(ctx, "users/"+subjectID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeForbidden, "permission denied")
	}
	if !HasPermission(profile["permissions"], PermManageUsers) {
		return "", dErrors.New(dErrors.CodeForbidden, "permission denied")
	}
	return subjectID, nil
}

// HasPermission reports whether the raw permissions value (as stored on a
// user record) includes perm or the superuser bit.
func HasPermission(raw any, perm int) bool {
	for _, p := range permissionsOf(raw) {
		if p == perm || p == PermSuperuser {
			return true
		}
	}
	return false
}

// permissionsOf normalizes the stored permissions array. JSON decoding
// yields []any of float64; tests may store []int directly.
func permissionsOf(raw any) []int {
	switch vals := raw.(type) {
	case []int:
		return vals
	case []any:
		out := make([]int, 0, len(vals))
		for _, v := range vals {
			switch n := v.(type) {
			case float64:
				out = append(out, int(n))
			case int:
				out = append(out, n)
			}
		}
		return out
	default:
		return nil
	}
}
