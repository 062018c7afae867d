package api

import (
	"context"

	"roundtable/internal/identity"
)

// ResetMailer delivers password-reset emails. Delivery is an external
// collaborator; the default implementation is a no-op so token issuance
// works without a configured provider.
type ResetMailer interface {
	SendResetEmail(ctx context.Context, user identity.User, token string) error
}

// NoopResetMailer is the default mailer.
type NoopResetMailer struct{}

func (NoopResetMailer) SendResetEmail(_ context.Context, _ identity.User, _ string) error {
	return nil
}
