package notify

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/alanyoungcy/vexorbot/internal/domain"
)

var secretField = regexp.MustCompile(`(Private Key:\s*)(<code>)?[^<\n]*(</code>)?`)

// AuditSender records every operator notice in the audit store under its
// event type. Wallet secrets are redacted before they are written.
type AuditSender struct {
	store domain.AuditStore
}

// NewAuditSender creates an AuditSender backed by store.
func NewAuditSender(store domain.AuditStore) *AuditSender {
	return &AuditSender{store: store}
}

// Send appends the notification to the audit log.
func (a *AuditSender) Send(ctx context.Context, n Notice) error {
	detail := map[string]any{
		"id":      uuid.NewString(),
		"title":   n.Title,
		"message": redactSecrets(n.Message),
	}
	if err := a.store.Log(ctx, n.Event, detail); err != nil {
		return fmt.Errorf("audit: log notice: %w", err)
	}
	return nil
}

// Name returns the sender identifier.
func (a *AuditSender) Name() string {
	return "audit"
}

func redactSecrets(s string) string {
	return secretField.ReplaceAllString(s, "${1}[redacted]")
}
