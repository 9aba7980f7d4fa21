// Package notification delivers best-effort outbound messages. Nothing in
// here may affect persisted state; failures are logged and dropped.
package notification

import "context"

const (
	TemplateTutorWelcome      = "tutor_welcome"
	TemplateTutorConfirmation = "tutor_confirmation"
)

type Notifier interface {
	Send(ctx context.Context, to, template string, data map[string]string) error
}
