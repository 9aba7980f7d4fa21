package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/korelearn/tutor-management/internal/core/events"
)

// Dispatcher subscribes to provisioning events and turns them into outbound
// notifications. It runs on the async side of the event bus, so a delivery
// failure can never roll back or delay the provisioning saga.
type Dispatcher struct {
	notifier Notifier
	baseURL  string
	logger   *slog.Logger
}

func NewDispatcher(notifier Notifier, baseURL string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		baseURL:  baseURL,
		logger:   logger,
	}
}

func (d *Dispatcher) HandleTutorProvisioned(ctx context.Context, event events.Event) error {
	provisioned, ok := event.(*events.TutorProvisionedEvent)
	if !ok {
		return fmt.Errorf("expected TutorProvisionedEvent, got %T", event)
	}

	data := map[string]string{
		"first_name": provisioned.FirstName,
		"email":      provisioned.Email,
		"login_url":  d.baseURL + "/login",
	}

	template := TemplateTutorConfirmation
	if provisioned.NewIdentity {
		template = TemplateTutorWelcome
		data["password"] = provisioned.Credential
	}

	if err := d.notifier.Send(ctx, provisioned.Email, template, data); err != nil {
		d.logger.Error("welcome notification failed",
			"email", provisioned.Email,
			"payment_reference", provisioned.PaymentReference,
			"error", err)
		return err
	}

	d.logger.Info("welcome notification dispatched",
		"email", provisioned.Email,
		"template", template)
	return nil
}

func (d *Dispatcher) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeTutorProvisioned, d.HandleTutorProvisioned)

	d.logger.Info("notification event handlers registered",
		"handlers", []string{events.EventTypeTutorProvisioned})
}
