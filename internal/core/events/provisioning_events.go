package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeTutorProvisioned   = "tutor.provisioned"
	EventTypePaymentFailed      = "payment.failed"
	EventTypeProvisioningFailed = "provisioning.failed"
)

// TutorProvisionedEvent is published once a tutor identity and its dependent
// records exist. Credential is the one-time generated password; it is carried
// only so the welcome notification can deliver it and is never persisted.
type TutorProvisionedEvent struct {
	BaseEvent
	UserID           string `json:"user_id"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	Credential       string `json:"-"`
	PaymentReference string `json:"payment_reference"`
	NewIdentity      bool   `json:"new_identity"`
}

func NewTutorProvisionedEvent(userID, email, firstName, credential, reference string, newIdentity bool) *TutorProvisionedEvent {
	return &TutorProvisionedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeTutorProvisioned,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":           userID,
				"email":             email,
				"payment_reference": reference,
				"new_identity":      newIdentity,
			},
		},
		UserID:           userID,
		Email:            email,
		FirstName:        firstName,
		Credential:       credential,
		PaymentReference: reference,
		NewIdentity:      newIdentity,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	ApplicationID    string `json:"application_id"`
	PaymentReference string `json:"payment_reference"`
	Amount           int64  `json:"amount"`
}

func NewPaymentFailedEvent(applicationID, reference string, amount int64) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"application_id":    applicationID,
				"payment_reference": reference,
				"amount":            amount,
			},
		},
		ApplicationID:    applicationID,
		PaymentReference: reference,
		Amount:           amount,
	}
}

// ProvisioningFailedEvent mirrors the operator-facing error record so
// monitoring hooks can alert on it without polling the store.
type ProvisioningFailedEvent struct {
	BaseEvent
	PaymentReference string `json:"payment_reference"`
	FailedStep       string `json:"failed_step"`
	Reason           string `json:"reason"`
}

func NewProvisioningFailedEvent(reference, failedStep, reason string) *ProvisioningFailedEvent {
	return &ProvisioningFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeProvisioningFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_reference": reference,
				"failed_step":       failedStep,
				"reason":            reason,
			},
		},
		PaymentReference: reference,
		FailedStep:       failedStep,
		Reason:           reason,
	}
}
