package application

import (
	"time"

	"github.com/korelearn/tutor-management/internal/docstore"
)

const Collection = "tutor_applications"

// TypeTutorRegistration is the metadata discriminator that marks a charge as
// a tutor registration payment.
const TypeTutorRegistration = "tutor_registration"

const (
	StatusPendingPayment = "pending_payment"
	StatusPendingReview  = "pending_review"
	StatusPaymentFailed  = "payment_failed"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Application tracks a tutor registration through its payment lifecycle.
// Its id is assigned at submission time and is the join key to the Account
// created after payment.
type Application struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Status           string    `json:"status"`
	PaymentStatus    string    `json:"payment_status"`
	PaymentReference string    `json:"payment_reference"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func FromFields(id string, fields map[string]any) *Application {
	return &Application{
		ID:               id,
		UserID:           docstore.String(fields, "user_id"),
		Status:           docstore.String(fields, "status"),
		PaymentStatus:    docstore.String(fields, "payment_status"),
		PaymentReference: docstore.String(fields, "payment_reference"),
		CreatedAt:        docstore.Time(fields, "created_at"),
		UpdatedAt:        docstore.Time(fields, "updated_at"),
	}
}
