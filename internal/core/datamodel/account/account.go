package account

import (
	"time"

	"github.com/korelearn/tutor-management/internal/docstore"
)

const Collection = "accounts"

// FieldPaymentReference is the idempotency lookup key; account creation is
// keyed by it so duplicate webhook deliveries cannot mint a second account.
const FieldPaymentReference = "payment_reference"

const (
	RoleStudent        = "student"
	RoleTutorApplicant = "tutor_applicant"
	RoleTutor          = "tutor"
)

const (
	StatusPendingPayment = "pending_payment"
	StatusPendingReview  = "pending_review"
	StatusApproved       = "approved"
	StatusRejected       = "rejected"
	StatusPaymentFailed  = "payment_failed"
)

type Account struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	Status           string    `json:"status"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Phone            string    `json:"phone"`
	PaymentReference string    `json:"payment_reference"`
	ApplicationID    string    `json:"application_id"`
	AmountPaid       int64     `json:"amount_paid"`
	Currency         string    `json:"currency"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (a *Account) Fields() map[string]any {
	fields := map[string]any{
		"email":          a.Email,
		"role":           a.Role,
		"status":         a.Status,
		"first_name":     a.FirstName,
		"last_name":      a.LastName,
		"phone":          a.Phone,
		"application_id": a.ApplicationID,
		"amount_paid":    a.AmountPaid,
		"currency":       a.Currency,
		"created_at":     a.CreatedAt,
		"updated_at":     a.UpdatedAt,
	}
	// Absent rather than empty, so accounts without a payment (seeded or
	// manually created ones) never collide on the uniqueness index.
	if a.PaymentReference != "" {
		fields[FieldPaymentReference] = a.PaymentReference
	}
	return fields
}

func FromFields(id string, fields map[string]any) *Account {
	return &Account{
		ID:               id,
		Email:            docstore.String(fields, "email"),
		Role:             docstore.String(fields, "role"),
		Status:           docstore.String(fields, "status"),
		FirstName:        docstore.String(fields, "first_name"),
		LastName:         docstore.String(fields, "last_name"),
		Phone:            docstore.String(fields, "phone"),
		PaymentReference: docstore.String(fields, FieldPaymentReference),
		ApplicationID:    docstore.String(fields, "application_id"),
		AmountPaid:       docstore.Int64(fields, "amount_paid"),
		Currency:         docstore.String(fields, "currency"),
		CreatedAt:        docstore.Time(fields, "created_at"),
		UpdatedAt:        docstore.Time(fields, "updated_at"),
	}
}
