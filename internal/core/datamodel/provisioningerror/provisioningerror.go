package provisioningerror

import (
	"encoding/json"
	"time"
)

const Collection = "provisioning_errors"

// Record is the write-once operator audit trail for provisioning sagas that
// failed after the commit point. Doc id is the payment reference, which makes
// the write idempotent under webhook redelivery.
type Record struct {
	PaymentReference string          `json:"payment_reference"`
	ErrorMessage     string          `json:"error_message"`
	FailedStep       string          `json:"failed_step"`
	OriginalPayload  json.RawMessage `json:"original_payload"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (r *Record) Fields() map[string]any {
	return map[string]any{
		"payment_reference": r.PaymentReference,
		"error_message":     r.ErrorMessage,
		"failed_step":       r.FailedStep,
		"original_payload":  string(r.OriginalPayload),
		"created_at":        r.CreatedAt,
	}
}
