package paystack

import "encoding/json"

// Event names as Paystack puts them on the wire.
const (
	EventChargeSuccess   = "charge.success"
	EventChargeFailed    = "charge.failed"
	EventTransferSuccess = "transfer.success"
)

// Envelope is the outer webhook body. Data stays raw until the event type is
// known so unknown events can be acknowledged without understanding their
// payload shape.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Metadata is the application-specific correlation data attached to a charge
// at checkout time. It is the only channel linking a gateway payment back to
// a tutor application.
type Metadata struct {
	ApplicationType string `json:"applicationType"`
	UserID          string `json:"userId"`
	ApplicationID   string `json:"applicationId"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Phone           string `json:"phone"`
	TutorEmail      string `json:"tutorEmail"`
}

type Customer struct {
	Email string `json:"email"`
}

// ChargeData is the payload of charge.success and charge.failed events.
// Amount is reported in the minor currency unit (kobo).
type ChargeData struct {
	Reference string   `json:"reference"`
	Amount    int64    `json:"amount"`
	Currency  string   `json:"currency"`
	Customer  Customer `json:"customer"`
	Metadata  Metadata `json:"metadata"`
}

// MajorAmount converts the gateway's minor-unit amount to the base currency
// unit (kobo to naira).
func (c ChargeData) MajorAmount() int64 {
	return c.Amount / 100
}

type TransferData struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}
