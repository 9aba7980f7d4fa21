package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/korelearn/tutor-management/internal"
	"github.com/korelearn/tutor-management/internal/core/datamodel/paystack"
	"github.com/korelearn/tutor-management/internal/transport"
)

// ProvisioningAPI is what the webhook endpoint needs from the provisioning
// service. Errors returned here are absorbed: once the signature has been
// verified, the gateway always gets a 200 for recognized events and
// reliability comes from the provisioning error audit trail.
type ProvisioningAPI interface {
	HandleChargeSuccess(ctx context.Context, charge paystack.ChargeData, raw json.RawMessage) error
	HandleChargeFailed(ctx context.Context, charge paystack.ChargeData) error
	HandleTransferSuccess(ctx context.Context, transfer paystack.TransferData) error
}

type Handler struct {
	*transport.BaseHandler
	provisioning ProvisioningAPI
	secret       string
	logger       *slog.Logger
}

func NewHandler(baseHandler *transport.BaseHandler, provisioning ProvisioningAPI, secret string, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler:  baseHandler,
		provisioning: provisioning,
		secret:       secret,
		logger:       logger,
	}
}

type ackResponse struct {
	Received bool   `json:"received"`
	Status   string `json:"status"`
}

// HandleWebhook is the single authorization gate in front of every
// payment-driven mutation. Order matters: fail closed on missing secret
// before touching the body, verify the signature over the raw bytes, only
// then parse.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		h.logger.Error("webhook rejected: shared secret not configured")
		h.WriteAppError(w, internal.ErrSecretMissing)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		h.WriteAppError(w, internal.ErrMalformedBody)
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if !VerifySignature(body, signature, h.secret) {
		h.logger.Warn("webhook rejected: signature mismatch", "remote_addr", r.RemoteAddr)
		h.WriteAppError(w, internal.ErrSignatureInvalid)
		return
	}

	var envelope paystack.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		h.logger.Error("webhook body is not a valid event envelope", "error", err)
		h.WriteAppError(w, internal.ErrMalformedBody)
		return
	}

	h.logger.Info("received webhook event", "event", envelope.Event)

	switch envelope.Event {
	case paystack.EventChargeSuccess:
		var charge paystack.ChargeData
		if err := json.Unmarshal(envelope.Data, &charge); err != nil {
			h.logger.Error("charge.success payload could not be parsed", "error", err)
			h.WriteAppError(w, internal.ErrMalformedBody)
			return
		}
		if err := h.provisioning.HandleChargeSuccess(r.Context(), charge, envelope.Data); err != nil {
			// Absorbed: redelivery storms are worse than a recorded error.
			h.logger.Error("charge.success processing failed",
				"error", err,
				"reference", charge.Reference)
		}

	case paystack.EventChargeFailed:
		var charge paystack.ChargeData
		if err := json.Unmarshal(envelope.Data, &charge); err != nil {
			h.logger.Error("charge.failed payload could not be parsed", "error", err)
			h.WriteAppError(w, internal.ErrMalformedBody)
			return
		}
		if err := h.provisioning.HandleChargeFailed(r.Context(), charge); err != nil {
			h.logger.Error("charge.failed processing failed",
				"error", err,
				"reference", charge.Reference)
		}

	case paystack.EventTransferSuccess:
		var transfer paystack.TransferData
		if err := json.Unmarshal(envelope.Data, &transfer); err != nil {
			h.logger.Error("transfer.success payload could not be parsed", "error", err)
			h.WriteAppError(w, internal.ErrMalformedBody)
			return
		}
		if err := h.provisioning.HandleTransferSuccess(r.Context(), transfer); err != nil {
			h.logger.Error("transfer.success processing failed",
				"error", err,
				"reference", transfer.Reference)
		}

	default:
		// Unknown event types are acknowledged so the gateway does not retry
		// deliveries this service will never understand.
		h.logger.Info("ignoring unhandled webhook event", "event", envelope.Event)
	}

	h.WriteJSON(w, http.StatusOK, ackResponse{Received: true, Status: "processed"})
}
