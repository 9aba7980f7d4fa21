package webhook_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/korelearn/tutor-management/internal/core/datamodel/paystack"
	"github.com/korelearn/tutor-management/internal/transport"
	"github.com/korelearn/tutor-management/internal/webhook"
)

func TestWebhook(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Webhook Suite")
}

// Mock provisioning service for testing
type mockProvisioningService struct {
	chargeSuccessCalls []paystack.ChargeData
	chargeFailedCalls  []paystack.ChargeData
	transferCalls      []paystack.TransferData
	chargeSuccessError error
	chargeFailedError  error
	transferSuccessErr error
}

func (m *mockProvisioningService) HandleChargeSuccess(ctx context.Context, charge paystack.ChargeData, raw json.RawMessage) error {
	m.chargeSuccessCalls = append(m.chargeSuccessCalls, charge)
	return m.chargeSuccessError
}

func (m *mockProvisioningService) HandleChargeFailed(ctx context.Context, charge paystack.ChargeData) error {
	m.chargeFailedCalls = append(m.chargeFailedCalls, charge)
	return m.chargeFailedError
}

func (m *mockProvisioningService) HandleTransferSuccess(ctx context.Context, transfer paystack.TransferData) error {
	m.transferCalls = append(m.transferCalls, transfer)
	return m.transferSuccessErr
}

// brokenBody simulates a client connection dropped mid-request.
type brokenBody struct{}

func (brokenBody) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

var _ = Describe("Webhook Handler", func() {
	const secret = "whsec_test_secret"

	var (
		handler     *webhook.Handler
		mockService *mockProvisioningService
		logger      *slog.Logger
	)

	newHandler := func(secret string) *webhook.Handler {
		return webhook.NewHandler(transport.NewBaseHandler(logger), mockService, secret, logger)
	}

	deliver := func(body []byte, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
		if signature != "" {
			req.Header.Set(webhook.SignatureHeader, signature)
		}
		rec := httptest.NewRecorder()
		handler.HandleWebhook(rec, req)
		return rec
	}

	chargeSuccessBody := func(reference string) []byte {
		body, err := json.Marshal(map[string]any{
			"event": "charge.success",
			"data": map[string]any{
				"reference": reference,
				"amount":    250000,
				"currency":  "NGN",
				"customer":  map[string]any{"email": "applicant@mail.com"},
				"metadata": map[string]any{
					"applicationType": "tutor_registration",
					"applicationId":   "app-1",
					"firstName":       "Amara",
					"lastName":        "Obi",
				},
			},
		})
		Expect(err).ToNot(HaveOccurred())
		return body
	}

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		mockService = &mockProvisioningService{}
		handler = newHandler(secret)
	})

	Describe("signature verification", func() {
		Context("when the shared secret is not configured", func() {
			It("should fail closed with 500 and not dispatch", func() {
				handler = newHandler("")
				body := chargeSuccessBody("ref-1")

				rec := deliver(body, webhook.Sign(body, secret))

				Expect(rec.Code).To(Equal(http.StatusInternalServerError))
				Expect(rec.Body.String()).To(ContainSubstring("WEBHOOK_SECRET_MISSING"))
				Expect(mockService.chargeSuccessCalls).To(BeEmpty())
			})
		})

		Context("when the shared secret is missing and the body is unreadable", func() {
			It("should still fail closed with 500", func() {
				handler = newHandler("")
				req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", brokenBody{})
				rec := httptest.NewRecorder()

				handler.HandleWebhook(rec, req)

				Expect(rec.Code).To(Equal(http.StatusInternalServerError))
				Expect(rec.Body.String()).To(ContainSubstring("WEBHOOK_SECRET_MISSING"))
			})
		})

		Context("when the body cannot be read", func() {
			It("should return 400 and not dispatch", func() {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", brokenBody{})
				rec := httptest.NewRecorder()

				handler.HandleWebhook(rec, req)

				Expect(rec.Code).To(Equal(http.StatusBadRequest))
				Expect(mockService.chargeSuccessCalls).To(BeEmpty())
			})
		})

		Context("when the signature does not match", func() {
			It("should reject with 401 and not dispatch", func() {
				body := chargeSuccessBody("ref-1")

				rec := deliver(body, webhook.Sign(body, "wrong-secret"))

				Expect(rec.Code).To(Equal(http.StatusUnauthorized))
				Expect(rec.Body.String()).To(ContainSubstring("SIGNATURE_INVALID"))
				Expect(mockService.chargeSuccessCalls).To(BeEmpty())
			})
		})

		Context("when the signature header is missing", func() {
			It("should reject with 401", func() {
				rec := deliver(chargeSuccessBody("ref-1"), "")

				Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			})
		})

		Context("when the body was tampered with after signing", func() {
			It("should reject with 401", func() {
				body := chargeSuccessBody("ref-1")
				signature := webhook.Sign(body, secret)
				tampered := bytes.Replace(body, []byte("ref-1"), []byte("ref-2"), 1)

				rec := deliver(tampered, signature)

				Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			})
		})
	})

	Describe("payload parsing", func() {
		Context("when the body is not valid JSON but correctly signed", func() {
			It("should return 400", func() {
				body := []byte("{not json")

				rec := deliver(body, webhook.Sign(body, secret))

				Expect(rec.Code).To(Equal(http.StatusBadRequest))
				Expect(rec.Body.String()).To(ContainSubstring("MALFORMED_BODY"))
			})
		})

		Context("when the event data does not match the event shape", func() {
			It("should return 400", func() {
				body := []byte(`{"event":"charge.success","data":"not-an-object"}`)

				rec := deliver(body, webhook.Sign(body, secret))

				Expect(rec.Code).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("event dispatch", func() {
		Context("when a charge.success event arrives", func() {
			It("should dispatch the parsed charge and acknowledge", func() {
				body := chargeSuccessBody("ref-42")

				rec := deliver(body, webhook.Sign(body, secret))

				Expect(rec.Code).To(Equal(http.StatusOK))
				Expect(mockService.chargeSuccessCalls).To(HaveLen(1))
				charge := mockService.chargeSuccessCalls[0]
				Expect(charge.Reference).To(Equal("ref-42"))
				Expect(charge.Amount).To(Equal(int64(250000)))
				Expect(charge.Metadata.ApplicationType).To(Equal("tutor_registration"))
				Expect(charge.Customer.Email).To(Equal("applicant@mail.com"))
			})
		})

		Context("when processing fails after the signature verified", func() {
			It("should still acknowledge with 200", func() {
				mockService.chargeSuccessError = errors.New("store unavailable")
				body := chargeSuccessBody("ref-42")

				rec := deliver(body, webhook.Sign(body, secret))

				Expect(rec.Code).To(Equal(http.StatusOK))

				var ack map[string]any
				Expect(json.Unmarshal(rec.Body.Bytes(), &ack)).To(Succeed())
				Expect(ack["received"]).To(BeTrue())
			})
		})

		Context("when a charge.failed event arrives", func() {
			It("should dispatch to the failed-charge path only", func() {
				body, err := json.Marshal(map[string]any{
					"event": "charge.failed",
					"data": map[string]any{
						"reference": "ref-9",
						"metadata": map[string]any{
							"applicationType": "tutor_registration",
							"applicationId":   "app-9",
						},
					},
				})
				Expect(err).ToNot(HaveOccurred())

				rec := deliver(body, webhook.Sign(body, secret))

				Expect(rec.Code).To(Equal(http.StatusOK))
				Expect(mockService.chargeFailedCalls).To(HaveLen(1))
				Expect(mockService.chargeSuccessCalls).To(BeEmpty())
			})
		})

		Context("when a transfer.success event arrives", func() {
			It("should dispatch to the transfer path", func() {
				body := []byte(`{"event":"transfer.success","data":{"reference":"trf-1","amount":100000}}`)

				rec := deliver(body, webhook.Sign(body, secret))

				Expect(rec.Code).To(Equal(http.StatusOK))
				Expect(mockService.transferCalls).To(HaveLen(1))
				Expect(mockService.transferCalls[0].Reference).To(Equal("trf-1"))
			})
		})

		Context("when the event type is unknown", func() {
			It("should acknowledge without dispatching", func() {
				body := []byte(`{"event":"subscription.create","data":{}}`)

				rec := deliver(body, webhook.Sign(body, secret))

				Expect(rec.Code).To(Equal(http.StatusOK))
				Expect(mockService.chargeSuccessCalls).To(BeEmpty())
				Expect(mockService.chargeFailedCalls).To(BeEmpty())
				Expect(mockService.transferCalls).To(BeEmpty())
			})
		})
	})

	Describe("Sign and VerifySignature", func() {
		It("should accept its own signature", func() {
			body := []byte(`{"event":"charge.success"}`)
			Expect(webhook.VerifySignature(body, webhook.Sign(body, secret), secret)).To(BeTrue())
		})

		It("should reject an empty signature", func() {
			Expect(webhook.VerifySignature([]byte("x"), "", secret)).To(BeFalse())
		})

		It("should reject when the secret is empty", func() {
			body := []byte("x")
			Expect(webhook.VerifySignature(body, webhook.Sign(body, ""), "")).To(BeFalse())
		})
	})
})
