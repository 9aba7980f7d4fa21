package provisioning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/korelearn/tutor-management/internal/core/datamodel/account"
	"github.com/korelearn/tutor-management/internal/core/datamodel/application"
	"github.com/korelearn/tutor-management/internal/core/datamodel/paystack"
	"github.com/korelearn/tutor-management/internal/core/datamodel/provisioningerror"
	"github.com/korelearn/tutor-management/internal/core/datamodel/tutor"
	"github.com/korelearn/tutor-management/internal/core/events"
	"github.com/korelearn/tutor-management/internal/docstore"
	"github.com/korelearn/tutor-management/internal/identity"
)

// Saga step names recorded on the provisioning error trail. Together with
// the ordered step list below they tell an operator exactly how far a failed
// provisioning run got.
const (
	stepCreateIdentity     = "create_identity"
	stepSetDisplayName     = "set_display_name"
	stepCreateAccount      = "create_account"
	stepUpdateApplication  = "update_application"
	stepCreateTutorProfile = "create_tutor_profile"
)

// ReservationCollection holds one claim document per payment reference,
// created fail-if-exists before any side effect. The store, not a
// read-then-act check, decides which of two concurrent deliveries of the
// same reference gets to provision.
const ReservationCollection = "provisioning_reservations"

// Service owns the Application to Account transition. Nothing else in the
// system may create an account from a payment event.
type Service struct {
	store      docstore.Store
	identities identity.Provider
	eventBus   *events.EventBus
	logger     *slog.Logger
}

func NewService(store docstore.Store, identities identity.Provider, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		identities: identities,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// HandleChargeSuccess provisions a tutor for a completed registration
// payment. Gateways redeliver webhooks, so every path through here is
// idempotent on the payment reference. Returning nil means "acknowledged";
// failures after the identity commit point become provisioning error
// records, never errors to the gateway.
func (s *Service) HandleChargeSuccess(ctx context.Context, charge paystack.ChargeData, raw json.RawMessage) error {
	if charge.Metadata.ApplicationType != application.TypeTutorRegistration {
		s.logger.Debug("ignoring charge without tutor registration metadata",
			"reference", charge.Reference,
			"application_type", charge.Metadata.ApplicationType)
		return nil
	}

	if charge.Reference == "" {
		s.logger.Warn("charge.success without a payment reference, nothing to provision")
		return nil
	}

	processed, err := s.alreadyProcessed(ctx, charge.Reference)
	if err != nil {
		return err
	}
	if processed {
		s.logger.Info("payment reference already processed, skipping",
			"reference", charge.Reference)
		return nil
	}

	email := charge.Metadata.TutorEmail
	if email == "" {
		email = charge.Customer.Email
	}
	if email == "" {
		// Data-quality failure: nothing to provision, not a system failure.
		s.logger.Warn("no resolvable applicant email on charge, skipping provisioning",
			"reference", charge.Reference)
		return nil
	}

	if err := s.store.Create(ctx, ReservationCollection, charge.Reference, map[string]any{
		"payment_reference": charge.Reference,
		"created_at":        time.Now().UTC(),
	}); err != nil {
		if errors.Is(err, docstore.ErrConflict) {
			s.logger.Info("payment reference already claimed by another delivery, skipping",
				"reference", charge.Reference)
			return nil
		}
		return fmt.Errorf("failed to claim payment reference %s: %w", charge.Reference, err)
	}

	userID := charge.Metadata.UserID
	newIdentity := userID == ""
	var credential string

	if newIdentity {
		credential, err = GenerateCredential()
		if err != nil {
			return err
		}

		userID, err = s.identities.CreateUser(ctx, email, credential)
		if err != nil {
			if errors.Is(err, identity.ErrAlreadyExists) {
				// A concurrent or earlier delivery won the race; the
				// uniqueness constraint is the arbiter.
				s.logger.Info("identity already exists, treating as processed",
					"reference", charge.Reference,
					"email", email)
				return nil
			}
			s.recordFailure(ctx, charge.Reference, stepCreateIdentity, err, raw)
			return nil
		}
	}

	s.logger.Info("provisioning tutor account",
		"reference", charge.Reference,
		"user_id", userID,
		"new_identity", newIdentity)

	if failedStep, err := s.runSaga(ctx, userID, email, charge); err != nil {
		if errors.Is(err, docstore.ErrConflict) {
			// Lost the payment_reference uniqueness race to another
			// delivery; that delivery owns the records, nothing to remediate.
			s.logger.Info("duplicate delivery lost the storage race, treating as processed",
				"reference", charge.Reference,
				"step", failedStep)
			return nil
		}
		s.recordFailure(ctx, charge.Reference, failedStep, err, raw)
		return nil
	}

	event := events.NewTutorProvisionedEvent(
		userID,
		email,
		charge.Metadata.FirstName,
		credential,
		charge.Reference,
		newIdentity,
	)
	s.eventBus.Publish(ctx, event)

	s.logger.Info("tutor provisioned",
		"reference", charge.Reference,
		"user_id", userID,
		"application_id", charge.Metadata.ApplicationID)
	return nil
}

// runSaga executes the dependent-record writes in order and reports which
// step failed. There is no rollback; reconciliation happens from the
// recorded watermark.
func (s *Service) runSaga(ctx context.Context, userID, email string, charge paystack.ChargeData) (string, error) {
	now := time.Now().UTC()

	displayName := strings.TrimSpace(charge.Metadata.FirstName + " " + charge.Metadata.LastName)
	if displayName != "" {
		if err := s.identities.SetDisplayName(ctx, userID, displayName); err != nil {
			return stepSetDisplayName, err
		}
	}

	acc := &account.Account{
		ID:               userID,
		Email:            email,
		Role:             account.RoleTutor,
		Status:           account.StatusPendingReview,
		FirstName:        charge.Metadata.FirstName,
		LastName:         charge.Metadata.LastName,
		Phone:            charge.Metadata.Phone,
		PaymentReference: charge.Reference,
		ApplicationID:    charge.Metadata.ApplicationID,
		AmountPaid:       charge.MajorAmount(),
		Currency:         charge.Currency,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.Put(ctx, account.Collection, userID, acc.Fields(), false); err != nil {
		return stepCreateAccount, err
	}

	if charge.Metadata.ApplicationID != "" {
		update := map[string]any{
			"user_id":           userID,
			"status":            application.StatusPendingReview,
			"payment_status":    application.PaymentStatusCompleted,
			"payment_reference": charge.Reference,
			"updated_at":        now,
		}
		if err := s.store.Put(ctx, application.Collection, charge.Metadata.ApplicationID, update, true); err != nil {
			return stepUpdateApplication, err
		}
	} else {
		s.logger.Warn("charge metadata has no application id, skipping application update",
			"reference", charge.Reference)
	}

	profile := &tutor.Profile{
		ID:            userID,
		Email:         email,
		FirstName:     charge.Metadata.FirstName,
		LastName:      charge.Metadata.LastName,
		Phone:         charge.Metadata.Phone,
		ApplicationID: charge.Metadata.ApplicationID,
		Status:        account.StatusPendingReview,
		CreatedAt:     now,
	}
	if err := s.store.Put(ctx, tutor.Collection, userID, profile.Fields(), false); err != nil {
		return stepCreateTutorProfile, err
	}

	return "", nil
}

// HandleChargeFailed marks the tutor application as payment-failed. No
// identity or account is created or touched.
func (s *Service) HandleChargeFailed(ctx context.Context, charge paystack.ChargeData) error {
	if charge.Metadata.ApplicationType != application.TypeTutorRegistration {
		s.logger.Debug("ignoring failed charge without tutor registration metadata",
			"reference", charge.Reference)
		return nil
	}

	if charge.Metadata.ApplicationID == "" {
		s.logger.Warn("failed charge has no application id, nothing to update",
			"reference", charge.Reference)
		return nil
	}

	update := map[string]any{
		"status":            application.StatusPaymentFailed,
		"payment_status":    application.PaymentStatusFailed,
		"payment_reference": charge.Reference,
		"updated_at":        time.Now().UTC(),
	}
	if err := s.store.Put(ctx, application.Collection, charge.Metadata.ApplicationID, update, true); err != nil {
		return fmt.Errorf("failed to mark application %s as payment_failed: %w", charge.Metadata.ApplicationID, err)
	}

	s.eventBus.Publish(ctx, events.NewPaymentFailedEvent(
		charge.Metadata.ApplicationID,
		charge.Reference,
		charge.Amount,
	))

	s.logger.Info("application marked payment_failed",
		"application_id", charge.Metadata.ApplicationID,
		"reference", charge.Reference)
	return nil
}

// HandleTransferSuccess is the payout collaborator boundary. Payout
// bookkeeping lives outside this service; the event is acknowledged only.
func (s *Service) HandleTransferSuccess(ctx context.Context, transfer paystack.TransferData) error {
	s.logger.Info("transfer.success acknowledged",
		"reference", transfer.Reference,
		"amount", transfer.Amount)
	return nil
}

// alreadyProcessed reports whether this payment reference has produced an
// account or a provisioning error record in an earlier delivery.
func (s *Service) alreadyProcessed(ctx context.Context, reference string) (bool, error) {
	_, _, err := s.store.FindByField(ctx, account.Collection, account.FieldPaymentReference, reference)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return false, fmt.Errorf("idempotency lookup failed for %s: %w", reference, err)
	}

	_, err = s.store.Get(ctx, provisioningerror.Collection, reference)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return false, fmt.Errorf("idempotency lookup failed for %s: %w", reference, err)
	}

	return false, nil
}

// recordFailure persists the operator-facing audit record. If even this
// write fails there is nothing left but the log line; the gateway still
// gets its acknowledgement either way.
func (s *Service) recordFailure(ctx context.Context, reference, failedStep string, cause error, raw json.RawMessage) {
	s.logger.Error("provisioning failed, recording error for remediation",
		"reference", reference,
		"failed_step", failedStep,
		"error", cause)

	record := &provisioningerror.Record{
		PaymentReference: reference,
		ErrorMessage:     cause.Error(),
		FailedStep:       failedStep,
		OriginalPayload:  raw,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.store.Put(ctx, provisioningerror.Collection, reference, record.Fields(), false); err != nil {
		s.logger.Error("failed to persist provisioning error record",
			"reference", reference,
			"error", err)
	}

	s.eventBus.Publish(ctx, events.NewProvisioningFailedEvent(reference, failedStep, cause.Error()))
}
