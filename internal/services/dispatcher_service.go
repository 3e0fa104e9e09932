package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stayhive/hotel-booking-backend/internal/config"
	"github.com/stayhive/hotel-booking-backend/internal/models"
	"github.com/stayhive/hotel-booking-backend/pkg/telegram"
)

// IntentOutbox is the dispatcher's view of the intent store
type IntentOutbox interface {
	FetchPending(ctx context.Context, limit int) ([]*models.Intent, error)
	MarkDispatched(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// PaymentGateway is the dispatcher's view of the payment processor
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
}

// DispatcherService drains the intent outbox on an interval: charge intents
// become checkout sessions, notify intents become staff messages. Delivery
// is at-least-once; the outbox dedup key keeps re-delivery harmless.
type DispatcherService struct {
	outbox   IntentOutbox
	store    BookingStore
	payments PaymentGateway
	notifier telegram.Gateway
	cfg      config.SchedulerConfig
	chatID   int64
	logger   *logrus.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewDispatcherService creates the outbox dispatcher
func NewDispatcherService(
	outbox IntentOutbox,
	store BookingStore,
	payments PaymentGateway,
	notifier telegram.Gateway,
	cfg config.SchedulerConfig,
	chatID int64,
	logger *logrus.Logger,
) *DispatcherService {
	return &DispatcherService{
		outbox:   outbox,
		store:    store,
		payments: payments,
		notifier: notifier,
		cfg:      cfg,
		chatID:   chatID,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the background dispatch loop
func (s *DispatcherService) Start() {
	s.wg.Add(1)
	go s.run()
	s.logger.WithField("interval", s.cfg.DispatchInterval).Info("Intent dispatcher started")
}

// Stop signals the dispatch loop to exit and waits for it
func (s *DispatcherService) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	s.logger.Info("Intent dispatcher stopped")
}

func (s *DispatcherService) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.DispatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.DispatchPending(context.Background()); err != nil {
				s.logger.WithError(err).Error("Intent dispatch cycle failed")
			}
		case <-s.stopChan:
			return
		}
	}
}

// DispatchPending delivers one batch of pending intents and returns how many
// were delivered. Individual delivery failures are recorded on the intent
// and do not abort the batch.
func (s *DispatcherService) DispatchPending(ctx context.Context) (int, error) {
	intents, err := s.outbox.FetchPending(ctx, s.cfg.DispatchBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch pending intents: %w", err)
	}

	delivered := 0
	for _, intent := range intents {
		if err := s.dispatchOne(ctx, intent); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"intent_id":  intent.ID,
				"booking_id": intent.BookingID,
				"kind":       intent.Kind,
			}).Warn("Intent delivery failed")

			if markErr := s.outbox.MarkFailed(ctx, intent.ID, err.Error()); markErr != nil {
				s.logger.WithError(markErr).WithField("intent_id", intent.ID).
					Error("Failed to record intent failure")
			}
			continue
		}

		if err := s.outbox.MarkDispatched(ctx, intent.ID); err != nil {
			s.logger.WithError(err).WithField("intent_id", intent.ID).
				Error("Failed to mark intent dispatched")
			continue
		}
		delivered++
	}

	if len(intents) > 0 {
		s.logger.WithFields(logrus.Fields{
			"fetched":   len(intents),
			"delivered": delivered,
		}).Info("Intent batch dispatched")
	}
	return delivered, nil
}

func (s *DispatcherService) dispatchOne(ctx context.Context, intent *models.Intent) error {
	booking, err := s.store.GetBooking(ctx, intent.BookingID)
	if err != nil {
		return fmt.Errorf("failed to load booking: %w", err)
	}
	if booking == nil {
		return fmt.Errorf("booking %s not found", intent.BookingID)
	}

	switch intent.Kind {
	case models.IntentKindCharge:
		session, err := s.payments.CreateCheckoutSession(ctx, CheckoutParams{
			BookingID:   booking.ID.String(),
			Purpose:     CheckoutPurposeFee,
			Amount:      intent.Amount,
			Description: buildChargeDescription(booking, intent.Reason),
		})
		if err != nil {
			return err
		}
		s.logger.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"session_id": session.ID,
			"amount":     intent.Amount,
		}).Info("Charge checkout session created")
		return nil

	case models.IntentKindNotify:
		return s.notifier.SendMessage(s.chatID, buildNotifyText(intent.Event, booking))

	default:
		return fmt.Errorf("unknown intent kind %q", intent.Kind)
	}
}
