package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alovak/cardflow-paysim/internal/cardhash"
	"github.com/alovak/cardflow-paysim/internal/expiry"
	"github.com/alovak/cardflow-paysim/payment/models"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// Messages rendered on the payment page.
const (
	MessageEnterCard    = "Enter your card details."
	MessageFixForm      = "Please correct the errors in the form."
	MessageCardRejected = "Card validation failed. Please check the details."
	MessageApproved     = "Card added and validated successfully. Simulated payment approved!"
	messageFailedPrefix = "Error processing the card: "
)

var ErrCardRejected = errors.New("card rejected by validation")

// Service runs the capture pipeline: format checks, business validation,
// hashing and a single insert.
type Service struct {
	checker   *FormChecker
	validator Validator
	hasher    cardhash.Hasher
	store     Store
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(checker *FormChecker, validator Validator, hasher cardhash.Hasher, store Store, now func() time.Time, logger *slog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		checker:   checker,
		validator: validator,
		hasher:    hasher,
		store:     store,
		now:       now,
		logger:    logger,
	}
}

// PageData is everything the payment page needs to render.
type PageData struct {
	Card         models.CardSubmission
	Months       []expiry.Option
	Years        []expiry.Option
	Message      string
	ErrorMessage string
	FieldErrors  FieldErrors
}

// Page returns a blank form with the month and year selectors filled in.
func (s *Service) Page() PageData {
	return PageData{
		Months:  expiry.Months(),
		Years:   expiry.YearOptions(s.checker.Window()),
		Message: MessageEnterCard,
	}
}

// Submit validates, hashes and stores card. On success the stored, sanitized
// record is returned. Errors are *FormError, ErrCardRejected, or a hashing or
// persistence failure.
func (s *Service) Submit(ctx context.Context, card models.CardSubmission) (*models.CardSubmission, error) {
	if errs := s.checker.Check(card); len(errs) > 0 {
		return nil, &FormError{Fields: errs}
	}

	if !s.validator.Validate(card) {
		s.logger.Info("card rejected",
			slog.String("pan", card.MaskedNumber()),
			slog.String("expiry", expiry.CardFace(card.ExpiryMonth, card.ExpiryYear)))
		return nil, ErrCardRejected
	}

	hashedNumber, err := s.hasher.Hash(card.CardNumber)
	if err != nil {
		return nil, fmt.Errorf("hashing card number: %w", err)
	}
	hashedCVV, err := s.hasher.Hash(card.CVV)
	if err != nil {
		return nil, fmt.Errorf("hashing cvv: %w", err)
	}

	record := card.Sanitized(hashedNumber, hashedCVV, s.now())
	record.ID = uuid.New().String()

	if err := s.store.CreateSubmission(ctx, record); err != nil {
		s.logger.Error("saving card", slog.String("id", record.ID), slog.Any("err", err))
		return nil, fmt.Errorf("saving card: %w", err)
	}

	s.logger.Info("card captured",
		slog.String("id", record.ID),
		slog.String("pan", card.MaskedNumber()))

	return &record, nil
}

// Render turns the outcome of Submit into page data. A successful submission
// resets the form.
func (s *Service) Render(card models.CardSubmission, err error) PageData {
	page := s.Page()
	page.Message = ""

	if err == nil {
		page.Message = MessageApproved
		return page
	}

	// the CVV is never echoed back into the page
	page.Card = card
	page.Card.CVV = ""

	var formErr *FormError
	switch {
	case errors.As(err, &formErr):
		page.ErrorMessage = MessageFixForm
		page.FieldErrors = formErr.Fields
	case errors.Is(err, ErrCardRejected):
		page.ErrorMessage = MessageCardRejected
	default:
		page.ErrorMessage = messageFailedPrefix + err.Error()
	}
	return page
}
