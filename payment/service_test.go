package payment_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/alovak/cardflow-paysim/internal/cardhash"
	"github.com/alovak/cardflow-paysim/internal/expiry"
	"github.com/alovak/cardflow-paysim/payment"
	"github.com/alovak/cardflow-paysim/payment/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingStore struct{ err error }

func (s failingStore) CreateSubmission(context.Context, models.CardSubmission) error { return s.err }

type countingValidator struct {
	calls int
	next  payment.Validator
}

func (v *countingValidator) Validate(card models.CardSubmission) bool {
	v.calls++
	return v.next.Validate(card)
}

type brokenHasher struct{}

func (brokenHasher) Hash(string) (string, error) { return "", errors.New("hasher offline") }

func newService(store payment.Store, validator payment.Validator, hasher cardhash.Hasher) *payment.Service {
	if validator == nil {
		validator = payment.NewCardValidator(clock)
	}
	if hasher == nil {
		hasher = cardhash.NewBcrypt(bcrypt.MinCost)
	}
	return payment.NewService(
		payment.NewFormChecker(clock, expiry.DefaultSpan),
		validator,
		hasher,
		store,
		clock,
		discardLogger(),
	)
}

func TestService_Page(t *testing.T) {
	svc := newService(payment.NewRepository(), nil, nil)
	page := svc.Page()

	require.Equal(t, payment.MessageEnterCard, page.Message)
	require.Len(t, page.Months, 12)
	require.Len(t, page.Years, 15)
	require.Equal(t, fixedNow.Year(), page.Years[0].Value)
	require.Equal(t, fixedNow.Year()+14, page.Years[14].Value)
}

func TestService_Submit_Success(t *testing.T) {
	repo := payment.NewRepository()
	svc := newService(repo, nil, nil)

	card := validCard()
	saved, err := svc.Submit(context.Background(), card)
	require.NoError(t, err)

	rows := repo.Submissions()
	require.Len(t, rows, 1)
	row := rows[0]
	require.Equal(t, *saved, row)

	require.NotEmpty(t, row.ID)
	require.Empty(t, row.CardNumber)
	require.Empty(t, row.CVV)
	require.NotEmpty(t, row.HashedCardNumber)
	require.NotEmpty(t, row.HashedCVV)
	require.True(t, row.IsValid)
	require.Equal(t, fixedNow, row.TransactionDate)
	require.Equal(t, "Jane Doe", row.CardHolderName)
	require.True(t, cardhash.Verify(row.HashedCardNumber, "4111111111111111"))
	require.True(t, cardhash.Verify(row.HashedCVV, "123"))

	// the caller's value is not mutated
	require.Equal(t, "4111111111111111", card.CardNumber)
	require.Equal(t, "123", card.CVV)
}

func TestService_Submit_EachSuccessInsertsOneRow(t *testing.T) {
	repo := payment.NewRepository()
	svc := newService(repo, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Submit(context.Background(), validCard())
		require.NoError(t, err)
	}
	rows := repo.Submissions()
	require.Len(t, rows, 3)
	require.NotEqual(t, rows[0].ID, rows[1].ID)
	require.NotEqual(t, rows[0].HashedCardNumber, rows[1].HashedCardNumber)
}

func TestService_Submit_ExpiredCard(t *testing.T) {
	repo := payment.NewRepository()
	validator := &countingValidator{next: payment.NewCardValidator(clock)}
	svc := newService(repo, validator, nil)

	card := validCard()
	card.ExpiryYear = fixedNow.Year() - 1

	_, err := svc.Submit(context.Background(), card)
	require.ErrorIs(t, err, payment.ErrCardRejected)
	require.Equal(t, 1, validator.calls)
	require.Empty(t, repo.Submissions())

	page := svc.Render(card, err)
	require.Equal(t, payment.MessageCardRejected, page.ErrorMessage)
	require.Empty(t, page.FieldErrors)
}

func TestService_Submit_EarlierMonthRejectedByValidator(t *testing.T) {
	repo := payment.NewRepository()
	svc := newService(repo, nil, nil)

	card := validCard()
	card.ExpiryYear = fixedNow.Year()
	card.ExpiryMonth = int(fixedNow.Month()) - 1

	_, err := svc.Submit(context.Background(), card)
	require.ErrorIs(t, err, payment.ErrCardRejected)
	require.Empty(t, repo.Submissions())
}

func TestService_Submit_ShortNumberStopsBeforeValidator(t *testing.T) {
	repo := payment.NewRepository()
	validator := &countingValidator{next: payment.NewCardValidator(clock)}
	svc := newService(repo, validator, nil)

	card := validCard()
	card.CardNumber = "123"

	_, err := svc.Submit(context.Background(), card)
	var formErr *payment.FormError
	require.ErrorAs(t, err, &formErr)
	require.Contains(t, formErr.Fields, payment.FieldCardNumber)
	require.Zero(t, validator.calls)
	require.Empty(t, repo.Submissions())
}

func TestService_Submit_StoreFailure(t *testing.T) {
	svc := newService(failingStore{err: errors.New("disk full")}, nil, nil)

	card := validCard()
	_, err := svc.Submit(context.Background(), card)
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")

	page := svc.Render(card, err)
	require.Equal(t, "Error processing the card: saving card: disk full", page.ErrorMessage)
	require.Empty(t, page.Message)
}

func TestService_Submit_HashFailure(t *testing.T) {
	repo := payment.NewRepository()
	svc := newService(repo, nil, brokenHasher{})

	_, err := svc.Submit(context.Background(), validCard())
	require.ErrorContains(t, err, "hasher offline")
	require.Empty(t, repo.Submissions())
}

func TestService_Render(t *testing.T) {
	svc := newService(payment.NewRepository(), nil, nil)
	card := validCard()

	t.Run("success resets the form", func(t *testing.T) {
		page := svc.Render(card, nil)
		require.Equal(t, payment.MessageApproved, page.Message)
		require.Empty(t, page.ErrorMessage)
		require.Equal(t, models.CardSubmission{}, page.Card)
		require.Len(t, page.Years, 15)
	})

	t.Run("form errors keep input but drop the cvv", func(t *testing.T) {
		err := &payment.FormError{Fields: payment.FieldErrors{payment.FieldCVV: "CVV is required."}}
		page := svc.Render(card, err)
		require.Equal(t, payment.MessageFixForm, page.ErrorMessage)
		require.Equal(t, "CVV is required.", page.FieldErrors[payment.FieldCVV])
		require.Equal(t, card.CardNumber, page.Card.CardNumber)
		require.Empty(t, page.Card.CVV)
	})

	t.Run("rejected card", func(t *testing.T) {
		page := svc.Render(card, payment.ErrCardRejected)
		require.Equal(t, payment.MessageCardRejected, page.ErrorMessage)
		require.Empty(t, page.FieldErrors)
	})
}
