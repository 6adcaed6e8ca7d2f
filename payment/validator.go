package payment

import (
	"time"

	"github.com/alovak/cardflow-paysim/internal/carddata"
	"github.com/alovak/cardflow-paysim/internal/expiry"
	"github.com/alovak/cardflow-paysim/payment/models"
)

// Validator applies the business rules a submission must pass before it is hashed.
type Validator interface {
	Validate(card models.CardSubmission) bool
}

// CardValidator rejects expired cards and malformed card numbers or CVVs.
type CardValidator struct {
	Now func() time.Time
}

func NewCardValidator(now func() time.Time) *CardValidator {
	if now == nil {
		now = time.Now
	}
	return &CardValidator{Now: now}
}

func (v *CardValidator) Validate(card models.CardSubmission) bool {
	if !expiry.ValidMonth(card.ExpiryMonth) {
		return false
	}
	if expiry.IsExpired(card.ExpiryMonth, card.ExpiryYear, v.Now()) {
		return false
	}
	if !carddata.IsDigitsOfLen(card.CardNumber, carddata.PANLength) {
		return false
	}
	return carddata.IsDigitsOfLen(card.CVV, carddata.CVVLength)
}
