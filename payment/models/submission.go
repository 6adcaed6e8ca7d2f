package models

import (
	"time"

	"github.com/alovak/cardflow-paysim/internal/carddata"
)

// CardSubmission is a card captured by the payment form.
// CardNumber and CVV hold raw input only until the record is sanitized.
type CardSubmission struct {
	ID               string    `json:"id"`
	CardHolderName   string    `json:"cardHolderName" validate:"required,min=3,max=100"`
	CardNumber       string    `json:"cardNumber" validate:"required,len=16,number"`
	CVV              string    `json:"cvv" validate:"required,len=3,number"`
	ExpiryMonth      int       `json:"expiryMonth" validate:"required,min=1,max=12"`
	ExpiryYear       int       `json:"expiryYear" validate:"required,expiry_year"`
	HashedCardNumber string    `json:"hashedCardNumber,omitempty"`
	HashedCVV        string    `json:"hashedCvv,omitempty"`
	TransactionDate  time.Time `json:"transactionDate"`
	IsValid          bool      `json:"isValid"`
}

// Sanitized returns a copy ready to persist: raw card number and CVV blanked,
// hashes set and the record marked valid. s itself is left untouched.
func (s CardSubmission) Sanitized(hashedNumber, hashedCVV string, at time.Time) CardSubmission {
	out := s
	out.CardNumber = ""
	out.CVV = ""
	out.HashedCardNumber = hashedNumber
	out.HashedCVV = hashedCVV
	out.TransactionDate = at
	out.IsValid = true
	return out
}

// MaskedNumber is safe to log.
func (s CardSubmission) MaskedNumber() string {
	return carddata.MaskPAN(s.CardNumber)
}
