package payment

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alovak/cardflow-paysim/internal/expiry"
	"github.com/alovak/cardflow-paysim/payment/models"
	"github.com/go-playground/validator/v10"
)

// Form field names, shared by the decoder, the field errors and the page template.
const (
	FieldCardHolderName = "cardHolderName"
	FieldCardNumber     = "cardNumber"
	FieldCVV            = "cvv"
	FieldExpiryMonth    = "expiryMonth"
	FieldExpiryYear     = "expiryYear"
)

// MinExpiryYear is the earliest expiry year the form takes as well-formed.
const MinExpiryYear = 2000

// FieldErrors maps a form field name to a message shown next to that field.
type FieldErrors map[string]string

// FormError is returned when a submission fails format checks.
type FormError struct {
	Fields FieldErrors
}

func (e *FormError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid form fields: " + strings.Join(names, ", ")
}

// FormChecker runs the per-field format rules declared on models.CardSubmission.
type FormChecker struct {
	validate *validator.Validate
	now      func() time.Time
	span     int
}

func NewFormChecker(now func() time.Time, span int) *FormChecker {
	if now == nil {
		now = time.Now
	}
	c := &FormChecker{
		validate: validator.New(),
		now:      now,
		span:     span,
	}
	c.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// the tag name is fixed and the func is non-nil, so registration cannot fail
	_ = c.validate.RegisterValidation("expiry_year", func(fl validator.FieldLevel) bool {
		return c.acceptsYear(int(fl.Field().Int()))
	})
	return c
}

// Window is the range of expiry years offered by the form. Its last year is
// also the latest year the form accepts.
func (c *FormChecker) Window() expiry.YearWindow {
	return expiry.Window(c.now(), c.span)
}

// acceptsYear only bounds the year's format. Past years get through so the
// card validator can reject them as expired.
func (c *FormChecker) acceptsYear(year int) bool {
	return year >= MinExpiryYear && year <= c.Window().Last
}

// Check returns nil when every field passes.
func (c *FormChecker) Check(card models.CardSubmission) FieldErrors {
	err := c.validate.Struct(card)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"": err.Error()}
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = c.message(fe)
	}
	return out
}

func (c *FormChecker) message(fe validator.FieldError) string {
	switch fe.Field() {
	case FieldCardHolderName:
		if fe.Tag() == "required" {
			return "Card holder name is required."
		}
		return "Card holder name must be between 3 and 100 characters."
	case FieldCardNumber:
		if fe.Tag() == "required" {
			return "Card number is required."
		}
		return "Card number must contain exactly 16 digits."
	case FieldCVV:
		if fe.Tag() == "required" {
			return "CVV is required."
		}
		return "CVV must contain exactly 3 digits."
	case FieldExpiryMonth:
		if fe.Tag() == "required" {
			return "Expiry month is required."
		}
		return "Expiry month must be between 01 and 12."
	case FieldExpiryYear:
		if fe.Tag() == "required" {
			return "Expiry year is required."
		}
		return fmt.Sprintf("Expiry year must be between %d and %d.", MinExpiryYear, c.Window().Last)
	default:
		return fmt.Sprintf("%s is invalid.", fe.Field())
	}
}

// DecodeForm binds posted form values. Month and year that are present but
// not integers are reported as field errors and left at zero.
func DecodeForm(values url.Values) (models.CardSubmission, FieldErrors) {
	var errs FieldErrors
	parseInt := func(field, label string) int {
		raw := strings.TrimSpace(values.Get(field))
		if raw == "" {
			return 0
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			if errs == nil {
				errs = FieldErrors{}
			}
			errs[field] = label + " must be a number."
			return 0
		}
		return n
	}

	card := models.CardSubmission{
		CardHolderName: strings.TrimSpace(values.Get(FieldCardHolderName)),
		CardNumber:     values.Get(FieldCardNumber),
		CVV:            values.Get(FieldCVV),
		ExpiryMonth:    parseInt(FieldExpiryMonth, "Expiry month"),
		ExpiryYear:     parseInt(FieldExpiryYear, "Expiry year"),
	}
	return card, errs
}
