package core

import (
	"errors"
	"strings"
	"time"
)

// ValidationKind identifies which rule a form submission broke.
type ValidationKind string

const (
	InvalidAmount        ValidationKind = "invalid_amount"
	AmountTooLarge       ValidationKind = "amount_too_large"
	MissingCategory      ValidationKind = "missing_category"
	MissingDate          ValidationKind = "missing_date"
	FutureDate           ValidationKind = "future_date"
	MissingPaymentMethod ValidationKind = "missing_payment_method"
	DescriptionTooLong   ValidationKind = "description_too_long"
)

// ValidationError is a domain rule violation, raised before any store call.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErr(kind ValidationKind, msg string) *ValidationError {
	return &ValidationError{Kind: kind, Message: msg}
}

// MaxDescriptionLen bounds the optional description field.
const MaxDescriptionLen = 500

// ValidateForm checks a form submission against the domain rules, first
// failure wins. On success it returns an Expense carrying the coerced fields;
// identity and timestamps are left for the store to assign.
//
// "Today" is derived from now, so validation is deterministic under an
// injected clock. A date is rejected only when it is strictly after the end
// of now's calendar day, in now's location.
func ValidateForm(form ExpenseForm, now time.Time) (Expense, error) {
	amount, err := ParseAmount(form.Amount)
	if err != nil {
		if errors.Is(err, errAmountTooLarge) {
			return Expense{}, validationErr(AmountTooLarge, "Amount cannot exceed 999,999.99")
		}
		return Expense{}, validationErr(InvalidAmount, "Please enter a valid amount")
	}

	if strings.TrimSpace(form.Category) == "" {
		return Expense{}, validationErr(MissingCategory, "Please select a category")
	}

	if strings.TrimSpace(form.Date) == "" {
		return Expense{}, validationErr(MissingDate, "Please select a date")
	}
	date, err := time.ParseInLocation(DateLayout, strings.TrimSpace(form.Date), now.Location())
	if err != nil {
		return Expense{}, validationErr(MissingDate, "Please select a valid date")
	}
	endOfToday := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 999e6, now.Location())
	if date.After(endOfToday) {
		return Expense{}, validationErr(FutureDate, "Date cannot be in the future")
	}

	if strings.TrimSpace(form.PaymentMethod) == "" {
		return Expense{}, validationErr(MissingPaymentMethod, "Please select a payment method")
	}

	if len(form.Description) > MaxDescriptionLen {
		return Expense{}, validationErr(DescriptionTooLong, "Description cannot exceed 500 characters")
	}

	return Expense{
		Amount:        amount,
		Category:      form.Category,
		Date:          date.Format(DateLayout),
		Description:   strings.TrimSpace(form.Description),
		PaymentMethod: form.PaymentMethod,
	}, nil
}
