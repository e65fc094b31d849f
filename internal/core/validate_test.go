package core

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)

func validForm() ExpenseForm {
	return ExpenseForm{
		Amount:        "42.50",
		Category:      "Food & Dining",
		Date:          "2024-01-15",
		Description:   "",
		PaymentMethod: "Cash",
	}
}

func TestValidateFormSuccess(t *testing.T) {
	e, err := ValidateForm(validForm(), testNow)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if e.Amount.Cents != 4250 {
		t.Fatalf("expected 4250 cents, got %d", e.Amount.Cents)
	}
	if e.Date != "2024-01-15" {
		t.Fatalf("unexpected date %q", e.Date)
	}
	if e.ID != "" || e.UserID != "" || !e.CreatedAt.IsZero() {
		t.Fatalf("identity and timestamps must be left unset")
	}
}

func TestValidateFormKinds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ExpenseForm)
		kind   ValidationKind
	}{
		{"empty amount", func(f *ExpenseForm) { f.Amount = "" }, InvalidAmount},
		{"non-numeric amount", func(f *ExpenseForm) { f.Amount = "abc" }, InvalidAmount},
		{"zero amount", func(f *ExpenseForm) { f.Amount = "0" }, InvalidAmount},
		{"negative amount", func(f *ExpenseForm) { f.Amount = "-5" }, InvalidAmount},
		{"amount too large", func(f *ExpenseForm) { f.Amount = "1000000" }, AmountTooLarge},
		{"empty category", func(f *ExpenseForm) { f.Category = "  " }, MissingCategory},
		{"empty date", func(f *ExpenseForm) { f.Date = "" }, MissingDate},
		{"garbage date", func(f *ExpenseForm) { f.Date = "not-a-date" }, MissingDate},
		{"future date", func(f *ExpenseForm) { f.Date = "2024-01-21" }, FutureDate},
		{"empty payment method", func(f *ExpenseForm) { f.PaymentMethod = "" }, MissingPaymentMethod},
		{"long description", func(f *ExpenseForm) {
			for i := 0; i < 501; i++ {
				f.Description += "x"
			}
		}, DescriptionTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := validForm()
			tc.mutate(&form)
			_, err := ValidateForm(form, testNow)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, ve.Kind)
			}
		})
	}
}

func TestValidateFormTodayIsNotFuture(t *testing.T) {
	form := validForm()
	form.Date = "2024-01-20" // same day as testNow
	if _, err := ValidateForm(form, testNow); err != nil {
		t.Fatalf("today must validate, got %v", err)
	}
}

func TestValidateFormFailFast(t *testing.T) {
	// Multiple broken fields: the amount rule fires first.
	form := ExpenseForm{Amount: "bad", Category: "", Date: "", PaymentMethod: ""}
	_, err := ValidateForm(form, testNow)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Kind != InvalidAmount {
		t.Fatalf("expected InvalidAmount first, got %v", err)
	}
}

func TestValidateFormTrimsDescription(t *testing.T) {
	form := validForm()
	form.Description = "  lunch  "
	e, err := ValidateForm(form, testNow)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if e.Description != "lunch" {
		t.Fatalf("expected trimmed description, got %q", e.Description)
	}
}

func TestValidateFormDeterministic(t *testing.T) {
	a, errA := ValidateForm(validForm(), testNow)
	b, errB := ValidateForm(validForm(), testNow)
	if errA != nil || errB != nil || a != b {
		t.Fatalf("identical input and clock must yield identical results")
	}
}
