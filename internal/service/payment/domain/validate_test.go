package domain

import (
	"testing"
	"time"
)

// 固定判定时刻，避免有效期用例随日历漂移
var validateNow = time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)

func TestValidate_ValidCard(t *testing.T) {
	cases := []CardDetails{
		{CardNumber: "4111 1111 1111 1111", CardholderName: "Asha Rao", ExpiryDate: "12/30", CVV: "123"},
		{CardNumber: "4111111111111111", CardholderName: "Asha Rao", ExpiryDate: "12/30", CVV: "1234"},
		TestCard,
	}
	for _, card := range cases {
		result := ValidateAt(MethodCreditCard, card, validateNow)
		if !result.Valid {
			t.Errorf("Expected card %q to be valid, got errors: %v", card.CardNumber, result.Errors)
		}
		if len(result.Errors) != 0 {
			t.Errorf("Expected no errors for valid card, got %v", result.Errors)
		}
	}
}

func TestValidate_CardNumber(t *testing.T) {
	cases := []struct {
		number string
		want   string
	}{
		{"", "Card number is required"},
		{"1234", "Please enter a valid 16-digit card number"},
		{"4111-1111-1111-1111", "Please enter a valid 16-digit card number"},
		{"4111 1111 1111 111", "Please enter a valid 16-digit card number"},
		{"41111111111111112", "Please enter a valid 16-digit card number"},
	}
	for _, tc := range cases {
		card := CardDetails{CardNumber: tc.number, CardholderName: "Asha Rao", ExpiryDate: "12/30", CVV: "123"}
		result := ValidateAt(MethodDebitCard, card, validateNow)
		if result.Valid {
			t.Errorf("Expected card number %q to be rejected", tc.number)
			continue
		}
		if got := result.Errors["cardNumber"]; got != tc.want {
			t.Errorf("cardNumber %q: expected error %q, got %q", tc.number, tc.want, got)
		}
	}
}

func TestValidate_CardholderName(t *testing.T) {
	card := CardDetails{CardNumber: "4111111111111111", CardholderName: "   ", ExpiryDate: "12/30", CVV: "123"}
	result := ValidateAt(MethodCreditCard, card, validateNow)
	if result.Valid {
		t.Fatal("Expected blank cardholder name to be rejected")
	}
	if got := result.Errors["cardholderName"]; got != "Cardholder name is required" {
		t.Errorf("Expected cardholder name error, got %q", got)
	}
}

func TestValidate_Expiry(t *testing.T) {
	cases := []struct {
		expiry string
		want   string
	}{
		{"", "Expiry date is required"},
		{"1230", "Please enter a valid expiry date (MM/YY)"},
		{"1/30", "Please enter a valid expiry date (MM/YY)"},
		{"13/30", "Please enter a valid expiry date (MM/YY)"},
		{"00/30", "Please enter a valid expiry date (MM/YY)"},
		{"07/26", "Your card has expired"}, // 上个月到期
		{"08/25", "Your card has expired"},
		{"08/26", ""}, // 当月到期的卡仍然有效
		{"09/26", ""},
		{"12/30", ""},
	}
	for _, tc := range cases {
		card := CardDetails{CardNumber: "4111111111111111", CardholderName: "Asha Rao", ExpiryDate: tc.expiry, CVV: "123"}
		result := ValidateAt(MethodCreditCard, card, validateNow)
		got := result.Errors["expiryDate"]
		if got != tc.want {
			t.Errorf("expiry %q: expected error %q, got %q", tc.expiry, tc.want, got)
		}
	}
}

func TestValidate_CVV(t *testing.T) {
	cases := []struct {
		cvv  string
		want string
	}{
		{"", "CVV is required"},
		{"12", "Please enter a valid CVV"},
		{"12345", "Please enter a valid CVV"},
		{"12a", "Please enter a valid CVV"},
		{"123", ""},
		{"1234", ""},
	}
	for _, tc := range cases {
		card := CardDetails{CardNumber: "4111111111111111", CardholderName: "Asha Rao", ExpiryDate: "12/30", CVV: tc.cvv}
		result := ValidateAt(MethodCreditCard, card, validateNow)
		got := result.Errors["cvv"]
		if got != tc.want {
			t.Errorf("cvv %q: expected error %q, got %q", tc.cvv, tc.want, got)
		}
	}
}

func TestValidate_CollectsAllErrorsAtOnce(t *testing.T) {
	card := CardDetails{CardNumber: "123", CardholderName: "", ExpiryDate: "13/20", CVV: "12"}
	result := ValidateAt(MethodCreditCard, card, validateNow)
	if result.Valid {
		t.Fatal("Expected validation to fail")
	}
	if len(result.Errors) != 4 {
		t.Fatalf("Expected 4 field errors, got %d: %v", len(result.Errors), result.Errors)
	}
	for _, field := range []string{"cardNumber", "cardholderName", "expiryDate", "cvv"} {
		if result.Errors[field] == "" {
			t.Errorf("Expected an error for field %s", field)
		}
	}
}

func TestValidate_CardlessMethodsAlwaysPass(t *testing.T) {
	empty := CardDetails{}
	for _, method := range []Method{MethodWallet, MethodCashOnDelivery} {
		result := ValidateAt(method, empty, validateNow)
		if !result.Valid {
			t.Errorf("Expected %s with empty card details to pass, got %v", method, result.Errors)
		}
	}
}
