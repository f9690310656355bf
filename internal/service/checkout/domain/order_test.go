package domain

import (
	"testing"
	"time"
)

func TestOrderDescriptor_Validate(t *testing.T) {
	valid := OrderDescriptor{OrderID: "order-1", UserID: "user-1", TotalAmount: 499}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	cases := []OrderDescriptor{
		{UserID: "user-1", TotalAmount: 499},
		{OrderID: "order-1", TotalAmount: 499},
		{OrderID: "order-1", UserID: "user-1"},
		{OrderID: "order-1", UserID: "user-1", TotalAmount: -1},
	}
	for i, d := range cases {
		if err := d.Validate(); err == nil {
			t.Errorf("case %d: expected validation error for %+v", i, d)
		}
	}
}

func TestDefaultPickupTime(t *testing.T) {
	now := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)
	if got := DefaultPickupTime(now); got != now.Add(30*time.Minute) {
		t.Errorf("Expected now+30m, got %v", got)
	}
}
