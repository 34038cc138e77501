package logging

import (
	"context"
	"testing"
)

func TestWithDeviceID(t *testing.T) {
	ctx := WithDeviceID(context.Background(), "dev-123")

	if got := GetDeviceID(ctx); got != "dev-123" {
		t.Errorf("GetDeviceID() = %q, want %q", got, "dev-123")
	}
}

func TestWithOrderID(t *testing.T) {
	ctx := WithOrderID(context.Background(), 42)

	got, ok := GetOrderID(ctx)
	if !ok {
		t.Fatal("GetOrderID() reported missing order id")
	}
	if got != 42 {
		t.Errorf("GetOrderID() = %d, want 42", got)
	}
}

func TestGetDeviceID_NotPresent(t *testing.T) {
	if got := GetDeviceID(context.Background()); got != "" {
		t.Errorf("GetDeviceID() = %q, want empty string", got)
	}
}

func TestGetOrderID_NotPresent(t *testing.T) {
	if _, ok := GetOrderID(context.Background()); ok {
		t.Error("GetOrderID() reported an order id on an empty context")
	}
}
