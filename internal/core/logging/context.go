package logging

import "context"

type contextKey string

const (
	deviceIDKey contextKey = "device_id"
	orderIDKey  contextKey = "order_id"
)

// WithDeviceID adds the local device identifier to the context.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceIDKey, deviceID)
}

// WithOrderID adds an order ID to the context.
func WithOrderID(ctx context.Context, orderID int64) context.Context {
	return context.WithValue(ctx, orderIDKey, orderID)
}

// GetDeviceID retrieves the device ID from the context.
// Returns empty string if not present.
func GetDeviceID(ctx context.Context) string {
	if id, ok := ctx.Value(deviceIDKey).(string); ok {
		return id
	}
	return ""
}

// GetOrderID retrieves the order ID from the context.
// The boolean reports whether one was set.
func GetOrderID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(orderIDKey).(int64)
	return id, ok
}
