package push

import "errors"

// ErrIncompleteDescriptor is returned when a descriptor lacks a required field.
var ErrIncompleteDescriptor = errors.New("push descriptor is incomplete")

// Descriptor identifies a platform push subscription. It is the endpoint and
// key triple mirrored to the backend; one logical instance exists per device.
type Descriptor struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// Validate checks that all three fields are present.
func (d Descriptor) Validate() error {
	if d.Endpoint == "" || d.P256dh == "" || d.Auth == "" {
		return ErrIncompleteDescriptor
	}
	return nil
}
