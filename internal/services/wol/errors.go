package wol

import (
	"errors"
	"fmt"
)

// Errors returned by the wake pipeline. Stage errors wrap one of these.
var (
	ErrInvalidFormat     = errors.New("invalid MAC address")
	ErrInvalidHexDigit   = errors.New("invalid hex digit in MAC address")
	ErrAddressResolution = errors.New("cannot resolve target address")
	ErrTransmission      = errors.New("cannot transmit magic packet")
)

// WakeError is returned by Handler.Wake and carries the command as received.
type WakeError struct {
	MAC string
	Err error
}

func (e *WakeError) Error() string {
	return fmt.Sprintf("wake %q: %v", e.MAC, e.Err)
}

func (e *WakeError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err was caused by a malformed MAC address.
func IsParseError(err error) bool {
	return errors.Is(err, ErrInvalidFormat) || errors.Is(err, ErrInvalidHexDigit)
}

// FailureReason maps an error to a short label for metrics.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidFormat):
		return "invalid_format"
	case errors.Is(err, ErrInvalidHexDigit):
		return "invalid_hex_digit"
	case errors.Is(err, ErrAddressResolution):
		return "address_resolution"
	case errors.Is(err, ErrTransmission):
		return "transmission"
	default:
		return "unknown"
	}
}
