package anpp

import (
	"errors"

	"avaneesh/anpp-go/pkg/channel"
	"avaneesh/anpp-go/pkg/correlator"
	"avaneesh/anpp-go/pkg/link"
	"avaneesh/anpp-go/pkg/packet"
)

// Errors returned by Device methods. Test with errors.Is.
var (
	ErrTimeout           = correlator.ErrTimeout
	ErrRequestInProgress = correlator.ErrRequestInProgress
	ErrCancelled         = correlator.ErrCancelled

	ErrNotConnected   = channel.ErrNotConnected
	ErrConnectionLost = channel.ErrConnectionLost
	ErrNetwork        = channel.ErrNetwork
	ErrInvalidState   = channel.ErrInvalidState

	ErrPayloadTooLarge = link.ErrPayloadTooLarge
	ErrInvalidChecksum = link.ErrInvalidChecksum

	ErrMalformedPayload  = packet.ErrMalformedPayload
	ErrUnsupportedPacket = packet.ErrUnsupportedPacket
	ErrValidation        = packet.ErrValidation

	// ErrUnexpectedResponse means the device answered with something other
	// than the requested packet, typically a failure acknowledge
	ErrUnexpectedResponse = errors.New("unexpected response")
)
