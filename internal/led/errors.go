package led

import "errors"

var (
	// ErrInvalidConfiguration reports a non-positive LED count or an
	// unusable device address.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrDeviceUnavailable reports an SPI port that cannot be opened or
	// configured for read-write use.
	ErrDeviceUnavailable = errors.New("device unavailable")
	// ErrInvalidFrameLength reports a raw frame whose length is not
	// NumLEDs*3.
	ErrInvalidFrameLength = errors.New("invalid frame length")
	// ErrTransmit reports a failed transfer on the transport.
	ErrTransmit = errors.New("transmit failed")
)
