package link

import "errors"

// ANPP frame layout
//
//	[LRC][packet id][length][CRC lo][CRC hi][payload 0..255]

// Frame sizes
const (
	HeaderSize     = 5                         // LRC + id + length + CRC16
	MaxPayloadSize = 255                       // Largest payload the length byte can describe
	MaxFrameSize   = HeaderSize + MaxPayloadSize // Largest encoded frame
)

// Header field offsets
const (
	offsetLRC    = 0
	offsetID     = 1
	offsetLength = 2
	offsetCRCLo  = 3
	offsetCRCHi  = 4
)

// DefaultPort is the TCP port ANPP devices listen on
const DefaultPort = 16718

// Errors
var (
	ErrPayloadTooLarge = errors.New("payload exceeds 255 bytes")
	ErrInvalidChecksum = errors.New("invalid CRC16 checksum")
	ErrInvalidHeader   = errors.New("invalid header LRC")
	ErrNeedMoreData    = errors.New("need more data")
)
