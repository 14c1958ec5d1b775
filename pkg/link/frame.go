package link

import (
	"bytes"
	"fmt"
)

// Frame is one decoded ANPP packet: its identifier and raw payload
type Frame struct {
	ID      uint8  // Packet identifier
	Payload []byte // Payload bytes, without header
}

// NewFrame creates a frame, rejecting payloads that do not fit the length byte
func NewFrame(id uint8, payload []byte) (*Frame, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	return &Frame{ID: id, Payload: payload}, nil
}

// Encode builds the wire representation of a packet
func Encode(id uint8, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	crc := CalculateCRC(payload)
	lo, hi := byte(crc), byte(crc>>8)

	out := make([]byte, HeaderSize+len(payload))
	out[offsetLRC] = HeaderLRC(id, byte(len(payload)), lo, hi)
	out[offsetID] = id
	out[offsetLength] = byte(len(payload))
	out[offsetCRCLo] = lo
	out[offsetCRCHi] = hi
	copy(out[HeaderSize:], payload)

	return out, nil
}

// Serialize converts frame to wire format
func (f *Frame) Serialize() ([]byte, error) {
	return Encode(f.ID, f.Payload)
}

// CRC returns the CRC16 of the payload as carried in the header
func (f *Frame) CRC() uint16 {
	return CalculateCRC(f.Payload)
}

// Decode extracts the first valid frame from buf.
//
// The returned count is the number of bytes the caller should discard from
// the front of buf:
//   - a frame: bytes skipped before the header plus the whole frame
//   - ErrNeedMoreData: the noise bytes skipped before a plausible header (may be 0)
//   - ErrInvalidChecksum: everything up to and including the first byte of the
//     header whose payload failed the CRC, so the next call rescans from there
//
// Bytes that cannot start a header (LRC mismatch) are skipped one at a time.
func Decode(buf []byte) (*Frame, int, error) {
	for start := 0; ; start++ {
		if len(buf)-start < HeaderSize {
			return nil, start, ErrNeedMoreData
		}

		header := buf[start : start+HeaderSize]
		if !VerifyHeader(header) {
			continue
		}

		length := int(header[offsetLength])
		end := start + HeaderSize + length
		if len(buf) < end {
			return nil, start, ErrNeedMoreData
		}

		payload := buf[start+HeaderSize : end]
		want := uint16(header[offsetCRCLo]) | uint16(header[offsetCRCHi])<<8
		if CalculateCRC(payload) != want {
			return nil, start + 1, ErrInvalidChecksum
		}

		frame := &Frame{ID: header[offsetID], Payload: make([]byte, length)}
		copy(frame.Payload, payload)
		return frame, end, nil
	}
}

// String returns a string representation of the frame
func (f *Frame) String() string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Frame{ID=%d, ", f.ID))
	buf.WriteString(fmt.Sprintf("Len=%d", len(f.Payload)))
	if len(f.Payload) > 0 {
		n := len(f.Payload)
		if n > 16 {
			n = 16
		}
		buf.WriteString(fmt.Sprintf(", Data=% X", f.Payload[:n]))
		if n < len(f.Payload) {
			buf.WriteString(" ...")
		}
	}
	buf.WriteString("}")
	return buf.String()
}

// Clone creates a deep copy of the frame
func (f *Frame) Clone() *Frame {
	payload := make([]byte, len(f.Payload))
	copy(payload, f.Payload)
	return &Frame{ID: f.ID, Payload: payload}
}
