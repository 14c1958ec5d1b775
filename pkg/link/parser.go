package link

import "errors"

// Parser reassembles frames from an arbitrarily chunked byte stream
type Parser struct {
	buf            []byte
	skippedBytes   uint64
	checksumErrors uint64
}

// NewParser creates an empty stream parser
func NewParser() *Parser {
	return &Parser{buf: make([]byte, 0, 2*MaxFrameSize)}
}

// Feed appends received bytes to the parse buffer
func (p *Parser) Feed(data []byte) {
	p.buf = append(p.buf, data...)
}

// Next returns the next complete frame in the buffer.
//
// It returns ErrNeedMoreData when no complete frame is buffered and
// ErrInvalidChecksum when a candidate frame failed its CRC; in the latter
// case the offending byte has already been dropped and Next can be called
// again immediately.
func (p *Parser) Next() (*Frame, error) {
	frame, n, err := Decode(p.buf)
	switch {
	case err == nil:
		p.skippedBytes += uint64(n - HeaderSize - len(frame.Payload))
	case errors.Is(err, ErrInvalidChecksum):
		p.checksumErrors++
		p.skippedBytes += uint64(n)
	default:
		p.skippedBytes += uint64(n)
	}
	p.consume(n)
	return frame, err
}

// Buffered returns the number of bytes waiting to be parsed
func (p *Parser) Buffered() int {
	return len(p.buf)
}

// SkippedBytes returns how many bytes were discarded while resynchronising
func (p *Parser) SkippedBytes() uint64 {
	return p.skippedBytes
}

// ChecksumErrors returns how many candidate frames failed the CRC check
func (p *Parser) ChecksumErrors() uint64 {
	return p.checksumErrors
}

// Reset discards buffered data, e.g. after a reconnect
func (p *Parser) Reset() {
	p.buf = p.buf[:0]
}

func (p *Parser) consume(n int) {
	if n <= 0 {
		return
	}
	p.buf = append(p.buf[:0], p.buf[n:]...)
}
