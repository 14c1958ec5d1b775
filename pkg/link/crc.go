package link

import "github.com/sigurn/crc16"

// ANPP protects the payload with CRC16-CCITT (polynomial 0x1021, initial
// value 0xFFFF, MSB first, no reflection, no final XOR) and the header with
// a one byte LRC.

var crcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// CalculateCRC calculates the ANPP CRC16 over data
func CalculateCRC(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// HeaderLRC computes the longitudinal redundancy check over the four header
// bytes that follow it.
func HeaderLRC(id, length, crcLo, crcHi byte) byte {
	sum := id + length + crcLo + crcHi
	return (sum ^ 0xFF) + 1
}

// VerifyHeader checks the LRC of a five byte header
func VerifyHeader(header []byte) bool {
	if len(header) < HeaderSize {
		return false
	}
	return header[offsetLRC] == HeaderLRC(
		header[offsetID], header[offsetLength], header[offsetCRCLo], header[offsetCRCHi])
}
