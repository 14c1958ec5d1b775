package simulator

import (
	"time"

	"avaneesh/anpp-go/pkg/internal/logger"
	"avaneesh/anpp-go/pkg/packet"
)

// Config configures a simulated device
type Config struct {
	Address           string                   // Listen address; port 0 picks a free port
	DeviceInformation packet.DeviceInformation // Identity reported for packet 3
	Clock             func() time.Time         // Source for time packets (default time.Now)
	ResponseDelay     time.Duration            // Added before every reply
	Logger            logger.Logger
}

// DefaultConfig returns a config listening on a free loopback port
func DefaultConfig() Config {
	return Config{
		Address: "127.0.0.1:0",
		DeviceInformation: packet.DeviceInformation{
			SoftwareVersion:  7010,
			DeviceID:         30,
			HardwareRevision: 2,
			SerialNumber1:    0x00000001,
			SerialNumber2:    0x00C0FFEE,
			SerialNumber3:    0x00000A5A,
		},
		Clock: time.Now,
	}
}
