package anpp

import (
	"time"

	"avaneesh/anpp-go/pkg/channel"
	"avaneesh/anpp-go/pkg/config"
	"avaneesh/anpp-go/pkg/internal/logger"
	"avaneesh/anpp-go/pkg/link"
)

// DefaultPort is the TCP port devices listen on
const DefaultPort = link.DefaultPort

// DeviceConfig configures a Device
type DeviceConfig struct {
	// Connection
	Address        string // host:port
	ConnectTimeout time.Duration
	Dialer         channel.Dialer // Defaults to TCP

	// Requests
	ResponseTimeout time.Duration

	// Behavior
	Reconnect channel.ReconnectPolicy
	Listener  channel.ConnectionStateListener

	Logger logger.Logger
}

// DefaultDeviceConfig returns a config for address with one second
// timeouts and the default reconnect policy
func DefaultDeviceConfig(address string) DeviceConfig {
	return DeviceConfig{
		Address:         address,
		ConnectTimeout:  time.Second,
		ResponseTimeout: time.Second,
		Reconnect:       channel.DefaultReconnectPolicy(),
	}
}

// DeviceConfigFromFile converts loaded file settings
func DeviceConfigFromFile(f config.File) DeviceConfig {
	return DeviceConfig{
		Address:         f.Address(),
		ConnectTimeout:  f.Timeout(),
		ResponseTimeout: f.Timeout(),
		Reconnect:       f.ReconnectPolicy(),
	}
}
