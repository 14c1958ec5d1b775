// Package anpp is the client API for devices speaking the Advanced
// Navigation Packet Protocol over TCP.
//
// A Device owns one connection. Requests are strictly sequential: a call
// made while another is waiting for its response fails with
// ErrRequestInProgress.
package anpp

import (
	"context"
	"fmt"
	"time"

	"avaneesh/anpp-go/pkg/channel"
	"avaneesh/anpp-go/pkg/correlator"
	"avaneesh/anpp-go/pkg/internal/logger"
	"avaneesh/anpp-go/pkg/link"
	"avaneesh/anpp-go/pkg/packet"
)

// Device is a connection to one ANPP device
type Device struct {
	config  DeviceConfig
	channel *channel.Channel
	logger  logger.Logger
}

// NewDevice creates a disconnected device client
func NewDevice(config DeviceConfig) *Device {
	if config.Logger == nil {
		config.Logger = logger.GetDefault()
	}

	ch := channel.New(channel.Config{
		Address:        config.Address,
		Dialer:         config.Dialer,
		ConnectTimeout: config.ConnectTimeout,
		Reconnect:      config.Reconnect,
		Logger:         config.Logger,
		Listener:       config.Listener,
	})

	return &Device{
		config:  config,
		channel: ch,
		logger:  config.Logger,
	}
}

// Address returns the device address
func (d *Device) Address() string {
	return d.config.Address
}

// Connect opens the connection
func (d *Device) Connect(ctx context.Context) error {
	return d.channel.Connect(ctx)
}

// Disconnect closes the connection. Pending requests fail with ErrCancelled.
func (d *Device) Disconnect() error {
	return d.channel.Disconnect()
}

// IsConnected reports whether the connection is up
func (d *Device) IsConnected() bool {
	return d.channel.IsConnected()
}

// State returns the connection state
func (d *Device) State() channel.State {
	return d.channel.State()
}

// Statistics returns connection statistics
func (d *Device) Statistics() channel.Snapshot {
	return d.channel.Statistics()
}

// SendPacket sends a raw payload and returns the device's answer. A Request
// packet is answered by the first packet it names; anything else by an
// Acknowledge.
func (d *Device) SendPacket(ctx context.Context, id packet.ID, payload []byte) (packet.ID, []byte, error) {
	match := correlator.ExpectAck(uint8(id))
	if id == packet.IDRequest && len(payload) > 0 {
		match = correlator.ExpectPacketOrAck(payload[0])
	}

	frame, err := d.exchange(ctx, uint8(id), payload, match)
	if err != nil {
		return 0, nil, err
	}
	return packet.ID(frame.ID), frame.Payload, nil
}

// Request asks the device for packet id and decodes the answer. A failure
// acknowledge is reported as ErrUnexpectedResponse.
func (d *Device) Request(ctx context.Context, id packet.ID) (packet.Packet, error) {
	payload, err := packet.NewRequest(id).MarshalBinary()
	if err != nil {
		return nil, err
	}

	frame, err := d.exchange(ctx, uint8(packet.IDRequest), payload, correlator.ExpectPacketOrAck(uint8(id)))
	if err != nil {
		return nil, err
	}

	if packet.ID(frame.ID) == packet.IDAcknowledge && id != packet.IDAcknowledge {
		ack := &packet.Acknowledge{}
		if err := ack.UnmarshalBinary(frame.Payload); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: request for %s answered with %s", ErrUnexpectedResponse, id, ack.Result)
	}

	return packet.Decode(packet.ID(frame.ID), frame.Payload)
}

// Write sends p and returns the device's acknowledge. A rejected write is
// not an error; check the acknowledge result.
func (d *Device) Write(ctx context.Context, p packet.Packet) (*packet.Acknowledge, error) {
	payload, err := p.MarshalBinary()
	if err != nil {
		return nil, err
	}

	frame, err := d.exchange(ctx, uint8(p.ID()), payload, correlator.ExpectAck(uint8(p.ID())))
	if err != nil {
		return nil, err
	}

	ack := &packet.Acknowledge{}
	if err := ack.UnmarshalBinary(frame.Payload); err != nil {
		return nil, err
	}
	if !ack.Result.OK() {
		d.logger.Warn("Device %s rejected %s: %s", d.config.Address, p.ID(), ack.Result)
	}
	return ack, nil
}

// OnPacket calls handler with every unsolicited packet id, decoded. The
// handler runs on the connection's read goroutine and must not block or
// call Disconnect.
func (d *Device) OnPacket(id packet.ID, handler func(packet.Packet)) channel.Subscription {
	return d.channel.Subscribe(uint8(id), d.observer(handler))
}

// OnAnyPacket calls handler with every unsolicited packet
func (d *Device) OnAnyPacket(handler func(packet.Packet)) channel.Subscription {
	return d.channel.SubscribeAll(d.observer(handler))
}

// Unsubscribe removes a packet handler
func (d *Device) Unsubscribe(sub channel.Subscription) {
	d.channel.Unsubscribe(sub)
}

func (d *Device) observer(handler func(packet.Packet)) channel.Observer {
	return channel.ObserverFunc(func(frame *link.Frame) {
		p, err := packet.Decode(packet.ID(frame.ID), frame.Payload)
		if err != nil {
			d.logger.Warn("Device %s sent undecodable %s: %v", d.config.Address, packet.ID(frame.ID), err)
			return
		}
		handler(p)
	})
}

func (d *Device) exchange(ctx context.Context, id uint8, payload []byte, match correlator.Matcher) (*link.Frame, error) {
	return d.channel.Exchange(ctx, correlator.Request{
		ID:      id,
		Payload: payload,
		Match:   match,
		Timeout: d.config.ResponseTimeout,
	})
}

// get requests id and asserts the decoded type
func get[T packet.Packet](ctx context.Context, d *Device, id packet.ID) (T, error) {
	var zero T
	p, err := d.Request(ctx, id)
	if err != nil {
		return zero, err
	}
	typed, ok := p.(T)
	if !ok {
		return zero, fmt.Errorf("%w: expected %s, got %T", ErrUnexpectedResponse, id, p)
	}
	return typed, nil
}

// GetDeviceInformation requests the device identity
func (d *Device) GetDeviceInformation(ctx context.Context) (*packet.DeviceInformation, error) {
	return get[*packet.DeviceInformation](ctx, d, packet.IDDeviceInformation)
}

// GetSystemState requests the navigation solution
func (d *Device) GetSystemState(ctx context.Context) (*packet.SystemState, error) {
	return get[*packet.SystemState](ctx, d, packet.IDSystemState)
}

// GetStatus requests the system and filter status words
func (d *Device) GetStatus(ctx context.Context) (*packet.Status, error) {
	return get[*packet.Status](ctx, d, packet.IDStatus)
}

// GetUnixTime requests the device clock
func (d *Device) GetUnixTime(ctx context.Context) (*packet.UnixTime, error) {
	return get[*packet.UnixTime](ctx, d, packet.IDUnixTime)
}

// GetFormattedTime requests the device clock as calendar fields
func (d *Device) GetFormattedTime(ctx context.Context) (*packet.FormattedTime, error) {
	return get[*packet.FormattedTime](ctx, d, packet.IDFormattedTime)
}

// GetSatellites requests satellite counts and dilution of precision
func (d *Device) GetSatellites(ctx context.Context) (*packet.Satellites, error) {
	return get[*packet.Satellites](ctx, d, packet.IDSatellites)
}

// GetEulerOrientationStdDev requests orientation uncertainty
func (d *Device) GetEulerOrientationStdDev(ctx context.Context) (*packet.EulerOrientationStdDev, error) {
	return get[*packet.EulerOrientationStdDev](ctx, d, packet.IDEulerOrientationStdDev)
}

// GetRawSensors requests raw IMU and pressure readings
func (d *Device) GetRawSensors(ctx context.Context) (*packet.RawSensors, error) {
	return get[*packet.RawSensors](ctx, d, packet.IDRawSensors)
}

// GetIPConfiguration requests the network settings
func (d *Device) GetIPConfiguration(ctx context.Context) (*packet.IPConfiguration, error) {
	return get[*packet.IPConfiguration](ctx, d, packet.IDIPConfiguration)
}

// GetPacketTimerPeriod requests the base packet timer
func (d *Device) GetPacketTimerPeriod(ctx context.Context) (*packet.PacketTimerPeriod, error) {
	return get[*packet.PacketTimerPeriod](ctx, d, packet.IDPacketTimerPeriod)
}

// GetPacketsPeriod requests the periodic packet schedule
func (d *Device) GetPacketsPeriod(ctx context.Context) (*packet.PacketsPeriod, error) {
	return get[*packet.PacketsPeriod](ctx, d, packet.IDPacketsPeriod)
}

// GetInstallationAlignment requests the mounting alignment
func (d *Device) GetInstallationAlignment(ctx context.Context) (*packet.InstallationAlignment, error) {
	return get[*packet.InstallationAlignment](ctx, d, packet.IDInstallationAlignment)
}

// GetFilterOptions requests the navigation filter options
func (d *Device) GetFilterOptions(ctx context.Context) (*packet.FilterOptions, error) {
	return get[*packet.FilterOptions](ctx, d, packet.IDFilterOptions)
}

// GetOdometerConfiguration requests the odometer settings
func (d *Device) GetOdometerConfiguration(ctx context.Context) (*packet.OdometerConfiguration, error) {
	return get[*packet.OdometerConfiguration](ctx, d, packet.IDOdometerConfiguration)
}

// GetReferencePointOffsets requests the heave and reference offsets
func (d *Device) GetReferencePointOffsets(ctx context.Context) (*packet.ReferencePointOffsets, error) {
	return get[*packet.ReferencePointOffsets](ctx, d, packet.IDReferencePointOffsets)
}

// GetIPDataports requests the dataport configuration
func (d *Device) GetIPDataports(ctx context.Context) (*packet.IPDataportsConfiguration, error) {
	return get[*packet.IPDataportsConfiguration](ctx, d, packet.IDIPDataportsConfiguration)
}

// ConfigureIP writes the network settings. The device applies them after
// its next restart.
func (d *Device) ConfigureIP(ctx context.Context, cfg *packet.IPConfiguration) (*packet.Acknowledge, error) {
	return d.Write(ctx, cfg)
}

// SetPacketTimerPeriod writes the base packet timer
func (d *Device) SetPacketTimerPeriod(ctx context.Context, p *packet.PacketTimerPeriod) (*packet.Acknowledge, error) {
	return d.Write(ctx, p)
}

// SetPacketsPeriod writes the periodic packet schedule
func (d *Device) SetPacketsPeriod(ctx context.Context, p *packet.PacketsPeriod) (*packet.Acknowledge, error) {
	return d.Write(ctx, p)
}

// SetInstallationAlignment writes the mounting alignment
func (d *Device) SetInstallationAlignment(ctx context.Context, p *packet.InstallationAlignment) (*packet.Acknowledge, error) {
	return d.Write(ctx, p)
}

// SetFilterOptions writes the navigation filter options
func (d *Device) SetFilterOptions(ctx context.Context, p *packet.FilterOptions) (*packet.Acknowledge, error) {
	return d.Write(ctx, p)
}

// SetOdometerConfiguration writes the odometer settings
func (d *Device) SetOdometerConfiguration(ctx context.Context, p *packet.OdometerConfiguration) (*packet.Acknowledge, error) {
	return d.Write(ctx, p)
}

// SetReferencePointOffsets writes the heave and reference offsets
func (d *Device) SetReferencePointOffsets(ctx context.Context, p *packet.ReferencePointOffsets) (*packet.Acknowledge, error) {
	return d.Write(ctx, p)
}

// SetIPDataports writes the dataport configuration
func (d *Device) SetIPDataports(ctx context.Context, p *packet.IPDataportsConfiguration) (*packet.Acknowledge, error) {
	return d.Write(ctx, p)
}

// SetExternalTime sends a time reference to the device
func (d *Device) SetExternalTime(ctx context.Context, t time.Time) (*packet.Acknowledge, error) {
	return d.Write(ctx, packet.NewExternalTime(t))
}

// SetZeroOrientationAlignment tells the device its current orientation is level
func (d *Device) SetZeroOrientationAlignment(ctx context.Context, permanent bool) (*packet.Acknowledge, error) {
	return d.Write(ctx, packet.NewSetZeroOrientationAlignment(permanent))
}

// ResetDevice restarts the device. The device drops the connection once it
// acknowledges, so the client disconnects afterwards.
func (d *Device) ResetDevice(ctx context.Context) (*packet.Acknowledge, error) {
	return d.restart(ctx, packet.NewReset())
}

// RestoreFactorySettings resets all configuration and restarts the device
func (d *Device) RestoreFactorySettings(ctx context.Context) (*packet.Acknowledge, error) {
	return d.restart(ctx, packet.NewRestoreFactorySettings())
}

func (d *Device) restart(ctx context.Context, p packet.Packet) (*packet.Acknowledge, error) {
	ack, err := d.Write(ctx, p)
	if err != nil {
		return nil, err
	}
	if ack.Result.OK() {
		d.logger.Info("Device %s accepted %s, disconnecting", d.config.Address, p.ID())
		d.Disconnect()
	}
	return ack, nil
}
