// Package packet implements the payload layouts of the ANPP packets a client
// exchanges with a device, and a registry mapping packet IDs to them.
package packet

import (
	"errors"
	"fmt"
)

// ID identifies an ANPP packet type
type ID uint8

// System packets
const (
	IDAcknowledge             ID = 0
	IDRequest                 ID = 1
	IDBootMode                ID = 2
	IDDeviceInformation       ID = 3
	IDRestoreFactorySettings  ID = 4
	IDReset                   ID = 5
	IDSerialPortPassthrough   ID = 10
	IDIPConfiguration         ID = 11
	IDSubcomponentInformation ID = 14
)

// State packets
const (
	IDSystemState            ID = 20
	IDUnixTime               ID = 21
	IDFormattedTime          ID = 22
	IDStatus                 ID = 23
	IDEulerOrientationStdDev ID = 26
	IDRawSensors             ID = 28
	IDSatellites             ID = 30
	IDExternalTime           ID = 52
	IDHeave                  ID = 58
	IDSensorTemperature      ID = 85
)

// Configuration packets
const (
	IDPacketTimerPeriod           ID = 180
	IDPacketsPeriod               ID = 181
	IDInstallationAlignment       ID = 185
	IDFilterOptions               ID = 186
	IDOdometerConfiguration       ID = 192
	IDSetZeroOrientationAlignment ID = 193
	IDReferencePointOffsets       ID = 194
	IDIPDataportsConfiguration    ID = 202
)

// Errors
var (
	ErrMalformedPayload  = errors.New("malformed payload")
	ErrUnsupportedPacket = errors.New("unsupported packet")
	ErrValidation        = errors.New("validation failed")
)

// Packet is a typed ANPP payload
type Packet interface {
	ID() ID
	MarshalBinary() ([]byte, error)
	UnmarshalBinary(data []byte) error
}

type entry struct {
	name string
	new  func() Packet
}

var registry = map[ID]entry{
	IDAcknowledge:                 {"Acknowledge", func() Packet { return new(Acknowledge) }},
	IDRequest:                     {"Request", func() Packet { return new(Request) }},
	IDBootMode:                    {"BootMode", func() Packet { return new(BootMode) }},
	IDDeviceInformation:           {"DeviceInformation", func() Packet { return new(DeviceInformation) }},
	IDRestoreFactorySettings:      {"RestoreFactorySettings", func() Packet { return new(RestoreFactorySettings) }},
	IDReset:                       {"Reset", func() Packet { return new(Reset) }},
	IDSerialPortPassthrough:       {"SerialPortPassthrough", func() Packet { return new(SerialPortPassthrough) }},
	IDIPConfiguration:             {"IPConfiguration", func() Packet { return new(IPConfiguration) }},
	IDSubcomponentInformation:     {"SubcomponentInformation", func() Packet { return new(SubcomponentInformation) }},
	IDSystemState:                 {"SystemState", func() Packet { return new(SystemState) }},
	IDUnixTime:                    {"UnixTime", func() Packet { return new(UnixTime) }},
	IDFormattedTime:               {"FormattedTime", func() Packet { return new(FormattedTime) }},
	IDStatus:                      {"Status", func() Packet { return new(Status) }},
	IDEulerOrientationStdDev:      {"EulerOrientationStdDev", func() Packet { return new(EulerOrientationStdDev) }},
	IDRawSensors:                  {"RawSensors", func() Packet { return new(RawSensors) }},
	IDSatellites:                  {"Satellites", func() Packet { return new(Satellites) }},
	IDExternalTime:                {"ExternalTime", func() Packet { return new(ExternalTime) }},
	IDHeave:                       {"Heave", func() Packet { return new(Heave) }},
	IDSensorTemperature:           {"SensorTemperature", func() Packet { return new(SensorTemperature) }},
	IDPacketTimerPeriod:           {"PacketTimerPeriod", func() Packet { return new(PacketTimerPeriod) }},
	IDPacketsPeriod:               {"PacketsPeriod", func() Packet { return new(PacketsPeriod) }},
	IDInstallationAlignment:       {"InstallationAlignment", func() Packet { return new(InstallationAlignment) }},
	IDFilterOptions:               {"FilterOptions", func() Packet { return new(FilterOptions) }},
	IDOdometerConfiguration:       {"OdometerConfiguration", func() Packet { return new(OdometerConfiguration) }},
	IDSetZeroOrientationAlignment: {"SetZeroOrientationAlignment", func() Packet { return new(SetZeroOrientationAlignment) }},
	IDReferencePointOffsets:       {"ReferencePointOffsets", func() Packet { return new(ReferencePointOffsets) }},
	IDIPDataportsConfiguration:    {"IPDataportsConfiguration", func() Packet { return new(IPDataportsConfiguration) }},
}

// String returns the packet name, or its number when unknown
func (id ID) String() string {
	if e, ok := registry[id]; ok {
		return e.name
	}
	return fmt.Sprintf("Packet(%d)", uint8(id))
}

// Known returns true if the registry has a typed layout for id
func (id ID) Known() bool {
	_, ok := registry[id]
	return ok
}

// New returns an empty packet of the given type
func New(id ID) (Packet, error) {
	e, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedPacket, uint8(id))
	}
	return e.new(), nil
}

// Decode parses payload according to the layout registered for id.
// Unregistered IDs decode to *Raw so callers can still inspect them.
func Decode(id ID, payload []byte) (Packet, error) {
	e, ok := registry[id]
	if !ok {
		raw := &Raw{PacketID: id}
		return raw, raw.UnmarshalBinary(payload)
	}

	p := e.new()
	if err := p.UnmarshalBinary(payload); err != nil {
		return nil, err
	}
	return p, nil
}

// IDs returns every registered packet ID in ascending order
func IDs() []ID {
	ids := make([]ID, 0, len(registry))
	for i := 0; i < 256; i++ {
		if _, ok := registry[ID(i)]; ok {
			ids = append(ids, ID(i))
		}
	}
	return ids
}

// Raw carries the payload of a packet with no registered layout
type Raw struct {
	PacketID ID
	Data     []byte
}

// ID returns the packet identifier
func (p *Raw) ID() ID { return p.PacketID }

// MarshalBinary returns the payload unchanged
func (p *Raw) MarshalBinary() ([]byte, error) {
	return append([]byte(nil), p.Data...), nil
}

// UnmarshalBinary keeps a copy of data
func (p *Raw) UnmarshalBinary(data []byte) error {
	p.Data = append([]byte(nil), data...)
	return nil
}

func expectLength(id ID, data []byte, size int) error {
	if len(data) != size {
		return fmt.Errorf("%w: %s expects %d bytes, got %d", ErrMalformedPayload, id, size, len(data))
	}
	return nil
}
