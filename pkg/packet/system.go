package packet

import (
	"fmt"

	"avaneesh/anpp-go/pkg/types"
)

// Verification codes a device requires before acting on destructive commands
const (
	ResetVerification                  uint32 = 0x21057A7E
	RestoreFactorySettingsVerification uint32 = 0x85429E1C
	ZeroAlignmentVerification          uint32 = 0x9A4E8055
)

// Payload sizes
const (
	AcknowledgeSize             = 4
	BootModeSize                = 1
	DeviceInformationSize       = 24
	RestoreFactorySettingsSize  = 4
	ResetSize                   = 4
	IPConfigurationSize         = 30
	SubcomponentInformationSize = 24
)

// Acknowledge reports the outcome of a command or configuration write
type Acknowledge struct {
	PacketID  ID              // ID of the packet being acknowledged
	PacketCRC uint16          // CRC of the packet being acknowledged
	Result    types.AckResult // Outcome
}

// ID returns the packet identifier
func (p *Acknowledge) ID() ID { return IDAcknowledge }

// MarshalBinary encodes the payload
func (p *Acknowledge) MarshalBinary() ([]byte, error) {
	e := newEncoder(AcknowledgeSize)
	e.u8(uint8(p.PacketID))
	e.u16(p.PacketCRC)
	e.u8(uint8(p.Result))
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *Acknowledge) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDAcknowledge, data, AcknowledgeSize); err != nil {
		return err
	}
	d := newDecoder(data)
	p.PacketID = ID(d.u8())
	p.PacketCRC = d.u16()
	p.Result = types.AckResult(d.u8())
	return nil
}

// Request asks the device to send one or more packets
type Request struct {
	IDs []ID
}

// NewRequest creates a request for the given packets
func NewRequest(ids ...ID) *Request {
	return &Request{IDs: ids}
}

// ID returns the packet identifier
func (p *Request) ID() ID { return IDRequest }

// MarshalBinary encodes the payload
func (p *Request) MarshalBinary() ([]byte, error) {
	if len(p.IDs) == 0 {
		return nil, fmt.Errorf("%w: request lists no packets", ErrValidation)
	}
	out := make([]byte, len(p.IDs))
	for i, id := range p.IDs {
		out[i] = uint8(id)
	}
	return out, nil
}

// UnmarshalBinary decodes the payload
func (p *Request) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: %s expects at least 1 byte", ErrMalformedPayload, IDRequest)
	}
	p.IDs = make([]ID, len(data))
	for i, b := range data {
		p.IDs[i] = ID(b)
	}
	return nil
}

// BootMode reads or selects the firmware image
type BootMode struct {
	Mode types.BootMode
}

// ID returns the packet identifier
func (p *BootMode) ID() ID { return IDBootMode }

// MarshalBinary encodes the payload
func (p *BootMode) MarshalBinary() ([]byte, error) {
	return []byte{uint8(p.Mode)}, nil
}

// UnmarshalBinary decodes the payload
func (p *BootMode) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDBootMode, data, BootModeSize); err != nil {
		return err
	}
	p.Mode = types.BootMode(data[0])
	return nil
}

// DeviceInformation identifies the device and its firmware
type DeviceInformation struct {
	SoftwareVersion  uint32
	DeviceID         uint32
	HardwareRevision uint32
	SerialNumber1    uint32
	SerialNumber2    uint32
	SerialNumber3    uint32
}

// ID returns the packet identifier
func (p *DeviceInformation) ID() ID { return IDDeviceInformation }

// SerialNumber formats the three serial words
func (p *DeviceInformation) SerialNumber() string {
	return fmt.Sprintf("%08X-%08X-%08X", p.SerialNumber1, p.SerialNumber2, p.SerialNumber3)
}

// MarshalBinary encodes the payload
func (p *DeviceInformation) MarshalBinary() ([]byte, error) {
	e := newEncoder(DeviceInformationSize)
	e.u32(p.SoftwareVersion)
	e.u32(p.DeviceID)
	e.u32(p.HardwareRevision)
	e.u32(p.SerialNumber1)
	e.u32(p.SerialNumber2)
	e.u32(p.SerialNumber3)
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *DeviceInformation) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDDeviceInformation, data, DeviceInformationSize); err != nil {
		return err
	}
	d := newDecoder(data)
	p.SoftwareVersion = d.u32()
	p.DeviceID = d.u32()
	p.HardwareRevision = d.u32()
	p.SerialNumber1 = d.u32()
	p.SerialNumber2 = d.u32()
	p.SerialNumber3 = d.u32()
	return nil
}

// RestoreFactorySettings resets all configuration to defaults
type RestoreFactorySettings struct {
	Verification uint32
}

// NewRestoreFactorySettings creates the packet with its verification code
func NewRestoreFactorySettings() *RestoreFactorySettings {
	return &RestoreFactorySettings{Verification: RestoreFactorySettingsVerification}
}

// ID returns the packet identifier
func (p *RestoreFactorySettings) ID() ID { return IDRestoreFactorySettings }

// Validate checks the verification code
func (p *RestoreFactorySettings) Validate() error {
	return checkVerification(IDRestoreFactorySettings, p.Verification, RestoreFactorySettingsVerification)
}

// MarshalBinary encodes the payload
func (p *RestoreFactorySettings) MarshalBinary() ([]byte, error) {
	e := newEncoder(RestoreFactorySettingsSize)
	e.u32(p.Verification)
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *RestoreFactorySettings) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDRestoreFactorySettings, data, RestoreFactorySettingsSize); err != nil {
		return err
	}
	p.Verification = newDecoder(data).u32()
	return nil
}

// Reset restarts the device
type Reset struct {
	Verification uint32
}

// NewReset creates the packet with its verification code
func NewReset() *Reset {
	return &Reset{Verification: ResetVerification}
}

// ID returns the packet identifier
func (p *Reset) ID() ID { return IDReset }

// Validate checks the verification code
func (p *Reset) Validate() error {
	return checkVerification(IDReset, p.Verification, ResetVerification)
}

// MarshalBinary encodes the payload
func (p *Reset) MarshalBinary() ([]byte, error) {
	e := newEncoder(ResetSize)
	e.u32(p.Verification)
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *Reset) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDReset, data, ResetSize); err != nil {
		return err
	}
	p.Verification = newDecoder(data).u32()
	return nil
}

// SerialPortPassthrough carries opaque bytes to or from a serial port
type SerialPortPassthrough struct {
	Data []byte
}

// ID returns the packet identifier
func (p *SerialPortPassthrough) ID() ID { return IDSerialPortPassthrough }

// MarshalBinary encodes the payload
func (p *SerialPortPassthrough) MarshalBinary() ([]byte, error) {
	return append([]byte(nil), p.Data...), nil
}

// UnmarshalBinary decodes the payload
func (p *SerialPortPassthrough) UnmarshalBinary(data []byte) error {
	p.Data = append([]byte(nil), data...)
	return nil
}

// IPConfiguration holds the device's network settings
type IPConfiguration struct {
	Permanent     bool
	DHCP          bool
	IPAddress     IPv4
	Netmask       IPv4
	Gateway       IPv4
	DNSServer     IPv4
	SerialNumber1 uint32
	SerialNumber2 uint32
	SerialNumber3 uint32
}

// ID returns the packet identifier
func (p *IPConfiguration) ID() ID { return IDIPConfiguration }

// MarshalBinary encodes the payload
func (p *IPConfiguration) MarshalBinary() ([]byte, error) {
	e := newEncoder(IPConfigurationSize)
	e.flag(p.Permanent)
	e.flag(p.DHCP)
	e.ipv4(p.IPAddress)
	e.ipv4(p.Netmask)
	e.ipv4(p.Gateway)
	e.ipv4(p.DNSServer)
	e.u32(p.SerialNumber1)
	e.u32(p.SerialNumber2)
	e.u32(p.SerialNumber3)
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *IPConfiguration) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDIPConfiguration, data, IPConfigurationSize); err != nil {
		return err
	}
	d := newDecoder(data)
	p.Permanent = d.flag()
	p.DHCP = d.flag()
	p.IPAddress = d.ipv4()
	p.Netmask = d.ipv4()
	p.Gateway = d.ipv4()
	p.DNSServer = d.ipv4()
	p.SerialNumber1 = d.u32()
	p.SerialNumber2 = d.u32()
	p.SerialNumber3 = d.u32()
	return nil
}

// Validate rejects static configurations with no address or netmask
func (p *IPConfiguration) Validate() error {
	if p.DHCP {
		return nil
	}
	if p.IPAddress.IsZero() {
		return fmt.Errorf("%w: static configuration without IP address", ErrValidation)
	}
	if p.Netmask.IsZero() {
		return fmt.Errorf("%w: static configuration without netmask", ErrValidation)
	}
	return nil
}

// SubcomponentInformation identifies an internal module of the device
type SubcomponentInformation struct {
	SoftwareVersion  uint32
	DeviceID         uint32
	HardwareRevision uint32
	SerialNumber     uint32
	HardwareID       uint32
	FirmwareVersion  uint32
}

// ID returns the packet identifier
func (p *SubcomponentInformation) ID() ID { return IDSubcomponentInformation }

// MarshalBinary encodes the payload
func (p *SubcomponentInformation) MarshalBinary() ([]byte, error) {
	e := newEncoder(SubcomponentInformationSize)
	e.u32(p.SoftwareVersion)
	e.u32(p.DeviceID)
	e.u32(p.HardwareRevision)
	e.u32(p.SerialNumber)
	e.u32(p.HardwareID)
	e.u32(p.FirmwareVersion)
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *SubcomponentInformation) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDSubcomponentInformation, data, SubcomponentInformationSize); err != nil {
		return err
	}
	d := newDecoder(data)
	p.SoftwareVersion = d.u32()
	p.DeviceID = d.u32()
	p.HardwareRevision = d.u32()
	p.SerialNumber = d.u32()
	p.HardwareID = d.u32()
	p.FirmwareVersion = d.u32()
	return nil
}

func checkVerification(id ID, got, want uint32) error {
	if got != want {
		return fmt.Errorf("%w: %s verification 0x%08X, expected 0x%08X", ErrValidation, id, got, want)
	}
	return nil
}
