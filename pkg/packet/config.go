package packet

import (
	"fmt"
	"time"

	"avaneesh/anpp-go/pkg/types"
)

// Payload sizes
const (
	PacketTimerPeriodSize           = 4
	PacketsPeriodHeaderSize         = 2
	PacketsPeriodEntrySize          = 5
	InstallationAlignmentSize       = 73
	FilterOptionsSize               = 17
	OdometerConfigurationSize       = 8
	SetZeroOrientationAlignmentSize = 5
	ReferencePointOffsetsSize       = 61
	IPDataportsConfigurationSize    = 30
	IPDataportCount                 = 4
)

// Packet timer limits in microseconds
const (
	MinTimerPeriod  = 1000
	MaxTimerPeriod  = 65000
	TimerPeriodStep = 1000
)

// Packet IDs that may be scheduled for periodic output
const (
	MinPeriodicPacketID ID = 20
	MaxPeriodicPacketID ID = 180
)

// PacketTimerPeriod sets the base tick that packet periods are counted in
type PacketTimerPeriod struct {
	Permanent          bool
	UTCSynchronisation bool
	Period             uint16 // microseconds
}

// ID returns the packet identifier
func (p *PacketTimerPeriod) ID() ID { return IDPacketTimerPeriod }

// Interval returns the period as a duration
func (p *PacketTimerPeriod) Interval() time.Duration {
	return time.Duration(p.Period) * time.Microsecond
}

// RateHz returns the tick rate
func (p *PacketTimerPeriod) RateHz() float64 {
	if p.Period == 0 {
		return 0
	}
	return 1e6 / float64(p.Period)
}

// Validate checks the period range and UTC synchronisation compatibility
func (p *PacketTimerPeriod) Validate() error {
	if p.Period < MinTimerPeriod || p.Period > MaxTimerPeriod {
		return fmt.Errorf("%w: timer period %d us outside %d-%d", ErrValidation, p.Period, MinTimerPeriod, MaxTimerPeriod)
	}
	if p.Period%TimerPeriodStep != 0 {
		return fmt.Errorf("%w: timer period %d us is not a multiple of %d", ErrValidation, p.Period, TimerPeriodStep)
	}
	if p.UTCSynchronisation && 1000000%uint32(p.Period) != 0 {
		return fmt.Errorf("%w: UTC synchronisation requires a period dividing one second, got %d us", ErrValidation, p.Period)
	}
	return nil
}

// MarshalBinary encodes the payload
func (p *PacketTimerPeriod) MarshalBinary() ([]byte, error) {
	e := newEncoder(PacketTimerPeriodSize)
	e.flag(p.Permanent)
	e.flag(p.UTCSynchronisation)
	e.u16(p.Period)
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *PacketTimerPeriod) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDPacketTimerPeriod, data, PacketTimerPeriodSize); err != nil {
		return err
	}
	d := newDecoder(data)
	p.Permanent = d.flag()
	p.UTCSynchronisation = d.flag()
	p.Period = d.u16()
	return nil
}

// PacketPeriod schedules one packet every Period timer ticks
type PacketPeriod struct {
	PacketID ID
	Period   uint32
}

// PacketsPeriod configures which packets the device emits unsolicited
type PacketsPeriod struct {
	Permanent     bool
	ClearExisting bool
	Entries       []PacketPeriod
}

// ID returns the packet identifier
func (p *PacketsPeriod) ID() ID { return IDPacketsPeriod }

// Set adds or replaces the period for id
func (p *PacketsPeriod) Set(id ID, period uint32) {
	for i := range p.Entries {
		if p.Entries[i].PacketID == id {
			p.Entries[i].Period = period
			return
		}
	}
	p.Entries = append(p.Entries, PacketPeriod{PacketID: id, Period: period})
}

// Remove deletes the entry for id, reporting whether one existed
func (p *PacketsPeriod) Remove(id ID) bool {
	for i := range p.Entries {
		if p.Entries[i].PacketID == id {
			p.Entries = append(p.Entries[:i], p.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// Period returns the configured period for id
func (p *PacketsPeriod) Period(id ID) (uint32, bool) {
	for _, e := range p.Entries {
		if e.PacketID == id {
			return e.Period, true
		}
	}
	return 0, false
}

// Validate checks entry IDs and rejects duplicates
func (p *PacketsPeriod) Validate() error {
	seen := make(map[ID]bool, len(p.Entries))
	for _, e := range p.Entries {
		if e.PacketID < MinPeriodicPacketID || e.PacketID > MaxPeriodicPacketID {
			return fmt.Errorf("%w: packet %d cannot be scheduled", ErrValidation, uint8(e.PacketID))
		}
		if seen[e.PacketID] {
			return fmt.Errorf("%w: packet %d scheduled twice", ErrValidation, uint8(e.PacketID))
		}
		seen[e.PacketID] = true
	}
	return nil
}

// MarshalBinary encodes the payload
func (p *PacketsPeriod) MarshalBinary() ([]byte, error) {
	e := newEncoder(PacketsPeriodHeaderSize + PacketsPeriodEntrySize*len(p.Entries))
	e.flag(p.Permanent)
	e.flag(p.ClearExisting)
	for _, entry := range p.Entries {
		e.u8(uint8(entry.PacketID))
		e.u32(entry.Period)
	}
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload; the entry count follows from its length
func (p *PacketsPeriod) UnmarshalBinary(data []byte) error {
	if len(data) < PacketsPeriodHeaderSize || (len(data)-PacketsPeriodHeaderSize)%PacketsPeriodEntrySize != 0 {
		return fmt.Errorf("%w: %s length %d is not 2 + 5n", ErrMalformedPayload, IDPacketsPeriod, len(data))
	}
	d := newDecoder(data)
	p.Permanent = d.flag()
	p.ClearExisting = d.flag()
	p.Entries = nil
	for n := (len(data) - PacketsPeriodHeaderSize) / PacketsPeriodEntrySize; n > 0; n-- {
		p.Entries = append(p.Entries, PacketPeriod{PacketID: ID(d.u8()), Period: d.u32()})
	}
	return nil
}

// InstallationAlignment describes how the unit is mounted in the vehicle
type InstallationAlignment struct {
	Permanent          bool
	AlignmentDCM       [3][3]float32 // row major
	GNSSAntennaOffset  Vec3          // metres, body frame
	OdometerOffset     Vec3
	ExternalDataOffset Vec3
}

// IdentityAlignment returns an alignment with no rotation and zero offsets
func IdentityAlignment() *InstallationAlignment {
	return &InstallationAlignment{
		AlignmentDCM: [3][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	}
}

// ID returns the packet identifier
func (p *InstallationAlignment) ID() ID { return IDInstallationAlignment }

// MarshalBinary encodes the payload
func (p *InstallationAlignment) MarshalBinary() ([]byte, error) {
	e := newEncoder(InstallationAlignmentSize)
	e.flag(p.Permanent)
	for _, row := range p.AlignmentDCM {
		for _, v := range row {
			e.f32(v)
		}
	}
	e.vec3(p.GNSSAntennaOffset)
	e.vec3(p.OdometerOffset)
	e.vec3(p.ExternalDataOffset)
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *InstallationAlignment) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDInstallationAlignment, data, InstallationAlignmentSize); err != nil {
		return err
	}
	d := newDecoder(data)
	p.Permanent = d.flag()
	for i := range p.AlignmentDCM {
		for j := range p.AlignmentDCM[i] {
			p.AlignmentDCM[i][j] = d.f32()
		}
	}
	p.GNSSAntennaOffset = d.vec3()
	p.OdometerOffset = d.vec3()
	p.ExternalDataOffset = d.vec3()
	return nil
}

// FilterOptions tunes the navigation filter
type FilterOptions struct {
	Permanent                  bool
	VehicleType                types.VehicleType
	InternalGNSSEnabled        bool
	Reserved1                  uint8
	AtmosphericAltitudeEnabled bool
	VelocityHeadingEnabled     bool
	ReversingDetectionEnabled  bool
	MotionAnalysisEnabled      bool
	Reserved2                  uint8
	Reserved3                  [8]uint8
}

// ID returns the packet identifier
func (p *FilterOptions) ID() ID { return IDFilterOptions }

// Validate checks the vehicle type and reserved fields
func (p *FilterOptions) Validate() error {
	if !p.VehicleType.Valid() {
		return fmt.Errorf("%w: vehicle type %d", ErrValidation, uint8(p.VehicleType))
	}
	if p.Reserved1 != 0 || p.Reserved2 != 0 || p.Reserved3 != ([8]uint8{}) {
		return fmt.Errorf("%w: reserved filter option bytes must be zero", ErrValidation)
	}
	return nil
}

// MarshalBinary encodes the payload
func (p *FilterOptions) MarshalBinary() ([]byte, error) {
	e := newEncoder(FilterOptionsSize)
	e.flag(p.Permanent)
	e.u8(uint8(p.VehicleType))
	e.flag(p.InternalGNSSEnabled)
	e.u8(p.Reserved1)
	e.flag(p.AtmosphericAltitudeEnabled)
	e.flag(p.VelocityHeadingEnabled)
	e.flag(p.ReversingDetectionEnabled)
	e.flag(p.MotionAnalysisEnabled)
	e.u8(p.Reserved2)
	e.raw(p.Reserved3[:])
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *FilterOptions) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDFilterOptions, data, FilterOptionsSize); err != nil {
		return err
	}
	d := newDecoder(data)
	p.Permanent = d.flag()
	p.VehicleType = types.VehicleType(d.u8())
	p.InternalGNSSEnabled = d.flag()
	p.Reserved1 = d.u8()
	p.AtmosphericAltitudeEnabled = d.flag()
	p.VelocityHeadingEnabled = d.flag()
	p.ReversingDetectionEnabled = d.flag()
	p.MotionAnalysisEnabled = d.flag()
	p.Reserved2 = d.u8()
	copy(p.Reserved3[:], data[d.off:])
	return nil
}

// OdometerConfiguration sets the wheel odometer pulse length
type OdometerConfiguration struct {
	Permanent                 bool
	AutomaticPulseMeasurement bool
	Reserved                  uint16
	PulseLength               float32 // metres per pulse
}

// ID returns the packet identifier
func (p *OdometerConfiguration) ID() ID { return IDOdometerConfiguration }

// Validate requires a positive pulse length unless it is being measured
func (p *OdometerConfiguration) Validate() error {
	if !p.AutomaticPulseMeasurement && !(p.PulseLength > 0) {
		return fmt.Errorf("%w: pulse length must be positive, got %g", ErrValidation, p.PulseLength)
	}
	return nil
}

// MarshalBinary encodes the payload
func (p *OdometerConfiguration) MarshalBinary() ([]byte, error) {
	e := newEncoder(OdometerConfigurationSize)
	e.flag(p.Permanent)
	e.flag(p.AutomaticPulseMeasurement)
	e.u16(p.Reserved)
	e.f32(p.PulseLength)
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *OdometerConfiguration) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDOdometerConfiguration, data, OdometerConfigurationSize); err != nil {
		return err
	}
	d := newDecoder(data)
	p.Permanent = d.flag()
	p.AutomaticPulseMeasurement = d.flag()
	p.Reserved = d.u16()
	p.PulseLength = d.f32()
	return nil
}

// SetZeroOrientationAlignment tells the device its current orientation is level
type SetZeroOrientationAlignment struct {
	Permanent    bool
	Verification uint32
}

// NewSetZeroOrientationAlignment creates the packet with its verification code
func NewSetZeroOrientationAlignment(permanent bool) *SetZeroOrientationAlignment {
	return &SetZeroOrientationAlignment{Permanent: permanent, Verification: ZeroAlignmentVerification}
}

// ID returns the packet identifier
func (p *SetZeroOrientationAlignment) ID() ID { return IDSetZeroOrientationAlignment }

// Validate checks the verification code
func (p *SetZeroOrientationAlignment) Validate() error {
	return checkVerification(IDSetZeroOrientationAlignment, p.Verification, ZeroAlignmentVerification)
}

// MarshalBinary encodes the payload
func (p *SetZeroOrientationAlignment) MarshalBinary() ([]byte, error) {
	e := newEncoder(SetZeroOrientationAlignmentSize)
	e.flag(p.Permanent)
	e.u32(p.Verification)
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *SetZeroOrientationAlignment) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDSetZeroOrientationAlignment, data, SetZeroOrientationAlignmentSize); err != nil {
		return err
	}
	d := newDecoder(data)
	p.Permanent = d.flag()
	p.Verification = d.u32()
	return nil
}

// ReferencePointOffsets locates the output reference point, the heave
// measurement points and the centre of gravity relative to the unit
type ReferencePointOffsets struct {
	Permanent        bool
	PrimaryReference Vec3
	HeavePoint2      Vec3
	HeavePoint3      Vec3
	HeavePoint4      Vec3
	CoGLeverArm      Vec3
}

// ID returns the packet identifier
func (p *ReferencePointOffsets) ID() ID { return IDReferencePointOffsets }

// MarshalBinary encodes the payload
func (p *ReferencePointOffsets) MarshalBinary() ([]byte, error) {
	e := newEncoder(ReferencePointOffsetsSize)
	e.flag(p.Permanent)
	e.vec3(p.PrimaryReference)
	e.vec3(p.HeavePoint2)
	e.vec3(p.HeavePoint3)
	e.vec3(p.HeavePoint4)
	e.vec3(p.CoGLeverArm)
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *ReferencePointOffsets) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDReferencePointOffsets, data, ReferencePointOffsetsSize); err != nil {
		return err
	}
	d := newDecoder(data)
	p.Permanent = d.flag()
	p.PrimaryReference = d.vec3()
	p.HeavePoint2 = d.vec3()
	p.HeavePoint3 = d.vec3()
	p.HeavePoint4 = d.vec3()
	p.CoGLeverArm = d.vec3()
	return nil
}

// IPDataport is one of the four network data outputs
type IPDataport struct {
	Address IPv4
	Port    uint16
	Mode    types.DataportMode
}

// Active returns true when the dataport is enabled
func (d IPDataport) Active() bool {
	return d.Mode != types.DataportNone && d.Mode != types.DataportReserved
}

// IPDataportsConfiguration configures the four IP dataports
type IPDataportsConfiguration struct {
	Reserved  uint16
	Dataports [IPDataportCount]IPDataport
}

// ID returns the packet identifier
func (p *IPDataportsConfiguration) ID() ID { return IDIPDataportsConfiguration }

// SetTCPServer makes dataport index listen on port
func (p *IPDataportsConfiguration) SetTCPServer(index int, port uint16) error {
	return p.set(index, IPDataport{Port: port, Mode: types.DataportTCPServer})
}

// SetTCPClient makes dataport index connect to addr:port
func (p *IPDataportsConfiguration) SetTCPClient(index int, addr IPv4, port uint16) error {
	return p.set(index, IPDataport{Address: addr, Port: port, Mode: types.DataportTCPClient})
}

// SetUDP makes dataport index send datagrams to addr:port
func (p *IPDataportsConfiguration) SetUDP(index int, addr IPv4, port uint16) error {
	return p.set(index, IPDataport{Address: addr, Port: port, Mode: types.DataportUDP})
}

// SetInactive disables dataport index
func (p *IPDataportsConfiguration) SetInactive(index int) error {
	return p.set(index, IPDataport{})
}

func (p *IPDataportsConfiguration) set(index int, d IPDataport) error {
	if index < 0 || index >= IPDataportCount {
		return fmt.Errorf("%w: dataport index %d", ErrValidation, index)
	}
	p.Dataports[index] = d
	return nil
}

// Active returns the indices of enabled dataports
func (p *IPDataportsConfiguration) Active() []int {
	var out []int
	for i, d := range p.Dataports {
		if d.Active() {
			out = append(out, i)
		}
	}
	return out
}

// Validate checks modes and rejects two TCP servers on the same port
func (p *IPDataportsConfiguration) Validate() error {
	servers := make(map[uint16]int)
	for i, d := range p.Dataports {
		if !d.Mode.Valid() || d.Mode == types.DataportReserved {
			return fmt.Errorf("%w: dataport %d mode %s", ErrValidation, i, d.Mode)
		}
		if d.Active() && d.Port == 0 {
			return fmt.Errorf("%w: dataport %d has no port", ErrValidation, i)
		}
		if d.Mode == types.DataportTCPServer {
			if prev, ok := servers[d.Port]; ok {
				return fmt.Errorf("%w: dataports %d and %d both serve port %d", ErrValidation, prev, i, d.Port)
			}
			servers[d.Port] = i
		}
	}
	return nil
}

// MarshalBinary encodes the payload
func (p *IPDataportsConfiguration) MarshalBinary() ([]byte, error) {
	e := newEncoder(IPDataportsConfigurationSize)
	e.u16(p.Reserved)
	for _, d := range p.Dataports {
		e.ipv4(d.Address)
		e.u16(d.Port)
		e.u8(uint8(d.Mode))
	}
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *IPDataportsConfiguration) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDIPDataportsConfiguration, data, IPDataportsConfigurationSize); err != nil {
		return err
	}
	d := newDecoder(data)
	p.Reserved = d.u16()
	for i := range p.Dataports {
		p.Dataports[i].Address = d.ipv4()
		p.Dataports[i].Port = d.u16()
		p.Dataports[i].Mode = types.DataportMode(d.u8())
	}
	return nil
}
