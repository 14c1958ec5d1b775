package packet

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"testing"

	"avaneesh/anpp-go/pkg/types"
)

// roundTripCases covers every registered packet type with non-trivial values
func roundTripCases() []Packet {
	return []Packet{
		&Acknowledge{PacketID: IDFilterOptions, PacketCRC: 0xBEEF, Result: types.AckFailureRange},
		&Request{IDs: []ID{IDDeviceInformation}},
		&Request{IDs: []ID{IDSystemState, IDStatus, IDSatellites}},
		&BootMode{Mode: types.BootModeMainProgram},
		&DeviceInformation{SoftwareVersion: 7, DeviceID: 17, HardwareRevision: 3, SerialNumber1: 0xDEADBEEF, SerialNumber2: 1, SerialNumber3: math.MaxUint32},
		NewRestoreFactorySettings(),
		NewReset(),
		&SerialPortPassthrough{},
		&SerialPortPassthrough{Data: []byte("$GPGGA")},
		&IPConfiguration{
			Permanent: true,
			IPAddress: MustParseIPv4("192.168.1.100"),
			Netmask:   MustParseIPv4("255.255.255.0"),
			Gateway:   MustParseIPv4("192.168.1.1"),
			DNSServer: MustParseIPv4("8.8.8.8"),
			SerialNumber1: 1, SerialNumber2: 2, SerialNumber3: 3,
		},
		&SubcomponentInformation{SoftwareVersion: 1, DeviceID: 2, HardwareRevision: 3, SerialNumber: 4, HardwareID: 5, FirmwareVersion: 6},
		&SystemState{
			SystemStatus:     types.GNSSAntennaDisconnected,
			FilterStatus:     types.FilterStatus(0x002F),
			UnixSeconds:      1700000000,
			Microseconds:     999999,
			Latitude:         -0.5934,
			Longitude:        2.6362,
			Height:           -12.5,
			Velocity:         Vec3{1.5, -0.25, 0.125},
			BodyAcceleration: Vec3{0.01, 0.02, -9.81},
			GForce:           1.001,
			Roll:             0.1,
			Pitch:            -0.2,
			Heading:          3.1,
			AngularVelocity:  Vec3{-1, 0, 1},
			LatitudeStdDev:   0.5,
			LongitudeStdDev:  0.6,
			HeightStdDev:     float32(math.Inf(1)),
		},
		&UnixTime{Seconds: math.MaxUint32, Microseconds: 0},
		&FormattedTime{Microseconds: 123456, Year: 2024, YearDay: 365, Month: 11, MonthDay: 30, WeekDay: 2, Hour: 23, Minute: 59, Second: 60},
		&Status{SystemStatus: 0xFFFF, FilterStatus: 0x0070},
		&EulerOrientationStdDev{Roll: 0.01, Pitch: 0.02, Heading: 0.5},
		&RawSensors{Accelerometer: Vec3{0, 0, -9.8}, Gyroscope: Vec3{0.1, 0.2, 0.3}, IMUTemperature: 35.5, Pressure: 101325, PressureTemperature: 30},
		&Satellites{HDOP: 0.8, VDOP: 1.2, GPS: 12, GLONASS: 8, BeiDou: 10, Galileo: 6, SBAS: 255},
		&ExternalTime{Seconds: 1, Microseconds: 500000},
		&Heave{Points: [4]float32{0.1, -0.2, 0.3, -0.4}},
		&SensorTemperature{Accelerometer: [3]float32{30, 31, 32}, Gyroscope: [3]float32{33, 34, 35}, Pressure: 29.5},
		&PacketTimerPeriod{Permanent: true, UTCSynchronisation: true, Period: 1000},
		&PacketsPeriod{},
		&PacketsPeriod{Permanent: true, ClearExisting: true, Entries: []PacketPeriod{{IDSystemState, 10}, {IDSatellites, math.MaxUint32}}},
		&InstallationAlignment{Permanent: true, AlignmentDCM: [3][3]float32{{0, 1, 0}, {-1, 0, 0}, {0, 0, 1}}, GNSSAntennaOffset: Vec3{0.5, 0, -1.2}, OdometerOffset: Vec3{-1, 0.5, 0.3}, ExternalDataOffset: Vec3{1, 2, 3}},
		&FilterOptions{Permanent: true, VehicleType: types.VehicleUnlimited, InternalGNSSEnabled: true, AtmosphericAltitudeEnabled: true},
		&FilterOptions{VehicleType: types.VehicleBoat, VelocityHeadingEnabled: true, ReversingDetectionEnabled: true, MotionAnalysisEnabled: true},
		&FilterOptions{VehicleType: types.VehicleTrain},
		&OdometerConfiguration{Permanent: true, PulseLength: 0.0254},
		NewSetZeroOrientationAlignment(true),
		&ReferencePointOffsets{Permanent: true, PrimaryReference: Vec3{1, 2, 3}, HeavePoint2: Vec3{4, 5, 6}, HeavePoint3: Vec3{7, 8, 9}, HeavePoint4: Vec3{10, 11, 12}, CoGLeverArm: Vec3{-1, -2, -3}},
		&IPDataportsConfiguration{Dataports: [4]IPDataport{
			{Mode: types.DataportNone},
			{Port: 16718, Mode: types.DataportTCPServer},
			{Address: MustParseIPv4("10.0.0.2"), Port: 9000, Mode: types.DataportTCPClient},
			{Address: MustParseIPv4("255.255.255.255"), Port: 65535, Mode: types.DataportUDP},
		}},
	}
}

// TestRoundTrip tests decode(encode(p)) == p for every packet type
func TestRoundTrip(t *testing.T) {
	covered := make(map[ID]bool)

	for _, p := range roundTripCases() {
		t.Run(p.ID().String(), func(t *testing.T) {
			data, err := p.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary() error = %v", err)
			}
			if len(data) > 255 {
				t.Fatalf("payload is %d bytes", len(data))
			}

			decoded, err := Decode(p.ID(), data)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(decoded, p) {
				t.Errorf("Decode(MarshalBinary()) = %+v, expected %+v", decoded, p)
			}
		})
		covered[p.ID()] = true
	}

	for _, id := range IDs() {
		if !covered[id] {
			t.Errorf("no round trip case for %s", id)
		}
	}
}

// TestFixedSizes tests the documented payload length of each fixed layout
func TestFixedSizes(t *testing.T) {
	tests := []struct {
		packet Packet
		size   int
	}{
		{&Acknowledge{}, 4},
		{&BootMode{}, 1},
		{&DeviceInformation{}, 24},
		{&RestoreFactorySettings{}, 4},
		{&Reset{}, 4},
		{&IPConfiguration{}, 30},
		{&SubcomponentInformation{}, 24},
		{&SystemState{}, 100},
		{&UnixTime{}, 8},
		{&FormattedTime{}, 14},
		{&Status{}, 4},
		{&EulerOrientationStdDev{}, 12},
		{&RawSensors{}, 48},
		{&Satellites{}, 13},
		{&ExternalTime{}, 8},
		{&Heave{}, 16},
		{&SensorTemperature{}, 32},
		{&PacketTimerPeriod{}, 4},
		{&InstallationAlignment{}, 73},
		{&FilterOptions{}, 17},
		{&OdometerConfiguration{}, 8},
		{&SetZeroOrientationAlignment{}, 5},
		{&ReferencePointOffsets{}, 61},
		{&IPDataportsConfiguration{}, 30},
	}

	for _, tt := range tests {
		t.Run(tt.packet.ID().String(), func(t *testing.T) {
			data, err := tt.packet.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary() error = %v", err)
			}
			if len(data) != tt.size {
				t.Errorf("len(MarshalBinary()) = %d, expected %d", len(data), tt.size)
			}

			fresh, _ := New(tt.packet.ID())
			for _, n := range []int{tt.size - 1, tt.size + 1} {
				if err := fresh.UnmarshalBinary(make([]byte, n)); !errors.Is(err, ErrMalformedPayload) {
					t.Errorf("UnmarshalBinary(%d bytes) error = %v, expected ErrMalformedPayload", n, err)
				}
			}
		})
	}
}

// TestWireLayouts tests byte-exact encodings
func TestWireLayouts(t *testing.T) {
	tests := []struct {
		name     string
		packet   Packet
		expected []byte
	}{
		{"Reset verification", NewReset(), []byte{0x7E, 0x7A, 0x05, 0x21}},
		{"Factory reset verification", NewRestoreFactorySettings(), []byte{0x1C, 0x9E, 0x42, 0x85}},
		{"Zero alignment", NewSetZeroOrientationAlignment(false), []byte{0x00, 0x55, 0x80, 0x4E, 0x9A}},
		{"Acknowledge", &Acknowledge{PacketID: IDReset, PacketCRC: 0xB090}, []byte{0x05, 0x90, 0xB0, 0x00}},
		{"Request", NewRequest(IDDeviceInformation, IDStatus), []byte{0x03, 0x17}},
		{"Timer period", &PacketTimerPeriod{UTCSynchronisation: true, Period: 10000}, []byte{0x00, 0x01, 0x10, 0x27}},
		{"Packets period", &PacketsPeriod{ClearExisting: true, Entries: []PacketPeriod{{IDSystemState, 100}}}, []byte{0x00, 0x01, 0x14, 0x64, 0x00, 0x00, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.packet.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary() error = %v", err)
			}
			if !bytes.Equal(data, tt.expected) {
				t.Errorf("MarshalBinary() = % X, expected % X", data, tt.expected)
			}
		})
	}
}

// TestIPv4 tests address storage order
func TestIPv4(t *testing.T) {
	a := MustParseIPv4("192.168.1.100")
	if a != (IPv4{192, 168, 1, 100}) {
		t.Errorf("ParseIPv4() = %v", a)
	}
	if a.Uint32() != 0x6401A8C0 {
		t.Errorf("Uint32() = 0x%08X, expected 0x6401A8C0", a.Uint32())
	}
	if a.String() != "192.168.1.100" {
		t.Errorf("String() = %q", a.String())
	}

	cfg := &IPConfiguration{IPAddress: a}
	data, _ := cfg.MarshalBinary()
	if !bytes.Equal(data[2:6], []byte{192, 168, 1, 100}) {
		t.Errorf("IP address bytes = % X", data[2:6])
	}

	for _, bad := range []string{"", "300.1.1.1", "::1", "host"} {
		if _, err := ParseIPv4(bad); !errors.Is(err, ErrValidation) {
			t.Errorf("ParseIPv4(%q) error = %v, expected ErrValidation", bad, err)
		}
	}
}

// TestDecode_Registry tests lookup behaviour
func TestDecode_Registry(t *testing.T) {
	p, err := Decode(ID(99), []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Decode(unknown) error = %v", err)
	}
	raw, ok := p.(*Raw)
	if !ok || raw.ID() != 99 || !bytes.Equal(raw.Data, []byte{1, 2, 3}) {
		t.Errorf("Decode(unknown) = %#v", p)
	}

	if _, err := New(ID(99)); !errors.Is(err, ErrUnsupportedPacket) {
		t.Errorf("New(99) error = %v, expected ErrUnsupportedPacket", err)
	}
	if ID(99).String() != "Packet(99)" || IDSystemState.String() != "SystemState" {
		t.Errorf("String() mismatch: %s %s", ID(99), IDSystemState)
	}
	if !IDHeave.Known() || ID(99).Known() {
		t.Error("Known() mismatch")
	}

	if _, err := Decode(IDSystemState, make([]byte, 99)); !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("Decode(short SystemState) error = %v", err)
	}
}

// TestVariableLengths tests the length rules of variable payloads
func TestVariableLengths(t *testing.T) {
	tests := []struct {
		name    string
		id      ID
		size    int
		wantErr bool
	}{
		{"Request empty", IDRequest, 0, true},
		{"Request one", IDRequest, 1, false},
		{"Request max", IDRequest, 255, false},
		{"Passthrough empty", IDSerialPortPassthrough, 0, false},
		{"Passthrough max", IDSerialPortPassthrough, 255, false},
		{"Packets period header only", IDPacketsPeriod, 2, false},
		{"Packets period one entry", IDPacketsPeriod, 7, false},
		{"Packets period partial entry", IDPacketsPeriod, 8, true},
		{"Packets period short", IDPacketsPeriod, 1, true},
		{"Packets period max entries", IDPacketsPeriod, 252, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.id, make([]byte, tt.size))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode(%d bytes) error = %v, wantErr %v", tt.size, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("error = %v, expected ErrMalformedPayload", err)
			}
		})
	}

	if _, err := (&Request{}).MarshalBinary(); !errors.Is(err, ErrValidation) {
		t.Errorf("empty Request MarshalBinary() error = %v", err)
	}
}

// TestPacketsPeriod_Entries tests entry management helpers
func TestPacketsPeriod_Entries(t *testing.T) {
	p := &PacketsPeriod{}
	p.Set(IDSystemState, 10)
	p.Set(IDSatellites, 100)
	p.Set(IDSystemState, 20)

	if len(p.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, expected 2", len(p.Entries))
	}
	if period, ok := p.Period(IDSystemState); !ok || period != 20 {
		t.Errorf("Period(SystemState) = %d, %v", period, ok)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if !p.Remove(IDSatellites) || p.Remove(IDSatellites) {
		t.Error("Remove() mismatch")
	}

	p.Entries = append(p.Entries, PacketPeriod{IDSystemState, 5})
	if err := p.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("Validate(duplicate) error = %v", err)
	}
	p.Entries = []PacketPeriod{{IDDeviceInformation, 1}}
	if err := p.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("Validate(id 3) error = %v", err)
	}
}
