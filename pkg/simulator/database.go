package simulator

import (
	"errors"
	"sync"
	"time"

	"avaneesh/anpp-go/pkg/packet"
	"avaneesh/anpp-go/pkg/types"
)

// writable lists the packets a client may write, and whether a successful
// write is stored for later requests
var writable = map[packet.ID]bool{
	packet.IDIPConfiguration:             true,
	packet.IDExternalTime:                false,
	packet.IDPacketTimerPeriod:           true,
	packet.IDPacketsPeriod:               true,
	packet.IDInstallationAlignment:       true,
	packet.IDFilterOptions:               true,
	packet.IDOdometerConfiguration:       true,
	packet.IDSetZeroOrientationAlignment: false,
	packet.IDReferencePointOffsets:       true,
	packet.IDIPDataportsConfiguration:    true,
}

type validator interface {
	Validate() error
}

// Database stores the packets a simulated device reports
type Database struct {
	packets map[packet.ID][]byte
	writes  map[packet.ID]uint64
	info    packet.DeviceInformation
	clock   func() time.Time

	mu sync.RWMutex
}

// NewDatabase creates a database holding factory defaults
func NewDatabase(info packet.DeviceInformation, clock func() time.Time) *Database {
	if clock == nil {
		clock = time.Now
	}
	db := &Database{info: info, clock: clock}
	db.loadDefaults()
	return db
}

func (db *Database) loadDefaults() {
	db.packets = make(map[packet.ID][]byte)
	db.writes = make(map[packet.ID]uint64)

	filter := types.FilterStatus(types.OrientationFilterInitialised |
		types.NavigationFilterInitialised | types.HeadingInitialised |
		types.UTCTimeInitialised).WithGNSSFix(types.GNSS3DFix)

	defaults := []packet.Packet{
		&db.info,
		&packet.BootMode{Mode: types.BootModeMainProgram},
		&packet.SystemState{
			FilterStatus: filter,
			Latitude:     -0.5909,
			Longitude:    2.6322,
			Height:       42.5,
			Heading:      1.5708,
		},
		&packet.Status{FilterStatus: filter},
		&packet.EulerOrientationStdDev{Roll: 0.01, Pitch: 0.01, Heading: 0.05},
		&packet.RawSensors{Accelerometer: packet.Vec3{Z: -9.81}, IMUTemperature: 25},
		&packet.Satellites{HDOP: 0.9, VDOP: 1.2, GPS: 9, GLONASS: 6, Galileo: 4},
		&packet.Heave{},
		&packet.SensorTemperature{Pressure: 25},
		&packet.IPConfiguration{
			IPAddress: packet.MustParseIPv4("192.168.1.100"),
			Netmask:   packet.MustParseIPv4("255.255.255.0"),
			Gateway:   packet.MustParseIPv4("192.168.1.1"),
			DNSServer: packet.MustParseIPv4("192.168.1.1"),
		},
		&packet.PacketTimerPeriod{UTCSynchronisation: true, Period: 1000},
		&packet.PacketsPeriod{Entries: []packet.PacketPeriod{{PacketID: packet.IDSystemState, Period: 50}}},
		packet.IdentityAlignment(),
		&packet.FilterOptions{VehicleType: types.VehicleCar, InternalGNSSEnabled: true, AtmosphericAltitudeEnabled: true, VelocityHeadingEnabled: true},
		&packet.OdometerConfiguration{PulseLength: 0.01},
		&packet.ReferencePointOffsets{},
		&packet.IPDataportsConfiguration{},
	}
	for _, p := range defaults {
		data, err := p.MarshalBinary()
		if err != nil {
			continue
		}
		db.packets[p.ID()] = data
	}
}

// Update replaces the stored copy of p
func (db *Database) Update(p packet.Packet) error {
	data, err := p.MarshalBinary()
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.packets[p.ID()] = data
	return nil
}

// Delete removes a packet so requests for it fail
func (db *Database) Delete(id packet.ID) {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.packets, id)
}

// Get returns the stored packet decoded
func (db *Database) Get(id packet.ID) (packet.Packet, bool) {
	data, ok := db.Payload(id)
	if !ok {
		return nil, false
	}
	p, err := packet.Decode(id, data)
	if err != nil {
		return nil, false
	}
	return p, true
}

// Payload returns the encoded payload reported for id. Time packets are
// generated from the clock; everything else comes from the store.
func (db *Database) Payload(id packet.ID) ([]byte, bool) {
	switch id {
	case packet.IDUnixTime:
		data, _ := packet.NewUnixTime(db.clock()).MarshalBinary()
		return data, true
	case packet.IDFormattedTime:
		data, _ := packet.NewFormattedTime(db.clock()).MarshalBinary()
		return data, true
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	data, ok := db.packets[id]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// Writes returns how many successful writes id has received
func (db *Database) Writes(id packet.ID) uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.writes[id]
}

// Reset restores factory defaults
func (db *Database) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.loadDefaults()
}

// write applies a configuration write and returns the acknowledge result
func (db *Database) write(id packet.ID, payload []byte) types.AckResult {
	store, ok := writable[id]
	if !ok {
		return types.AckFailureUnknownPacket
	}

	p, err := packet.Decode(id, payload)
	if err != nil {
		if errors.Is(err, packet.ErrMalformedPayload) {
			return types.AckFailurePacketSize
		}
		return types.AckFailureRange
	}
	if v, ok := p.(validator); ok {
		if err := v.Validate(); err != nil {
			return types.AckFailureRange
		}
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.writes[id]++
	if !store {
		return types.AckSuccess
	}

	if periods, ok := p.(*packet.PacketsPeriod); ok && !periods.ClearExisting {
		// Merge with the current table
		current := &packet.PacketsPeriod{}
		if data, ok := db.packets[id]; ok {
			current.UnmarshalBinary(data)
		}
		for _, e := range periods.Entries {
			if e.Period == 0 {
				current.Remove(e.PacketID)
				continue
			}
			current.Set(e.PacketID, e.Period)
		}
		current.Permanent = periods.Permanent
		p = current
	}

	data, err := p.MarshalBinary()
	if err != nil {
		return types.AckFailureRange
	}
	db.packets[id] = data
	return types.AckSuccess
}
