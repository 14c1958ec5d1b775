package types

import "strings"

// SystemStatus is the 16-bit hardware and sensor health word reported in
// the System State (20) and Status (23) packets
type SystemStatus uint16

// SystemStatus bit masks
const (
	SystemFailure                 SystemStatus = 1 << iota // General system failure
	AccelerometerSensorFailure                             // Accelerometer sensor failure
	GyroscopeSensorFailure                                 // Gyroscope sensor failure
	MagnetometerSensorFailure                              // Magnetometer sensor failure
	PressureSensorFailure                                  // Pressure sensor failure
	GNSSFailure                                            // GNSS receiver failure
	AccelerometerOverRange                                 // Accelerometer over range
	GyroscopeOverRange                                     // Gyroscope over range
	MagnetometerOverRange                                  // Magnetometer over range
	PressureOverRange                                      // Pressure over range
	MinimumTemperatureAlarm                                // Minimum temperature alarm
	MaximumTemperatureAlarm                                // Maximum temperature alarm
	LowVoltageAlarm                                        // Low voltage alarm
	HighVoltageAlarm                                       // High voltage alarm
	GNSSAntennaDisconnected                                // GNSS antenna disconnected
	SerialPortOverflowAlarm                                // Serial port data output overflow
)

var systemStatusNames = [16]string{
	"SystemFailure",
	"AccelerometerSensorFailure",
	"GyroscopeSensorFailure",
	"MagnetometerSensorFailure",
	"PressureSensorFailure",
	"GNSSFailure",
	"AccelerometerOverRange",
	"GyroscopeOverRange",
	"MagnetometerOverRange",
	"PressureOverRange",
	"MinimumTemperatureAlarm",
	"MaximumTemperatureAlarm",
	"LowVoltageAlarm",
	"HighVoltageAlarm",
	"GNSSAntennaDisconnected",
	"SerialPortOverflowAlarm",
}

// Has returns true if every bit in mask is set
func (s SystemStatus) Has(mask SystemStatus) bool {
	return s&mask == mask
}

// Set returns a copy with the bits in mask set or cleared
func (s SystemStatus) Set(mask SystemStatus, value bool) SystemStatus {
	if value {
		return s | mask
	}
	return s &^ mask
}

// IsHealthy returns true when no failure or alarm bit is set
func (s SystemStatus) IsHealthy() bool {
	return s == 0
}

// HasSensorFailure returns true if any sensor or GNSS failure bit is set
func (s SystemStatus) HasSensorFailure() bool {
	const sensors = AccelerometerSensorFailure | GyroscopeSensorFailure |
		MagnetometerSensorFailure | PressureSensorFailure | GNSSFailure
	return s&sensors != 0
}

// HasOverRange returns true if any sensor is over range
func (s SystemStatus) HasOverRange() bool {
	const overRange = AccelerometerOverRange | GyroscopeOverRange |
		MagnetometerOverRange | PressureOverRange
	return s&overRange != 0
}

// ActiveFlags returns the names of the set bits, lowest bit first
func (s SystemStatus) ActiveFlags() []string {
	var names []string
	for bit, name := range systemStatusNames {
		if s&(1<<bit) != 0 {
			names = append(names, name)
		}
	}
	return names
}

// String returns string representation of SystemStatus
func (s SystemStatus) String() string {
	if s == 0 {
		return "Healthy"
	}
	return strings.Join(s.ActiveFlags(), "|")
}

// FilterStatus is the 16-bit navigation filter state word. Bits 4-6 carry
// the GNSS fix type as a 3-bit enumerant rather than independent flags.
type FilterStatus uint16

// FilterStatus bit masks
const (
	OrientationFilterInitialised FilterStatus = 0x0001
	NavigationFilterInitialised  FilterStatus = 0x0002
	HeadingInitialised           FilterStatus = 0x0004
	UTCTimeInitialised           FilterStatus = 0x0008
	GNSSFixTypeMask              FilterStatus = 0x0070
	Event1Occurred               FilterStatus = 0x0080
	Event2Occurred               FilterStatus = 0x0100
	InternalGNSSEnabled          FilterStatus = 0x0200
	DualAntennaHeadingActive     FilterStatus = 0x0400
	VelocityHeadingEnabled       FilterStatus = 0x0800
	AtmosphericAltitudeEnabled   FilterStatus = 0x1000
	ExternalPositionActive       FilterStatus = 0x2000
	ExternalVelocityActive       FilterStatus = 0x4000
	ExternalHeadingActive        FilterStatus = 0x8000

	gnssFixTypeShift = 4
)

var filterStatusNames = map[FilterStatus]string{
	OrientationFilterInitialised: "OrientationFilterInitialised",
	NavigationFilterInitialised:  "NavigationFilterInitialised",
	HeadingInitialised:           "HeadingInitialised",
	UTCTimeInitialised:           "UTCTimeInitialised",
	Event1Occurred:               "Event1Occurred",
	Event2Occurred:               "Event2Occurred",
	InternalGNSSEnabled:          "InternalGNSSEnabled",
	DualAntennaHeadingActive:     "DualAntennaHeadingActive",
	VelocityHeadingEnabled:       "VelocityHeadingEnabled",
	AtmosphericAltitudeEnabled:   "AtmosphericAltitudeEnabled",
	ExternalPositionActive:       "ExternalPositionActive",
	ExternalVelocityActive:       "ExternalVelocityActive",
	ExternalHeadingActive:        "ExternalHeadingActive",
}

// Has returns true if every bit in mask is set
func (s FilterStatus) Has(mask FilterStatus) bool {
	return s&mask == mask
}

// Set returns a copy with the bits in mask set or cleared
func (s FilterStatus) Set(mask FilterStatus, value bool) FilterStatus {
	if value {
		return s | mask
	}
	return s &^ mask
}

// GNSSFix extracts the GNSS fix type from bits 4-6
func (s FilterStatus) GNSSFix() GNSSFixType {
	return GNSSFixType((s & GNSSFixTypeMask) >> gnssFixTypeShift)
}

// WithGNSSFix returns a copy carrying the given fix type
func (s FilterStatus) WithGNSSFix(fix GNSSFixType) FilterStatus {
	return s&^GNSSFixTypeMask | FilterStatus(fix&0x07)<<gnssFixTypeShift
}

// IsFullyInitialised returns true when the orientation filter, navigation
// filter, heading and UTC time are all initialised
func (s FilterStatus) IsFullyInitialised() bool {
	return s.Has(OrientationFilterInitialised | NavigationFilterInitialised |
		HeadingInitialised | UTCTimeInitialised)
}

// IsHealthy returns true when both the orientation and navigation filters
// are running. The filter word has no failure bits of its own.
func (s FilterStatus) IsHealthy() bool {
	return s.Has(OrientationFilterInitialised | NavigationFilterInitialised)
}

// ActiveFlags returns the names of the set flag bits, lowest bit first,
// followed by the GNSS fix type
func (s FilterStatus) ActiveFlags() []string {
	var names []string
	for bit := 0; bit < 16; bit++ {
		mask := FilterStatus(1 << bit)
		if s&mask == 0 {
			continue
		}
		if name, ok := filterStatusNames[mask]; ok {
			names = append(names, name)
		}
	}
	return append(names, "GNSSFix:"+s.GNSSFix().String())
}

// String returns string representation of FilterStatus
func (s FilterStatus) String() string {
	return strings.Join(s.ActiveFlags(), "|")
}

// GNSSFixType is the fix quality carried in FilterStatus bits 4-6
type GNSSFixType uint8

const (
	GNSSNoFix GNSSFixType = iota
	GNSS2DFix
	GNSS3DFix
	GNSSSBASFix
	GNSSDifferentialFix
	GNSSOmniSTARFix
	GNSSRTKFloat
	GNSSRTKFixed
)

// String returns string representation of GNSSFixType
func (f GNSSFixType) String() string {
	switch f {
	case GNSSNoFix:
		return "NoFix"
	case GNSS2DFix:
		return "2D"
	case GNSS3DFix:
		return "3D"
	case GNSSSBASFix:
		return "SBAS"
	case GNSSDifferentialFix:
		return "Differential"
	case GNSSOmniSTARFix:
		return "OmniSTAR"
	case GNSSRTKFloat:
		return "RTKFloat"
	case GNSSRTKFixed:
		return "RTKFixed"
	default:
		return "Unknown"
	}
}

// HasPosition returns true for any fix that yields a position
func (f GNSSFixType) HasPosition() bool {
	return f != GNSSNoFix && f <= GNSSRTKFixed
}
