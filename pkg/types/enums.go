package types

import "fmt"

// AckResult is the outcome code carried by an Acknowledge packet
type AckResult uint8

const (
	AckSuccess              AckResult = 0 // Command applied
	AckFailureCRC           AckResult = 1 // Packet failed CRC check
	AckFailurePacketSize    AckResult = 2 // Packet length incorrect
	AckFailureRange         AckResult = 3 // Values outside valid ranges
	AckFailureFlash         AckResult = 4 // System flash memory failure
	AckFailureNotReady      AckResult = 5 // System not ready
	AckFailureUnknownPacket AckResult = 6 // Unknown packet
)

// OK returns true for AckSuccess
func (r AckResult) OK() bool {
	return r == AckSuccess
}

// String returns string representation of AckResult
func (r AckResult) String() string {
	switch r {
	case AckSuccess:
		return "Success"
	case AckFailureCRC:
		return "FailureCRC"
	case AckFailurePacketSize:
		return "FailurePacketSize"
	case AckFailureRange:
		return "FailureRange"
	case AckFailureFlash:
		return "FailureFlash"
	case AckFailureNotReady:
		return "FailureNotReady"
	case AckFailureUnknownPacket:
		return "FailureUnknownPacket"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(r))
	}
}

// BootMode selects which firmware image the device runs
type BootMode uint8

const (
	BootModeBootloader  BootMode = 0
	BootModeMainProgram BootMode = 1
)

// String returns string representation of BootMode
func (m BootMode) String() string {
	switch m {
	case BootModeBootloader:
		return "Bootloader"
	case BootModeMainProgram:
		return "MainProgram"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(m))
	}
}

// VehicleType tunes the navigation filter's motion model
type VehicleType uint8

const (
	VehicleUnlimited VehicleType = iota
	VehicleBicycleOrMotorcycle
	VehicleCar
	VehicleHovercraft
	VehicleSubmarine
	VehicleUnderwater3D
	VehicleFixedWingPlane
	VehicleAircraft3D
	VehicleHuman
	VehicleBoat
	VehicleLargeShip
	VehicleStationary
	VehicleStuntPlane
	VehicleRaceCar
	VehicleTrain

	vehicleTypeCount
)

var vehicleTypeNames = [vehicleTypeCount]string{
	"Unlimited",
	"BicycleOrMotorcycle",
	"Car",
	"Hovercraft",
	"Submarine",
	"Underwater3D",
	"FixedWingPlane",
	"Aircraft3D",
	"Human",
	"Boat",
	"LargeShip",
	"Stationary",
	"StuntPlane",
	"RaceCar",
	"Train",
}

// Valid returns true for the defined vehicle types
func (v VehicleType) Valid() bool {
	return v < vehicleTypeCount
}

// String returns string representation of VehicleType
func (v VehicleType) String() string {
	if v.Valid() {
		return vehicleTypeNames[v]
	}
	return fmt.Sprintf("Unknown(%d)", uint8(v))
}

// ParseVehicleType looks a vehicle type up by name
func ParseVehicleType(name string) (VehicleType, error) {
	for i, n := range vehicleTypeNames {
		if n == name {
			return VehicleType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown vehicle type %q", name)
}

// DataportMode is the operating mode of an IP dataport
type DataportMode uint8

const (
	DataportNone      DataportMode = 0
	DataportReserved  DataportMode = 1
	DataportTCPServer DataportMode = 2
	DataportTCPClient DataportMode = 3
	DataportUDP       DataportMode = 4
)

// Valid returns true for the known modes, including the reserved one
func (m DataportMode) Valid() bool {
	return m <= DataportUDP
}

// String returns string representation of DataportMode
func (m DataportMode) String() string {
	switch m {
	case DataportNone:
		return "None"
	case DataportReserved:
		return "Reserved"
	case DataportTCPServer:
		return "TCPServer"
	case DataportTCPClient:
		return "TCPClient"
	case DataportUDP:
		return "UDP"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(m))
	}
}
