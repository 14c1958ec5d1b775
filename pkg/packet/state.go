package packet

import (
	"time"

	"avaneesh/anpp-go/pkg/types"
)

// Payload sizes
const (
	SystemStateSize            = 100
	UnixTimeSize               = 8
	FormattedTimeSize          = 14
	StatusSize                 = 4
	EulerOrientationStdDevSize = 12
	RawSensorsSize             = 48
	SatellitesSize             = 13
	ExternalTimeSize           = 8
	HeaveSize                  = 16
	SensorTemperatureSize      = 32
)

// SystemState is the device's primary navigation solution.
// Latitude and longitude are in radians, height in metres.
type SystemState struct {
	SystemStatus     types.SystemStatus
	FilterStatus     types.FilterStatus
	UnixSeconds      uint32
	Microseconds     uint32
	Latitude         float64
	Longitude        float64
	Height           float64
	Velocity         Vec3 // north, east, down (m/s)
	BodyAcceleration Vec3 // m/s^2
	GForce           float32
	Roll             float32 // radians
	Pitch            float32 // radians
	Heading          float32 // radians
	AngularVelocity  Vec3    // rad/s
	LatitudeStdDev   float32 // metres
	LongitudeStdDev  float32 // metres
	HeightStdDev     float32 // metres
}

// ID returns the packet identifier
func (p *SystemState) ID() ID { return IDSystemState }

// Time returns the solution timestamp
func (p *SystemState) Time() time.Time {
	return unixTime(p.UnixSeconds, p.Microseconds)
}

// MarshalBinary encodes the payload
func (p *SystemState) MarshalBinary() ([]byte, error) {
	e := newEncoder(SystemStateSize)
	e.u16(uint16(p.SystemStatus))
	e.u16(uint16(p.FilterStatus))
	e.u32(p.UnixSeconds)
	e.u32(p.Microseconds)
	e.f64(p.Latitude)
	e.f64(p.Longitude)
	e.f64(p.Height)
	e.vec3(p.Velocity)
	e.vec3(p.BodyAcceleration)
	e.f32(p.GForce)
	e.f32(p.Roll)
	e.f32(p.Pitch)
	e.f32(p.Heading)
	e.vec3(p.AngularVelocity)
	e.f32(p.LatitudeStdDev)
	e.f32(p.LongitudeStdDev)
	e.f32(p.HeightStdDev)
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *SystemState) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDSystemState, data, SystemStateSize); err != nil {
		return err
	}
	d := newDecoder(data)
	p.SystemStatus = types.SystemStatus(d.u16())
	p.FilterStatus = types.FilterStatus(d.u16())
	p.UnixSeconds = d.u32()
	p.Microseconds = d.u32()
	p.Latitude = d.f64()
	p.Longitude = d.f64()
	p.Height = d.f64()
	p.Velocity = d.vec3()
	p.BodyAcceleration = d.vec3()
	p.GForce = d.f32()
	p.Roll = d.f32()
	p.Pitch = d.f32()
	p.Heading = d.f32()
	p.AngularVelocity = d.vec3()
	p.LatitudeStdDev = d.f32()
	p.LongitudeStdDev = d.f32()
	p.HeightStdDev = d.f32()
	return nil
}

// UnixTime is the device clock as seconds and microseconds since the epoch
type UnixTime struct {
	Seconds      uint32
	Microseconds uint32
}

// ID returns the packet identifier
func (p *UnixTime) ID() ID { return IDUnixTime }

// Time converts to time.Time
func (p *UnixTime) Time() time.Time {
	return unixTime(p.Seconds, p.Microseconds)
}

// NewUnixTime builds the packet from t
func NewUnixTime(t time.Time) *UnixTime {
	return &UnixTime{Seconds: uint32(t.Unix()), Microseconds: uint32(t.Nanosecond() / 1000)}
}

// MarshalBinary encodes the payload
func (p *UnixTime) MarshalBinary() ([]byte, error) {
	return marshalTimestamp(p.Seconds, p.Microseconds), nil
}

// UnmarshalBinary decodes the payload
func (p *UnixTime) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDUnixTime, data, UnixTimeSize); err != nil {
		return err
	}
	p.Seconds, p.Microseconds = unmarshalTimestamp(data)
	return nil
}

// FormattedTime is the device clock broken into calendar fields
type FormattedTime struct {
	Microseconds uint32
	Year         uint16
	YearDay      uint16 // 0-365
	Month        uint8  // 0-11
	MonthDay     uint8  // 0-30
	WeekDay      uint8  // 0-6, Sunday first
	Hour         uint8
	Minute       uint8
	Second       uint8
}

// ID returns the packet identifier
func (p *FormattedTime) ID() ID { return IDFormattedTime }

// Time converts to time.Time in UTC
func (p *FormattedTime) Time() time.Time {
	return time.Date(int(p.Year), time.Month(p.Month)+1, int(p.MonthDay)+1,
		int(p.Hour), int(p.Minute), int(p.Second), int(p.Microseconds)*1000, time.UTC)
}

// NewFormattedTime breaks t, converted to UTC, into calendar fields
func NewFormattedTime(t time.Time) *FormattedTime {
	t = t.UTC()
	return &FormattedTime{
		Microseconds: uint32(t.Nanosecond() / 1000),
		Year:         uint16(t.Year()),
		YearDay:      uint16(t.YearDay() - 1),
		Month:        uint8(t.Month() - 1),
		MonthDay:     uint8(t.Day() - 1),
		WeekDay:      uint8(t.Weekday()),
		Hour:         uint8(t.Hour()),
		Minute:       uint8(t.Minute()),
		Second:       uint8(t.Second()),
	}
}

// MarshalBinary encodes the payload
func (p *FormattedTime) MarshalBinary() ([]byte, error) {
	e := newEncoder(FormattedTimeSize)
	e.u32(p.Microseconds)
	e.u16(p.Year)
	e.u16(p.YearDay)
	e.u8(p.Month)
	e.u8(p.MonthDay)
	e.u8(p.WeekDay)
	e.u8(p.Hour)
	e.u8(p.Minute)
	e.u8(p.Second)
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *FormattedTime) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDFormattedTime, data, FormattedTimeSize); err != nil {
		return err
	}
	d := newDecoder(data)
	p.Microseconds = d.u32()
	p.Year = d.u16()
	p.YearDay = d.u16()
	p.Month = d.u8()
	p.MonthDay = d.u8()
	p.WeekDay = d.u8()
	p.Hour = d.u8()
	p.Minute = d.u8()
	p.Second = d.u8()
	return nil
}

// Status carries the two health words without the navigation solution
type Status struct {
	SystemStatus types.SystemStatus
	FilterStatus types.FilterStatus
}

// ID returns the packet identifier
func (p *Status) ID() ID { return IDStatus }

// MarshalBinary encodes the payload
func (p *Status) MarshalBinary() ([]byte, error) {
	e := newEncoder(StatusSize)
	e.u16(uint16(p.SystemStatus))
	e.u16(uint16(p.FilterStatus))
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *Status) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDStatus, data, StatusSize); err != nil {
		return err
	}
	d := newDecoder(data)
	p.SystemStatus = types.SystemStatus(d.u16())
	p.FilterStatus = types.FilterStatus(d.u16())
	return nil
}

// EulerOrientationStdDev is the orientation uncertainty in radians
type EulerOrientationStdDev struct {
	Roll    float32
	Pitch   float32
	Heading float32
}

// ID returns the packet identifier
func (p *EulerOrientationStdDev) ID() ID { return IDEulerOrientationStdDev }

// MarshalBinary encodes the payload
func (p *EulerOrientationStdDev) MarshalBinary() ([]byte, error) {
	e := newEncoder(EulerOrientationStdDevSize)
	e.f32(p.Roll)
	e.f32(p.Pitch)
	e.f32(p.Heading)
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *EulerOrientationStdDev) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDEulerOrientationStdDev, data, EulerOrientationStdDevSize); err != nil {
		return err
	}
	d := newDecoder(data)
	p.Roll = d.f32()
	p.Pitch = d.f32()
	p.Heading = d.f32()
	return nil
}

// RawSensors holds calibrated but unfiltered sensor readings
type RawSensors struct {
	Accelerometer       Vec3 // m/s^2
	Gyroscope           Vec3 // rad/s
	Reserved            Vec3
	IMUTemperature      float32 // deg C
	Pressure            float32 // Pa
	PressureTemperature float32 // deg C
}

// ID returns the packet identifier
func (p *RawSensors) ID() ID { return IDRawSensors }

// MarshalBinary encodes the payload
func (p *RawSensors) MarshalBinary() ([]byte, error) {
	e := newEncoder(RawSensorsSize)
	e.vec3(p.Accelerometer)
	e.vec3(p.Gyroscope)
	e.vec3(p.Reserved)
	e.f32(p.IMUTemperature)
	e.f32(p.Pressure)
	e.f32(p.PressureTemperature)
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *RawSensors) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDRawSensors, data, RawSensorsSize); err != nil {
		return err
	}
	d := newDecoder(data)
	p.Accelerometer = d.vec3()
	p.Gyroscope = d.vec3()
	p.Reserved = d.vec3()
	p.IMUTemperature = d.f32()
	p.Pressure = d.f32()
	p.PressureTemperature = d.f32()
	return nil
}

// Satellites summarises GNSS dilution of precision and satellites in use
type Satellites struct {
	HDOP    float32
	VDOP    float32
	GPS     uint8
	GLONASS uint8
	BeiDou  uint8
	Galileo uint8
	SBAS    uint8
}

// ID returns the packet identifier
func (p *Satellites) ID() ID { return IDSatellites }

// Total returns the number of satellites across all constellations
func (p *Satellites) Total() int {
	return int(p.GPS) + int(p.GLONASS) + int(p.BeiDou) + int(p.Galileo) + int(p.SBAS)
}

// MarshalBinary encodes the payload
func (p *Satellites) MarshalBinary() ([]byte, error) {
	e := newEncoder(SatellitesSize)
	e.f32(p.HDOP)
	e.f32(p.VDOP)
	e.u8(p.GPS)
	e.u8(p.GLONASS)
	e.u8(p.BeiDou)
	e.u8(p.Galileo)
	e.u8(p.SBAS)
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *Satellites) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDSatellites, data, SatellitesSize); err != nil {
		return err
	}
	d := newDecoder(data)
	p.HDOP = d.f32()
	p.VDOP = d.f32()
	p.GPS = d.u8()
	p.GLONASS = d.u8()
	p.BeiDou = d.u8()
	p.Galileo = d.u8()
	p.SBAS = d.u8()
	return nil
}

// ExternalTime injects a time reference into the device
type ExternalTime struct {
	Seconds      uint32
	Microseconds uint32
}

// ID returns the packet identifier
func (p *ExternalTime) ID() ID { return IDExternalTime }

// NewExternalTime builds the packet from t
func NewExternalTime(t time.Time) *ExternalTime {
	return &ExternalTime{Seconds: uint32(t.Unix()), Microseconds: uint32(t.Nanosecond() / 1000)}
}

// MarshalBinary encodes the payload
func (p *ExternalTime) MarshalBinary() ([]byte, error) {
	return marshalTimestamp(p.Seconds, p.Microseconds), nil
}

// UnmarshalBinary decodes the payload
func (p *ExternalTime) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDExternalTime, data, ExternalTimeSize); err != nil {
		return err
	}
	p.Seconds, p.Microseconds = unmarshalTimestamp(data)
	return nil
}

// Heave reports vertical displacement at the four heave points in metres
type Heave struct {
	Points [4]float32
}

// ID returns the packet identifier
func (p *Heave) ID() ID { return IDHeave }

// MarshalBinary encodes the payload
func (p *Heave) MarshalBinary() ([]byte, error) {
	e := newEncoder(HeaveSize)
	for _, v := range p.Points {
		e.f32(v)
	}
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *Heave) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDHeave, data, HeaveSize); err != nil {
		return err
	}
	d := newDecoder(data)
	for i := range p.Points {
		p.Points[i] = d.f32()
	}
	return nil
}

// SensorTemperature reports per-sensor temperatures in deg C
type SensorTemperature struct {
	Accelerometer [3]float32
	Gyroscope     [3]float32
	Reserved      float32
	Pressure      float32
}

// ID returns the packet identifier
func (p *SensorTemperature) ID() ID { return IDSensorTemperature }

// MarshalBinary encodes the payload
func (p *SensorTemperature) MarshalBinary() ([]byte, error) {
	e := newEncoder(SensorTemperatureSize)
	for _, v := range p.Accelerometer {
		e.f32(v)
	}
	for _, v := range p.Gyroscope {
		e.f32(v)
	}
	e.f32(p.Reserved)
	e.f32(p.Pressure)
	return e.bytes(), nil
}

// UnmarshalBinary decodes the payload
func (p *SensorTemperature) UnmarshalBinary(data []byte) error {
	if err := expectLength(IDSensorTemperature, data, SensorTemperatureSize); err != nil {
		return err
	}
	d := newDecoder(data)
	for i := range p.Accelerometer {
		p.Accelerometer[i] = d.f32()
	}
	for i := range p.Gyroscope {
		p.Gyroscope[i] = d.f32()
	}
	p.Reserved = d.f32()
	p.Pressure = d.f32()
	return nil
}

func unixTime(seconds, microseconds uint32) time.Time {
	return time.Unix(int64(seconds), int64(microseconds)*int64(time.Microsecond)).UTC()
}

func marshalTimestamp(seconds, microseconds uint32) []byte {
	e := newEncoder(8)
	e.u32(seconds)
	e.u32(microseconds)
	return e.bytes()
}

func unmarshalTimestamp(data []byte) (uint32, uint32) {
	d := newDecoder(data)
	return d.u32(), d.u32()
}
