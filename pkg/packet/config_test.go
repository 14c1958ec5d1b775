package packet

import (
	"errors"
	"testing"
	"time"

	"avaneesh/anpp-go/pkg/types"
)

func TestPacketTimerPeriod_Validate(t *testing.T) {
	tests := []struct {
		name    string
		period  uint16
		utcSync bool
		wantErr bool
	}{
		{"Minimum", 1000, false, false},
		{"Maximum", 65000, false, false},
		{"Below minimum", 999, false, true},
		{"Zero", 0, false, true},
		{"Above maximum", 65535, false, true},
		{"Not a multiple of 1000", 1500, false, true},
		{"UTC sync at 1 ms", 1000, true, false},
		{"UTC sync at 8 ms", 8000, true, false},
		{"UTC sync at 3 ms", 3000, true, true},
		{"3 ms without UTC sync", 3000, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &PacketTimerPeriod{Period: tt.period, UTCSynchronisation: tt.utcSync}
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("error = %v, expected ErrValidation", err)
			}
		})
	}

	p := &PacketTimerPeriod{Period: 2000}
	if p.RateHz() != 500 || p.Interval() != 2*time.Millisecond {
		t.Errorf("RateHz() = %g, Interval() = %v", p.RateHz(), p.Interval())
	}
	if (&PacketTimerPeriod{}).RateHz() != 0 {
		t.Error("RateHz() of zero period should be 0")
	}
}

func TestFilterOptions_Validate(t *testing.T) {
	valid := &FilterOptions{VehicleType: types.VehicleLargeShip}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	bad := []*FilterOptions{
		{VehicleType: types.VehicleType(15)},
		{VehicleType: types.VehicleCar, Reserved1: 1},
		{VehicleType: types.VehicleCar, Reserved3: [8]uint8{0, 0, 0, 0, 0, 0, 0, 1}},
	}
	for i, p := range bad {
		if err := p.Validate(); !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: Validate() error = %v, expected ErrValidation", i, err)
		}
	}
}

func TestOdometerConfiguration_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  OdometerConfiguration
		wantErr bool
	}{
		{"Positive pulse", OdometerConfiguration{PulseLength: 0.1}, false},
		{"Zero pulse", OdometerConfiguration{}, true},
		{"Negative pulse", OdometerConfiguration{PulseLength: -1}, true},
		{"Automatic measurement", OdometerConfiguration{AutomaticPulseMeasurement: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerificationCodes(t *testing.T) {
	if err := NewReset().Validate(); err != nil {
		t.Errorf("Reset.Validate() error = %v", err)
	}
	if err := NewRestoreFactorySettings().Validate(); err != nil {
		t.Errorf("RestoreFactorySettings.Validate() error = %v", err)
	}
	if err := NewSetZeroOrientationAlignment(true).Validate(); err != nil {
		t.Errorf("SetZeroOrientationAlignment.Validate() error = %v", err)
	}

	if err := (&Reset{Verification: RestoreFactorySettingsVerification}).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("Reset with wrong code error = %v", err)
	}
	if err := (&SetZeroOrientationAlignment{}).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("SetZeroOrientationAlignment without code error = %v", err)
	}
}

func TestIPDataportsConfiguration(t *testing.T) {
	cfg := &IPDataportsConfiguration{}
	if err := cfg.SetTCPServer(0, 16718); err != nil {
		t.Fatalf("SetTCPServer() error = %v", err)
	}
	if err := cfg.SetUDP(2, MustParseIPv4("192.168.1.255"), 5000); err != nil {
		t.Fatalf("SetUDP() error = %v", err)
	}
	if err := cfg.SetTCPClient(4, MustParseIPv4("10.0.0.1"), 1); !errors.Is(err, ErrValidation) {
		t.Errorf("SetTCPClient(4) error = %v, expected ErrValidation", err)
	}

	active := cfg.Active()
	if len(active) != 2 || active[0] != 0 || active[1] != 2 {
		t.Errorf("Active() = %v, expected [0 2]", active)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	_ = cfg.SetTCPServer(1, 16718)
	if err := cfg.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("Validate(duplicate server port) error = %v", err)
	}

	_ = cfg.SetInactive(1)
	cfg.Dataports[3].Mode = types.DataportReserved
	if err := cfg.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("Validate(reserved mode) error = %v", err)
	}

	cfg.Dataports[3] = IPDataport{Mode: types.DataportTCPClient, Address: MustParseIPv4("10.0.0.1")}
	if err := cfg.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("Validate(no port) error = %v", err)
	}
}

func TestIPConfiguration_Validate(t *testing.T) {
	if err := (&IPConfiguration{DHCP: true}).Validate(); err != nil {
		t.Errorf("DHCP Validate() error = %v", err)
	}
	if err := (&IPConfiguration{}).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("static without address error = %v", err)
	}
	noMask := &IPConfiguration{IPAddress: MustParseIPv4("10.0.0.5")}
	if err := noMask.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("static without netmask error = %v", err)
	}
}

func TestTimeConversions(t *testing.T) {
	ut := &UnixTime{Seconds: 1700000000, Microseconds: 250000}
	want := time.Date(2023, time.November, 14, 22, 13, 20, 250000000, time.UTC)
	if !ut.Time().Equal(want) {
		t.Errorf("UnixTime.Time() = %v, expected %v", ut.Time(), want)
	}

	ft := &FormattedTime{Year: 2023, Month: 10, MonthDay: 13, Hour: 22, Minute: 13, Second: 20, Microseconds: 250000}
	if !ft.Time().Equal(want) {
		t.Errorf("FormattedTime.Time() = %v, expected %v", ft.Time(), want)
	}

	built := NewFormattedTime(want)
	if built.YearDay != 317 || built.WeekDay != 2 || built.Month != 10 || built.MonthDay != 13 {
		t.Errorf("NewFormattedTime() = %+v", built)
	}
	if !built.Time().Equal(want) {
		t.Errorf("NewFormattedTime().Time() = %v, expected %v", built.Time(), want)
	}
	if got := NewUnixTime(want); *got != *ut {
		t.Errorf("NewUnixTime() = %+v, expected %+v", got, ut)
	}

	et := NewExternalTime(want)
	if et.Seconds != 1700000000 || et.Microseconds != 250000 {
		t.Errorf("NewExternalTime() = %+v", et)
	}

	ss := &SystemState{UnixSeconds: 1700000000, Microseconds: 250000}
	if !ss.Time().Equal(want) {
		t.Errorf("SystemState.Time() = %v", ss.Time())
	}
}

func TestDeviceInformation_SerialNumber(t *testing.T) {
	d := &DeviceInformation{SerialNumber1: 0x1, SerialNumber2: 0xABCDEF, SerialNumber3: 0xFFFFFFFF}
	if got := d.SerialNumber(); got != "00000001-00ABCDEF-FFFFFFFF" {
		t.Errorf("SerialNumber() = %q", got)
	}
	s := &Satellites{GPS: 1, GLONASS: 2, BeiDou: 3, Galileo: 4, SBAS: 255}
	if s.Total() != 265 {
		t.Errorf("Total() = %d, expected 265", s.Total())
	}
}
