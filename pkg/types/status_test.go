package types

import (
	"reflect"
	"testing"
)

// TestSystemStatus_IndividualBits tests each bit maps to the right accessor
func TestSystemStatus_IndividualBits(t *testing.T) {
	tests := []struct {
		name   string
		status SystemStatus
		mask   SystemStatus
		bit    uint
	}{
		{"SystemFailure", 0x0001, SystemFailure, 0},
		{"AccelerometerSensorFailure", 0x0002, AccelerometerSensorFailure, 1},
		{"GNSSFailure", 0x0020, GNSSFailure, 5},
		{"PressureOverRange", 0x0200, PressureOverRange, 9},
		{"LowVoltageAlarm", 0x1000, LowVoltageAlarm, 12},
		{"GNSSAntennaDisconnected", 0x4000, GNSSAntennaDisconnected, 14},
		{"SerialPortOverflowAlarm", 0x8000, SerialPortOverflowAlarm, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mask != 1<<tt.bit {
				t.Errorf("%s mask = 0x%04X, want 0x%04X", tt.name, uint16(tt.mask), 1<<tt.bit)
			}
			if !tt.status.Has(tt.mask) {
				t.Errorf("Has(%s) = false for 0x%04X", tt.name, uint16(tt.status))
			}
			if tt.status.IsHealthy() {
				t.Errorf("IsHealthy() = true with %s set", tt.name)
			}
			if got := tt.status.ActiveFlags(); !reflect.DeepEqual(got, []string{tt.name}) {
				t.Errorf("ActiveFlags() = %v, want [%s]", got, tt.name)
			}
		})
	}
}

// TestSystemStatus_Healthy tests the zero value and the all-ones value
func TestSystemStatus_Healthy(t *testing.T) {
	var s SystemStatus
	if !s.IsHealthy() {
		t.Error("IsHealthy() = false for 0x0000")
	}
	if len(s.ActiveFlags()) != 0 {
		t.Errorf("ActiveFlags() = %v, want empty", s.ActiveFlags())
	}
	if s.String() != "Healthy" {
		t.Errorf("String() = %q, want Healthy", s.String())
	}

	all := SystemStatus(0xFFFF)
	if all.IsHealthy() {
		t.Error("IsHealthy() = true for 0xFFFF")
	}
	if len(all.ActiveFlags()) != 16 {
		t.Errorf("len(ActiveFlags()) = %d, want 16", len(all.ActiveFlags()))
	}
	if !all.HasSensorFailure() || !all.HasOverRange() {
		t.Error("group accessors false for 0xFFFF")
	}
}

// TestSystemStatus_SetClear tests bit manipulation
func TestSystemStatus_SetClear(t *testing.T) {
	s := SystemStatus(0).Set(GNSSFailure|LowVoltageAlarm, true)
	if s != 0x1020 {
		t.Fatalf("Set() = 0x%04X, want 0x1020", uint16(s))
	}
	want := []string{"GNSSFailure", "LowVoltageAlarm"}
	if got := s.ActiveFlags(); !reflect.DeepEqual(got, want) {
		t.Errorf("ActiveFlags() = %v, want %v", got, want)
	}
	if s.String() != "GNSSFailure|LowVoltageAlarm" {
		t.Errorf("String() = %q", s.String())
	}
	s = s.Set(GNSSFailure, false)
	if s != LowVoltageAlarm {
		t.Errorf("Set(false) = 0x%04X, want 0x1000", uint16(s))
	}
}

// TestFilterStatus_GNSSFix tests the 3-bit fix enumerant in bits 4-6
func TestFilterStatus_GNSSFix(t *testing.T) {
	tests := []struct {
		status FilterStatus
		want   GNSSFixType
		name   string
	}{
		{0x0000, GNSSNoFix, "NoFix"},
		{0x0010, GNSS2DFix, "2D"},
		{0x0020, GNSS3DFix, "3D"},
		{0x0030, GNSSSBASFix, "SBAS"},
		{0x0040, GNSSDifferentialFix, "Differential"},
		{0x0050, GNSSOmniSTARFix, "OmniSTAR"},
		{0x0060, GNSSRTKFloat, "RTKFloat"},
		{0x0070, GNSSRTKFixed, "RTKFixed"},
		{0xFF8F, GNSSNoFix, "NoFix"},
		{0x0077, GNSSRTKFixed, "RTKFixed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.GNSSFix(); got != tt.want {
				t.Errorf("GNSSFix(0x%04X) = %s, want %s", uint16(tt.status), got, tt.want)
			}
			if tt.want.String() != tt.name {
				t.Errorf("String() = %q, want %q", tt.want.String(), tt.name)
			}
		})
	}

	s := FilterStatus(0xFFFF).WithGNSSFix(GNSS3DFix)
	if s != 0xFFAF {
		t.Errorf("WithGNSSFix() = 0x%04X, want 0xFFAF", uint16(s))
	}
	if GNSSNoFix.HasPosition() || !GNSSRTKFixed.HasPosition() {
		t.Error("HasPosition() mismatch")
	}
}

// TestFilterStatus_Initialised tests the initialisation aggregate
func TestFilterStatus_Initialised(t *testing.T) {
	tests := []struct {
		name        string
		status      FilterStatus
		initialised bool
		healthy     bool
	}{
		{"Nothing", 0x0000, false, false},
		{"Orientation only", 0x0001, false, false},
		{"Filters running", 0x0003, false, true},
		{"Missing UTC", 0x0007, false, true},
		{"All four", 0x000F, true, true},
		{"All four with 3D fix", 0x002F, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsFullyInitialised(); got != tt.initialised {
				t.Errorf("IsFullyInitialised() = %v, want %v", got, tt.initialised)
			}
			if got := tt.status.IsHealthy(); got != tt.healthy {
				t.Errorf("IsHealthy() = %v, want %v", got, tt.healthy)
			}
		})
	}
}

// TestFilterStatus_ActiveFlags tests ordering of reported names
func TestFilterStatus_ActiveFlags(t *testing.T) {
	s := OrientationFilterInitialised | DualAntennaHeadingActive | ExternalHeadingActive
	s = s.WithGNSSFix(GNSSRTKFloat)

	want := []string{
		"OrientationFilterInitialised",
		"DualAntennaHeadingActive",
		"ExternalHeadingActive",
		"GNSSFix:RTKFloat",
	}
	if got := s.ActiveFlags(); !reflect.DeepEqual(got, want) {
		t.Errorf("ActiveFlags() = %v, want %v", got, want)
	}
	if !s.Has(DualAntennaHeadingActive) || s.Has(Event1Occurred) {
		t.Error("Has() mismatch")
	}
	if s.Set(ExternalHeadingActive, false).Has(ExternalHeadingActive) {
		t.Error("Set(false) did not clear bit")
	}
}
