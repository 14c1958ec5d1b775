package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"avaneesh/anpp-go/pkg/packet"
)

// printer writes results as JSON or as readable text
type printer struct {
	w    io.Writer
	json bool
	mu   sync.Mutex
}

func newPrinter(jsonOut bool) *printer {
	return &printer{w: os.Stdout, json: jsonOut}
}

func (p *printer) print(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.json {
		enc := json.NewEncoder(p.w)
		if pkt, ok := v.(packet.Packet); ok {
			return enc.Encode(struct {
				ID     uint8  `json:"id"`
				Packet string `json:"packet"`
				Data   any    `json:"data"`
			}{uint8(pkt.ID()), pkt.ID().String(), pkt})
		}
		return enc.Encode(v)
	}

	_, err := fmt.Fprintln(p.w, describe(v))
	return err
}

// describe renders the packets people read most; the rest print as fields
func describe(v any) string {
	var b strings.Builder
	switch p := v.(type) {
	case *packet.DeviceInformation:
		fmt.Fprintf(&b, "Device ID:         %d\n", p.DeviceID)
		fmt.Fprintf(&b, "Software version:  %d\n", p.SoftwareVersion)
		fmt.Fprintf(&b, "Hardware revision: %d\n", p.HardwareRevision)
		fmt.Fprintf(&b, "Serial number:     %s", p.SerialNumber())
	case *packet.Status:
		fmt.Fprintf(&b, "System: %s\n", p.SystemStatus)
		fmt.Fprintf(&b, "Filter: %s", p.FilterStatus)
	case *packet.SystemState:
		fmt.Fprintf(&b, "Time:     %s\n", p.Time().UTC().Format("2006-01-02T15:04:05.000000Z"))
		fmt.Fprintf(&b, "System:   %s\n", p.SystemStatus)
		fmt.Fprintf(&b, "Filter:   %s\n", p.FilterStatus)
		fmt.Fprintf(&b, "Position: %.7f rad, %.7f rad, %.2f m\n", p.Latitude, p.Longitude, p.Height)
		fmt.Fprintf(&b, "Velocity: N %.3f  E %.3f  D %.3f m/s\n", p.Velocity.X, p.Velocity.Y, p.Velocity.Z)
		fmt.Fprintf(&b, "Attitude: roll %.4f  pitch %.4f  heading %.4f rad", p.Roll, p.Pitch, p.Heading)
	case *packet.UnixTime:
		b.WriteString(p.Time().UTC().Format("2006-01-02T15:04:05.000000Z"))
	case *packet.IPConfiguration:
		mode := "static"
		if p.DHCP {
			mode = "DHCP"
		}
		fmt.Fprintf(&b, "Mode:    %s\n", mode)
		fmt.Fprintf(&b, "Address: %s/%s\n", p.IPAddress, p.Netmask)
		fmt.Fprintf(&b, "Gateway: %s\n", p.Gateway)
		fmt.Fprintf(&b, "DNS:     %s", p.DNSServer)
	case *packet.IPDataportsConfiguration:
		for i, d := range p.Dataports {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "Dataport %d: %s %s:%d", i+1, d.Mode, d.Address, d.Port)
		}
	case *packet.PacketTimerPeriod:
		fmt.Fprintf(&b, "Period: %v (%.1f Hz), UTC synchronisation %v", p.Interval(), p.RateHz(), p.UTCSynchronisation)
	case *packet.Acknowledge:
		fmt.Fprintf(&b, "%s: %s", p.PacketID, p.Result)
	case packet.Packet:
		fmt.Fprintf(&b, "%s %+v", p.ID(), p)
	default:
		fmt.Fprintf(&b, "%+v", v)
	}
	return b.String()
}
