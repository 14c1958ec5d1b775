// Command anppctl queries and configures ANPP devices over TCP, and can run
// a simulated device.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/term"

	"avaneesh/anpp-go/pkg/anpp"
	"avaneesh/anpp-go/pkg/config"
	"avaneesh/anpp-go/pkg/packet"
	"avaneesh/anpp-go/pkg/simulator"
)

const usage = `Usage: anppctl [flags] <command> [args]

Commands:
  info                 device information
  state                system state
  status               system and filter status
  time                 device clock
  filter               filter options
  ip                   IP configuration
  dataports            IP dataports configuration
  offsets              reference point offsets
  alignment            installation alignment
  odometer             odometer configuration
  timer                packet timer period
  request <id>         request any packet by ID
  reset                restart the device
  factory-reset        restore factory settings and restart
  zero-orientation     set the current orientation as level
  watch <id|all>       print unsolicited packets until interrupted
  simulate [addr]      run a simulated device (default 127.0.0.1:16718)

Flags:
`

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	envPath := flag.String("env", "", "path to a .env file")
	host := flag.String("host", "", "device host (overrides config)")
	port := flag.Int("port", 0, "device port (overrides config)")
	timeout := flag.Duration("timeout", 0, "connect and response timeout (overrides config)")
	jsonOut := flag.Bool("json", false, "always print JSON")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath, *envPath)
	if err != nil {
		fatalf("config: %v", err)
	}
	if *host != "" {
		cfg.Device.Host = *host
	}
	if *port != 0 {
		cfg.Device.Port = *port
	}
	if *timeout > 0 {
		cfg.Device.TimeoutMS = int(*timeout / time.Millisecond)
	}
	if err := cfg.Validate(); err != nil {
		fatalf("config: %v", err)
	}

	log := anpp.NewLogger(os.Stderr, cfg.LogLevel())
	anpp.SetLogger(log)
	anpp.EnableFrameDebug(cfg.Logging.FrameDebug)

	out := newPrinter(*jsonOut || !term.IsTerminal(int(os.Stdout.Fd())))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	if cmd == "simulate" {
		if err := runSimulator(ctx, args, log); err != nil {
			fatalf("simulate: %v", err)
		}
		return
	}

	devCfg := anpp.DeviceConfigFromFile(cfg)
	devCfg.Logger = log
	dev := anpp.NewDevice(devCfg)
	if err := dev.Connect(ctx); err != nil {
		fatalf("connect %s: %v", devCfg.Address, err)
	}
	defer dev.Disconnect()

	if err := run(ctx, dev, cmd, args, out); err != nil {
		dev.Disconnect()
		fatalf("%s: %v", cmd, err)
	}
}

func loadConfig(path, envPath string) (config.File, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if envPath != "" {
		if err := config.LoadEnv(envPath); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.ApplyEnv()
}

func run(ctx context.Context, dev *anpp.Device, cmd string, args []string, out *printer) error {
	var (
		p   any
		err error
	)

	switch cmd {
	case "info":
		p, err = dev.GetDeviceInformation(ctx)
	case "state":
		p, err = dev.GetSystemState(ctx)
	case "status":
		p, err = dev.GetStatus(ctx)
	case "time":
		p, err = dev.GetUnixTime(ctx)
	case "filter":
		p, err = dev.GetFilterOptions(ctx)
	case "ip":
		p, err = dev.GetIPConfiguration(ctx)
	case "dataports":
		p, err = dev.GetIPDataports(ctx)
	case "offsets":
		p, err = dev.GetReferencePointOffsets(ctx)
	case "alignment":
		p, err = dev.GetInstallationAlignment(ctx)
	case "odometer":
		p, err = dev.GetOdometerConfiguration(ctx)
	case "timer":
		p, err = dev.GetPacketTimerPeriod(ctx)
	case "request":
		var id packet.ID
		if id, err = packetArg(args); err == nil {
			p, err = dev.Request(ctx, id)
		}
	case "reset":
		p, err = dev.ResetDevice(ctx)
	case "factory-reset":
		p, err = dev.RestoreFactorySettings(ctx)
	case "zero-orientation":
		p, err = dev.SetZeroOrientationAlignment(ctx, true)
	case "watch":
		return watch(ctx, dev, args, out)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		return err
	}
	return out.print(p)
}

func watch(ctx context.Context, dev *anpp.Device, args []string, out *printer) error {
	handler := func(p packet.Packet) {
		if err := out.print(p); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	if len(args) == 1 && args[0] == "all" {
		dev.OnAnyPacket(handler)
	} else {
		id, err := packetArg(args)
		if err != nil {
			return err
		}
		dev.OnPacket(id, handler)
	}

	<-ctx.Done()
	return nil
}

func runSimulator(ctx context.Context, args []string, log anpp.Logger) error {
	cfg := simulator.DefaultConfig()
	cfg.Address = fmt.Sprintf("127.0.0.1:%d", anpp.DefaultPort)
	if len(args) > 0 {
		cfg.Address = args[0]
	}
	cfg.Logger = log

	err := simulator.New(cfg).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func packetArg(args []string) (packet.ID, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one packet ID")
	}
	n, err := strconv.ParseUint(args[0], 0, 8)
	if err != nil {
		return 0, fmt.Errorf("bad packet ID %q: %w", args[0], err)
	}
	return packet.ID(n), nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "anppctl: "+format+"\n", args...)
	os.Exit(1)
}
