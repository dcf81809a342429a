package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"mcutime/core"
	"mcutime/host/mcu"
	"mcutime/host/serial"
)

var (
	device   = flag.String("device", "", "Serial device streaming trace frames (empty = run the simulator)")
	baud     = flag.Int("baud", 115200, "Baud rate of the debug UART")
	capacity = flag.Int("capacity", 8, "Alarm pool capacity (simulator)")
	bits     = flag.Uint("bits", 8, "Hardware counter width in bits (simulator)")
	divider  = flag.Uint("divider", 2, "Counter counts per tick (simulator)")
	margin   = flag.Uint64("margin", 2, "Minimum compare-match margin in ticks (simulator)")
	mode     = flag.String("mode", "fine", "Scheduling mode: fine or coarse (simulator)")
	verbose  = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	level := logiface.LevelInformational
	if *verbose {
		level = logiface.LevelDebug
	}
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
		stumpy.L.WithLevel(level),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	if *device != "" {
		err = runCapture(ctx, logger)
	} else {
		err = runSimulator(logger)
	}
	if err != nil {
		logger.Err().Err(err).Log("exiting")
		os.Exit(1)
	}
}

// simConfig builds the driver configuration from flags
func simConfig() (core.Config, error) {
	cfg := core.Config{
		Capacity:    *capacity,
		CounterBits: uint8(*bits),
		Divider:     uint32(*divider),
		MinMargin:   *margin,
	}
	if cfg.CounterBits <= 32 {
		// Readings in the first sixteenth of the range may follow an unserviced wrap
		cfg.WrapThreshold = uint32((uint64(1) << cfg.CounterBits) / 16)
	}
	switch *mode {
	case "fine":
		cfg.Mode = core.ModeFine
	case "coarse":
		cfg.Mode = core.ModeCoarse
	default:
		return cfg, fmt.Errorf("unknown mode %q", *mode)
	}
	return cfg, nil
}

func runSimulator(logger *logiface.Logger[*stumpy.Event]) error {
	cfg, err := simConfig()
	if err != nil {
		return err
	}

	s, err := newSession(cfg, os.Stdout, logger)
	if err != nil {
		return err
	}

	logger.Info().
		Int("capacity", cfg.Capacity).
		Int("bits", int(cfg.CounterBits)).
		Uint64("span", cfg.Span()).
		Str("mode", cfg.Mode.String()).
		Log("simulator ready")

	fmt.Println("mcutime simulator - type 'help' for available commands, 'quit' to exit")
	return repl(s, os.Stdin, os.Stdout, logger)
}

// repl reads commands until quit or end of input. A driver fault ends the
// session after dumping the trace ring.
func repl(s *session, in io.Reader, out io.Writer, logger *logiface.Logger[*stumpy.Event]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.driver.SetDebugWriter(func(line string) { fmt.Fprintln(out, line) })
			s.driver.DumpTrace()
			err = fmt.Errorf("driver fault: %v", r)
		}
	}()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if err := s.exec(line); err != nil {
			if errors.Is(err, errQuit) {
				fmt.Fprintln(out, "Goodbye!")
				return nil
			}
			logger.Warning().Err(err).Str("line", line).Log("command failed")
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

func runCapture(ctx context.Context, logger *logiface.Logger[*stumpy.Event]) error {
	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	port, err := serial.Open(cfg)
	if err != nil {
		return err
	}
	defer port.Close()

	if err := port.Flush(); err != nil {
		logger.Warning().Err(err).Log("failed to flush serial input")
	}

	logger.Info().Str("device", cfg.Device).Int("baud", cfg.Baud).Log("capturing trace")

	reader := mcu.NewTraceReader(port)
	reader.Follow = true
	return capture(ctx, reader, logger)
}

// capture logs decoded events until the context ends or the stream fails
func capture(ctx context.Context, reader *mcu.TraceReader, logger *logiface.Logger[*stumpy.Event]) error {
	for {
		events, err := reader.Next(ctx)
		if err != nil {
			stats := reader.Stats()
			logger.Info().
				Int("frames", stats.Frames).
				Int("events", stats.Events).
				Int("dropped", stats.Dropped).
				Int("gaps", stats.Gaps).
				Log("capture finished")
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		for _, evt := range events {
			logger.Info().
				Str("event", core.EventName(evt.Type)).
				Int("handle", int(evt.Handle)).
				Uint64("tick", evt.Tick).
				Uint64("value", evt.Value).
				Log(mcu.Format(evt))
		}
	}
}
