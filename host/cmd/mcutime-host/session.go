package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/google/shlex"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"mcutime/core"
	"mcutime/targets/sim"
)

var errQuit = errors.New("quit")

// task is a simulated runtime task woken by the driver
type task struct {
	name  string
	s     *session
	wakes int
}

func (t *task) Wake() {
	t.wakes++
	fmt.Fprintf(t.s.out, "  woke task %q at tick %d\n", t.name, t.s.driver.Now())
	t.s.logger.Debug().Str("task", t.name).Uint64("tick", t.s.driver.Now()).Log("wake")
}

// session drives a Driver on a simulated counter from text commands
type session struct {
	driver *core.Driver
	hw     *sim.Counter
	tasks  map[string]*task
	out    io.Writer
	logger *logiface.Logger[*stumpy.Event]
}

func newSession(cfg core.Config, out io.Writer, logger *logiface.Logger[*stumpy.Event]) (*session, error) {
	hw := sim.New(cfg.CounterBits)
	d, err := core.New(cfg, hw)
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}
	hw.Attach(d.OnOverflow, d.OnCompareMatch)

	return &session{
		driver: d,
		hw:     hw,
		tasks:  make(map[string]*task),
		out:    out,
		logger: logger,
	}, nil
}

// exec runs one command line. It returns errQuit when asked to exit.
func (s *session) exec(line string) error {
	parts, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("failed to parse %q: %w", line, err)
	}
	if len(parts) == 0 {
		return nil
	}

	cmd, args := parts[0], parts[1:]
	switch cmd {
	case "quit", "exit", "q":
		return errQuit

	case "help", "?":
		printSimHelp(s.out)

	case "now":
		fmt.Fprintf(s.out, "now=%d\n", s.driver.Now())

	case "alloc":
		h, ok := s.driver.AllocateAlarm()
		if !ok {
			fmt.Fprintln(s.out, "pool exhausted")
			return nil
		}
		fmt.Fprintf(s.out, "handle=%d\n", h)

	case "callback":
		if len(args) != 2 {
			return fmt.Errorf("usage: callback <handle> <label>")
		}
		h, err := parseHandle(args[0])
		if err != nil {
			return err
		}
		label := args[1]
		s.driver.SetAlarmCallback(h, func(ctx any) {
			fmt.Fprintf(s.out, "  alarm %q fired at tick %d\n", ctx.(string), s.driver.Now())
		}, label)

	case "set":
		if len(args) != 2 {
			return fmt.Errorf("usage: set <handle> <tick>")
		}
		h, err := parseHandle(args[0])
		if err != nil {
			return err
		}
		at, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid tick %q: %w", args[1], err)
		}
		s.driver.SetAlarm(h, at)

	case "wake":
		if len(args) != 2 {
			return fmt.Errorf("usage: wake <tick> <task>")
		}
		at, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid tick %q: %w", args[0], err)
		}
		s.driver.ScheduleWake(at, s.task(args[1]))

	case "advance":
		if len(args) != 1 {
			return fmt.Errorf("usage: advance <ticks>")
		}
		n, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid tick count %q: %w", args[0], err)
		}
		s.hw.Advance(n * uint64(s.driver.Config().Divider))
		fmt.Fprintf(s.out, "now=%d\n", s.driver.Now())

	case "pending":
		for _, e := range s.driver.Pending() {
			fmt.Fprintf(s.out, "  h=%d deadline=%d kind=%d\n", e.Handle, e.Deadline, e.Kind)
		}
		fmt.Fprintf(s.out, "free=%d\n", s.driver.Free())

	case "trace":
		for _, evt := range s.driver.Trace() {
			fmt.Fprintf(s.out, "  %s h=%d tick=%d v=%d\n", core.EventName(evt.Type), evt.Handle, evt.Tick, evt.Value)
		}

	case "frames":
		return s.driver.WriteTrace(func(frame []byte) error {
			_, err := fmt.Fprintln(s.out, hex.EncodeToString(frame))
			return err
		})

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}

	return nil
}

// task returns the named task, creating it on first use
func (s *session) task(name string) *task {
	t, ok := s.tasks[name]
	if !ok {
		t = &task{name: name, s: s}
		s.tasks[name] = t
	}
	return t
}

func parseHandle(arg string) (core.Handle, error) {
	v, err := strconv.ParseUint(arg, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid handle %q: %w", arg, err)
	}
	return core.Handle(v), nil
}

func printSimHelp(out io.Writer) {
	fmt.Fprintln(out, "\nAvailable commands:")
	fmt.Fprintln(out, "  now                    - Print the current tick")
	fmt.Fprintln(out, "  alloc                  - Allocate an alarm slot")
	fmt.Fprintln(out, "  callback <h> <label>   - Attach a printing callback to a slot")
	fmt.Fprintln(out, "  set <h> <tick>         - Queue a slot at an absolute tick")
	fmt.Fprintln(out, "  wake <tick> <task>     - Schedule a task wake (quote names with spaces)")
	fmt.Fprintln(out, "  advance <ticks>        - Run the simulated counter")
	fmt.Fprintln(out, "  pending                - List queued entries")
	fmt.Fprintln(out, "  trace                  - Print the trace ring")
	fmt.Fprintln(out, "  frames                 - Print the trace ring as hex frames")
	fmt.Fprintln(out, "  quit/exit/q            - Exit the program")
	fmt.Fprintln(out)
}
