//go:build rp2040

package main

import (
	"errors"
	"machine"
	"sync/atomic"
	"time"

	"mcutime/core"
	"mcutime/protocol"
)

const (
	blinkPeriodUS  = 500000
	reportPeriodUS = 1000000
)

var errNoProgress = errors.New("serial write made no progress")

var (
	driver *core.Driver

	// Trace frame sequence, continued across reports so the host can count gaps
	traceSeq uint8

	// Debug counters
	reportsSent  uint32
	frameErrors  uint32
	blinkDropped uint32
)

// flagWaker marks a foreground task runnable. Wake runs in interrupt
// context, so it only sets the flag.
type flagWaker struct {
	ready atomic.Bool
}

func (w *flagWaker) Wake() {
	w.ready.Store(true)
}

// take reports and clears a pending wake
func (w *flagWaker) take() bool {
	return w.ready.Swap(false)
}

// timerConfig describes the RP2040 timer: 12MHz clk_ref divided by the
// watchdog tick generator into a 1MHz, 32-bit low word
func timerConfig() core.Config {
	return core.Config{
		Capacity:      16,
		CounterBits:   32,
		Divider:       1,
		MinMargin:     20,
		WrapThreshold: 1 << 28,
		Mode:          core.ModeFine,
		ClockHz:       12000000,
		Prescaler:     12,
		TickHz:        1000000,
	}
}

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	driver, err = core.New(timerConfig(), timerCounter{})
	if err != nil {
		// Nothing to report to without a working driver; signal on the LED
		machine.LED.High()
		for {
			time.Sleep(time.Second)
		}
	}
	startTimerInterrupts()

	scheduleBlink(driver.Now() + driver.TicksFromMicros(blinkPeriodUS))

	reporter := &flagWaker{}
	driver.ScheduleWake(driver.Now()+driver.TicksFromMicros(reportPeriodUS), reporter)

	for {
		if reporter.take() {
			sendTrace()
			driver.ScheduleWake(driver.Now()+driver.TicksFromMicros(reportPeriodUS), reporter)
		}
		time.Sleep(time.Millisecond)
	}
}

// scheduleBlink queues one LED toggle. A fired alarm returns its slot to the
// pool, so every period takes a fresh handle.
func scheduleBlink(at uint64) {
	h, ok := driver.AllocateAlarm()
	if !ok {
		blinkDropped++
		return
	}
	driver.SetAlarmCallback(h, blink, at)
	driver.SetAlarm(h, at)
}

// blink runs from the compare interrupt
func blink(ctx any) {
	machine.LED.Set(!machine.LED.Get())
	scheduleBlink(ctx.(uint64) + driver.TicksFromMicros(blinkPeriodUS))
}

// sendTrace streams the events recorded since the last report over the USB
// serial port
func sendTrace() {
	events := driver.TakeTrace()
	if len(events) == 0 {
		return
	}
	err := core.TraceFrames(events, traceSeq, func(frame []byte) error {
		traceSeq = (traceSeq + 1) & protocol.MessageSeqMask
		return writeSerial(frame)
	})
	if err != nil {
		frameErrors++
		return
	}
	reportsSent++
}

// writeSerial writes the whole frame, handling partial writes
func writeSerial(frame []byte) error {
	written := 0
	for written < len(frame) {
		n, err := machine.Serial.Write(frame[written:])
		if err != nil {
			return err
		}
		if n == 0 {
			// Host not reading; drop the rest of the report
			return errNoProgress
		}
		written += n
	}
	return nil
}
