package serial

import (
	"errors"
	"io"
)

var (
	ErrNoDevice   = errors.New("no serial device given")
	ErrBadBaud    = errors.New("baud rate must be positive")
	ErrBadTimeout = errors.New("read timeout cannot be negative")
)

// Port is a byte stream from the MCU's debug UART.
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - Pipes and files (for replaying captured traces and testing)
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate of the MCU debug UART
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the configuration used by an ATmega328P debug UART
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}

// Validate checks the configuration before opening a port
func (c *Config) Validate() error {
	if c.Device == "" {
		return ErrNoDevice
	}
	if c.Baud <= 0 {
		return ErrBadBaud
	}
	if c.ReadTimeout < 0 {
		return ErrBadTimeout
	}
	return nil
}

// streamPort adapts any io.ReadWriteCloser to Port
type streamPort struct {
	io.ReadWriteCloser
}

func (streamPort) Flush() error { return nil }

// FromStream wraps a stream (pipe, file, socket) as a Port
func FromStream(rwc io.ReadWriteCloser) Port {
	return streamPort{rwc}
}
