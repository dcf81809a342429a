//go:build !wasm

package serial

import (
	"io"
	"testing"
	"time"

	"github.com/tarm/serial"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		cfg  Config
		want error
	}{
		{Config{Device: "", Baud: 9600}, ErrNoDevice},
		{Config{Device: "/dev/ttyS0", Baud: 0}, ErrBadBaud},
		{Config{Device: "/dev/ttyS0", Baud: 9600, ReadTimeout: -1}, ErrBadTimeout},
	}
	for i, tc := range testCases {
		if err := tc.cfg.Validate(); err != tc.want {
			t.Errorf("Test case %d: expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestNativeConfig(t *testing.T) {
	nc := nativeConfig(&Config{Device: "/dev/ttyACM1", Baud: 250000, ReadTimeout: 50})

	if nc.Name != "/dev/ttyACM1" || nc.Baud != 250000 {
		t.Errorf("Unexpected device mapping: %+v", nc)
	}
	if nc.ReadTimeout != 50*time.Millisecond {
		t.Errorf("Expected 50ms timeout, got %v", nc.ReadTimeout)
	}
	if nc.Size != 8 || nc.Parity != serial.ParityNone || nc.StopBits != serial.Stop1 {
		t.Errorf("Expected 8N1, got size=%d parity=%c stop=%d", nc.Size, nc.Parity, nc.StopBits)
	}
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("Expected error for nil config")
	}
	if _, err := Open(&Config{}); err == nil {
		t.Error("Expected error for empty config")
	}
}

func TestFromStream(t *testing.T) {
	r, w := io.Pipe()
	port := FromStream(struct {
		io.Reader
		io.Writer
		io.Closer
	}{r, w, r})

	go func() {
		port.Write([]byte("ok"))
	}()

	buf := make([]byte, 2)
	if _, err := io.ReadFull(port, buf); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(buf) != "ok" {
		t.Errorf("Expected ok, got %q", buf)
	}
	if err := port.Flush(); err != nil {
		t.Errorf("Flush failed: %v", err)
	}
	port.Close()
}
