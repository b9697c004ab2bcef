package adc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	serial "github.com/tarm/goserial"
)

// SerialSource reads voltages from a serial-attached ADC bridge that emits
// one ASCII decimal voltage per line (e.g. an Arduino doing the analog read).
type SerialSource struct {
	rwc     io.ReadWriteCloser
	scanner *bufio.Scanner
}

// NewSerialSource opens the serial device. 9600 baud is used when the config
// does not specify one, which is what the stock bridge sketch runs at.
func NewSerialSource(device string, baud int) (*SerialSource, error) {
	if baud == 0 {
		baud = 9600
	}

	sc := &serial.Config{Name: device, Baud: baud}
	rwc, err := serial.OpenPort(sc)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", device, err)
	}

	return &SerialSource{
		rwc:     rwc,
		scanner: bufio.NewScanner(rwc),
	}, nil
}

// ReadVoltage reads the next voltage line from the bridge.
func (s *SerialSource) ReadVoltage() (float64, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed voltage line %q: %w", line, err)
		}
		return v, nil
	}
	if err := s.scanner.Err(); err != nil {
		return 0, fmt.Errorf("serial read failed: %w", err)
	}
	return 0, io.EOF
}

// Close closes the serial port.
func (s *SerialSource) Close() error {
	return s.rwc.Close()
}
