package device

import (
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// SerialPort is the transport a GNSS device record reads raw NMEA bytes
// from, adapted from the teacher's internal/port.SerialPort (§4.13).
type SerialPort interface {
	Open(portName string, baudRate int) error
	Close() error
	Read(buffer []byte) (int, error)
	Write(data []byte) (int, error)
	SetReadTimeout(timeout time.Duration) error
	ListPorts() ([]string, error)
	GetPortDetails() ([]*enumerator.PortDetails, error)
}

// SerialConfig configures a GNSSSerialPort.
type SerialConfig struct {
	BaudRate int
	DataBits int
	Parity   serial.Parity
	StopBits serial.StopBits
	Timeout  time.Duration
}

// DefaultSerialConfig matches the baud rate and framing common GNSS
// receivers in this fleet use (carried over from the teacher's TOPGNSS
// default).
func DefaultSerialConfig() SerialConfig {
	return SerialConfig{
		BaudRate: 38400,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
		Timeout:  500 * time.Millisecond,
	}
}

// GNSSSerialPort is the production SerialPort backed by go.bug.st/serial.
type GNSSSerialPort struct {
	port     serial.Port
	config   SerialConfig
	portName string
}

// NewGNSSSerialPort creates a GNSSSerialPort with the default config.
func NewGNSSSerialPort() *GNSSSerialPort {
	return &GNSSSerialPort{config: DefaultSerialConfig()}
}

// Open opens portName at baudRate (or the configured default if <= 0).
func (p *GNSSSerialPort) Open(portName string, baudRate int) error {
	if baudRate > 0 {
		p.config.BaudRate = baudRate
	}

	mode := &serial.Mode{
		BaudRate: p.config.BaudRate,
		DataBits: p.config.DataBits,
		Parity:   p.config.Parity,
		StopBits: p.config.StopBits,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return fmt.Errorf("opening serial port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(p.config.Timeout); err != nil {
		port.Close()
		return fmt.Errorf("setting read timeout on %s: %w", portName, err)
	}

	p.port = port
	p.portName = portName
	return nil
}

// Close closes the port, if open.
func (p *GNSSSerialPort) Close() error {
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}

// Read reads from the open port.
func (p *GNSSSerialPort) Read(buffer []byte) (int, error) {
	if p.port == nil {
		return 0, fmt.Errorf("serial port not open")
	}
	return p.port.Read(buffer)
}

// Write writes to the open port.
func (p *GNSSSerialPort) Write(data []byte) (int, error) {
	if p.port == nil {
		return 0, fmt.Errorf("serial port not open")
	}
	return p.port.Write(data)
}

// SetReadTimeout updates the read timeout of the open port.
func (p *GNSSSerialPort) SetReadTimeout(timeout time.Duration) error {
	if p.port == nil {
		return fmt.Errorf("serial port not open")
	}
	p.config.Timeout = timeout
	return p.port.SetReadTimeout(timeout)
}

// ListPorts returns the names of all detected serial ports.
func (p *GNSSSerialPort) ListPorts() ([]string, error) {
	details, err := p.GetPortDetails()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(details))
	for _, d := range details {
		names = append(names, d.Name)
	}
	return names, nil
}

// GetPortDetails returns the enumerator's detailed port listing.
func (p *GNSSSerialPort) GetPortDetails() ([]*enumerator.PortDetails, error) {
	return enumerator.GetDetailedPortsList()
}
