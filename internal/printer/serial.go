package printer

import (
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// SerialTransport talks to a printer over a serial port.
type SerialTransport struct {
	portName string
	baudRate int
	timeout  time.Duration
	port     serial.Port
}

// NewSerialTransport creates a transport for the named port. A zero
// baud rate defaults to 9600 and a zero timeout to 5 seconds.
func NewSerialTransport(portName string, baudRate int, timeout time.Duration) *SerialTransport {
	if baudRate <= 0 {
		baudRate = 9600
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SerialTransport{
		portName: portName,
		baudRate: baudRate,
		timeout:  timeout,
	}
}

func (t *SerialTransport) Open() error {
	port, err := serial.Open(t.portName, &serial.Mode{BaudRate: t.baudRate})
	if err != nil {
		return fmt.Errorf("opening serial port %s: %w", t.portName, err)
	}
	if err := port.SetReadTimeout(t.timeout); err != nil {
		port.Close()
		return fmt.Errorf("configuring serial port %s: %w", t.portName, err)
	}
	t.port = port
	return nil
}

func (t *SerialTransport) Write(data []byte) (int, error) {
	if t.port == nil {
		return 0, ErrNotOpen
	}
	n, err := t.port.Write(data)
	if err != nil {
		return n, fmt.Errorf("writing to serial port %s: %w", t.portName, err)
	}
	return n, nil
}

func (t *SerialTransport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	return err
}

// SerialPortInfo describes one serial port on the host.
type SerialPortInfo struct {
	Device       string
	Description  string
	VendorID     string
	ProductID    string
	SerialNumber string
}

// ListSerialPorts enumerates the serial ports on the host.
func ListSerialPorts() ([]SerialPortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("listing serial ports: %w", err)
	}

	ports := make([]SerialPortInfo, 0, len(details))
	for _, d := range details {
		info := SerialPortInfo{
			Device:      d.Name,
			Description: d.Product,
		}
		if d.IsUSB {
			info.VendorID = d.VID
			info.ProductID = d.PID
			info.SerialNumber = d.SerialNumber
		}
		ports = append(ports, info)
	}
	return ports, nil
}
