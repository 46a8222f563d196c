package channel

import (
	"fmt"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// PortDetail describes a serial port found on the host.
type PortDetail struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// ListPorts returns the serial ports present on the host. When none are found
// the list holds only SimulatedPort, so callers always have something to pick.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return []string{SimulatedPort}, fmt.Errorf("channel: list ports: %w", err)
	}

	if len(ports) == 0 {
		return []string{SimulatedPort}, nil
	}

	return ports, nil
}

// ListPortDetails returns USB details for every port the enumerator can see.
func ListPortDetails() ([]PortDetail, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("channel: enumerate ports: %w", err)
	}

	details := make([]PortDetail, 0, len(ports))
	for _, p := range ports {
		details = append(details, PortDetail{
			Name:         p.Name,
			IsUSB:        p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
			Product:      p.Product,
		})
	}

	return details, nil
}
