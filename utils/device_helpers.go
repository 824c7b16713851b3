package utils

import (
	"github.com/notargets/DGView/space"
	"github.com/notargets/gocca"
	"go.uber.org/zap"
)

// CreateTestDevice creates a Device for testing, preferring parallel
// backends, and registers it as the backing of space.Device
func CreateTestDevice() *gocca.OCCADevice {
	// Try OpenMP, then CUDA, then fall back to Serial
	backends := []string{
		`{"mode": "OpenMP"}`,
		`{"mode": "CUDA", "device_id": 0}`,
		`{"mode": "Serial"}`,
	}

	for _, props := range backends {
		device, err := gocca.NewDevice(props)
		if err == nil {
			zap.L().Info("created device", zap.String("mode", device.Mode()))
			space.SetDevice(device)
			return device
		}
	}

	// Should not reach here
	panic("Failed to create any Device")
}

// ReleaseTestDevice unregisters and frees a device from CreateTestDevice
func ReleaseTestDevice(device *gocca.OCCADevice) {
	if space.CurrentDevice() == device {
		space.SetDevice(nil)
	}
	device.Free()
}
