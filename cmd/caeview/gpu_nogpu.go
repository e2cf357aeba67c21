//go:build nogpu

package main

import (
	"fmt"

	"github.com/pozyx/CAE/ca"
)

// openGPUDevice is unavailable in nogpu builds; main always falls back
// to ca.CPUDevice.
func openGPUDevice() (ca.Device, func(), error) {
	return nil, nil, fmt.Errorf("built with the nogpu tag")
}
