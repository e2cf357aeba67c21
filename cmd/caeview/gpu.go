//go:build !nogpu

package main

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/pozyx/CAE/ca"
	gpudevice "github.com/pozyx/CAE/ca/gpu"
)

// openGPUDevice performs the instance -> adapter -> device -> queue
// bring-up described in spec.md's render contract and wraps the result
// as a ca.Device, the same standalone path internal/gpu's accelerator
// takes when no external device provider is available: pick the
// Vulkan backend, open the first discrete/integrated adapter it finds,
// and hand the opened device/queue to gpu.New.
func openGPUDevice() (ca.Device, func(), error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, nil, fmt.Errorf("vulkan backend not available")
	}

	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, nil, fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, fmt.Errorf("no GPU adapters found")
	}

	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, fmt.Errorf("open device: %w", err)
	}

	dev, err := gpudevice.New(openDev.Device, openDev.Queue)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, nil, fmt.Errorf("build compute pipeline: %w", err)
	}

	cleanup := func() {
		dev.Close()
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return dev, cleanup, nil
}
