//go:build !nogpu

package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice opens the noop backend's instance -> adapter ->
// device -> queue chain, giving tests a real hal.Device/hal.Queue pair
// without requiring GPU hardware. Mirrors internal/gpu's own
// createNoopDevice test helper in the teacher repo.
func createNoopDevice(t *testing.T) (*Device, func()) {
	t.Helper()

	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		t.Fatal("noop backend reported no adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}

	d, err := New(openDev.Device, openDev.Queue)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		t.Fatalf("New failed: %v", err)
	}

	cleanup := func() {
		d.Close()
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return d, cleanup
}

func TestDeviceNew(t *testing.T) {
	d, cleanup := createNoopDevice(t)
	defer cleanup()

	if d.shaderModule == nil {
		t.Error("expected non-nil shaderModule")
	}
	if d.bgLayout == nil {
		t.Error("expected non-nil bgLayout")
	}
	if d.pipelineLayout == nil {
		t.Error("expected non-nil pipelineLayout")
	}
	if d.pipeline == nil {
		t.Error("expected non-nil pipeline")
	}
}

func TestDeviceClose(t *testing.T) {
	d, cleanup := createNoopDevice(t)
	defer cleanup()

	d.Close()

	if d.shaderModule != nil {
		t.Error("expected nil shaderModule after Close")
	}
	if d.bgLayout != nil {
		t.Error("expected nil bgLayout after Close")
	}
	if d.pipelineLayout != nil {
		t.Error("expected nil pipelineLayout after Close")
	}
	if d.pipeline != nil {
		t.Error("expected nil pipeline after Close")
	}

	// Double-close must not panic.
	d.Close()
}

func TestDeviceCreateBufferAndWrite(t *testing.T) {
	d, cleanup := createNoopDevice(t)
	defer cleanup()

	const width = 8
	buf, err := d.CreateBuffer(width * 2)
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}
	defer buf.Release()

	if buf.Len() != width*2 {
		t.Errorf("Len() = %d, want %d", buf.Len(), width*2)
	}

	row0 := make([]uint32, width)
	row0[width/2] = 1
	if err := d.WriteBuffer(buf, 0, row0); err != nil {
		t.Fatalf("WriteBuffer failed: %v", err)
	}
}

func TestDeviceAdvanceAndCopy(t *testing.T) {
	d, cleanup := createNoopDevice(t)
	defer cleanup()

	const width = 8
	const iterations = 2
	buf, err := d.CreateBuffer(width * (iterations + 1))
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}
	defer buf.Release()

	row0 := make([]uint32, width)
	row0[width/2] = 1
	if err := d.WriteBuffer(buf, 0, row0); err != nil {
		t.Fatalf("WriteBuffer failed: %v", err)
	}

	if err := d.Advance(buf, width, 30, iterations); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	other, err := d.CreateBuffer(width)
	if err != nil {
		t.Fatalf("CreateBuffer (copy dest) failed: %v", err)
	}
	defer other.Release()

	if err := d.Copy(other, 0, buf, width, width); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}

	if _, err := d.Read(buf, 0, width*(iterations+1)); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
}

func TestDeviceAdvanceZeroIterationsIsNoop(t *testing.T) {
	d, cleanup := createNoopDevice(t)
	defer cleanup()

	buf, err := d.CreateBuffer(8)
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}
	defer buf.Release()

	if err := d.Advance(buf, 8, 30, 0); err != nil {
		t.Errorf("Advance with 0 iterations returned an error: %v", err)
	}
}
