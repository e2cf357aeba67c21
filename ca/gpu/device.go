//go:build !nogpu

// Package gpu implements ca.Device on top of gogpu/wgpu's HAL layer,
// dispatching the Tile Compute Kernel as a WebGPU compute pipeline.
//
// Acquiring the hal.Device/hal.Queue pair (instance -> adapter -> device
// -> queue) is the caller's responsibility, the same division of labor
// backend/native.NewHALAdapter uses: this package takes an already-open
// device and queue rather than owning GPU bring-up itself. cmd/caeview
// is that caller in this repository.
package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/pozyx/CAE/ca"
	internalgpu "github.com/pozyx/CAE/internal/gpu"
)

const (
	advanceWGSL = `
struct Params {
    width: u32,
    height: u32,
    rule: u32,
    current_row: u32,
}

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read_write> cells: array<u32>;

fn cell_at(row: u32, col: i32) -> u32 {
    if (col < 0 || u32(col) >= params.width) {
        return 0u;
    }
    return cells[row * params.width + u32(col)] & 1u;
}

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let x = gid.x;
    if (x >= params.width) {
        return;
    }
    let row = params.current_row;
    if (row + 1u >= params.height) {
        return;
    }
    let l = cell_at(row, i32(x) - 1);
    let c = cell_at(row, i32(x));
    let r = cell_at(row, i32(x) + 1);
    let idx = (l << 2u) | (c << 1u) | r;
    let bit = (params.rule >> idx) & 1u;
    cells[(row + 1u) * params.width + x] = bit;
}
`
	workgroupSize  = 256
	fenceTimeout   = 10 * time.Second
	paramsByteSize = 16
)

// Device implements ca.Device by dispatching the CA advance shader above
// against a hal.Device/hal.Queue supplied at construction.
type Device struct {
	device hal.Device
	queue  hal.Queue

	shaderModule   hal.ShaderModule
	bgLayout       hal.BindGroupLayout
	pipelineLayout hal.PipelineLayout
	pipeline       hal.ComputePipeline
}

// New compiles the advance shader and builds the compute pipeline against
// an already-open device and queue.
func New(device hal.Device, queue hal.Queue) (*Device, error) {
	d := &Device{device: device, queue: queue}

	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "ca_advance",
		Source: hal.ShaderSource{WGSL: advanceWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("ca/gpu: create shader module: %w", err)
	}
	d.shaderModule = module

	bgLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "ca_advance_bgl",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
			},
		},
	})
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("ca/gpu: create bind group layout: %w", err)
	}
	d.bgLayout = bgLayout

	pipelineLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "ca_advance_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bgLayout},
	})
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("ca/gpu: create pipeline layout: %w", err)
	}
	d.pipelineLayout = pipelineLayout

	pipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "ca_advance",
		Layout: pipelineLayout,
		Compute: hal.ComputeState{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("ca/gpu: create compute pipeline: %w", err)
	}
	d.pipeline = pipeline

	return d, nil
}

// Close releases the pipeline resources. The underlying device/queue are
// owned by the caller and are left open.
func (d *Device) Close() {
	if d.pipeline != nil {
		d.device.DestroyComputePipeline(d.pipeline)
		d.pipeline = nil
	}
	if d.pipelineLayout != nil {
		d.device.DestroyPipelineLayout(d.pipelineLayout)
		d.pipelineLayout = nil
	}
	if d.bgLayout != nil {
		d.device.DestroyBindGroupLayout(d.bgLayout)
		d.bgLayout = nil
	}
	if d.shaderModule != nil {
		d.device.DestroyShaderModule(d.shaderModule)
		d.shaderModule = nil
	}
}

// buffer wraps a hal.Buffer to satisfy ca.Buffer.
type buffer struct {
	dev   *Device
	buf   hal.Buffer
	words int
}

func (b *buffer) Len() int { return b.words }

func (b *buffer) Release() {
	if b.buf != nil {
		b.dev.device.DestroyBuffer(b.buf)
		b.buf = nil
	}
}

// CreateBuffer allocates a storage buffer of the given word count, usable
// both as a compute target and as a copy source/destination.
func (d *Device) CreateBuffer(words int) (ca.Buffer, error) {
	size := uint64(words) * 4
	if size < 4 {
		size = 4
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "ca_tile",
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("ca/gpu: create buffer: %w", err)
	}
	return &buffer{dev: d, buf: buf, words: words}, nil
}

func asBuffer(b ca.Buffer) (*buffer, error) {
	bb, ok := b.(*buffer)
	if !ok {
		return nil, fmt.Errorf("ca/gpu: foreign buffer type %T", b)
	}
	return bb, nil
}

// WriteBuffer uploads data at offsetWords via the queue.
func (d *Device) WriteBuffer(buf ca.Buffer, offsetWords int, data []uint32) error {
	b, err := asBuffer(buf)
	if err != nil {
		return err
	}
	d.queue.WriteBuffer(b.buf, uint64(offsetWords)*4, uint32sToBytes(data))
	return nil
}

// Advance dispatches `iterations` compute passes recorded into a single
// command buffer, one per generation. Each generation's uniform lives in
// its own small buffer (written via the queue before the encoder is
// built) so that per-generation parameters never alias: all writes land
// on the queue timeline strictly before the single Submit call that
// executes every pass, and since each pass reads its own buffer, the
// order those writes happened in relative to each other never matters.
func (d *Device) Advance(buf ca.Buffer, simulatedWidth uint32, rule uint8, iterations uint32) error {
	b, err := asBuffer(buf)
	if err != nil {
		return err
	}
	if iterations == 0 {
		return nil
	}

	paramBufs := make([]hal.Buffer, iterations)
	for g := uint32(0); g < iterations; g++ {
		pb, err := d.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "ca_advance_params",
			Size:  paramsByteSize,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			destroyAll(d.device, paramBufs[:g])
			return fmt.Errorf("ca/gpu: create params buffer for generation %d: %w", g, err)
		}
		paramBufs[g] = pb
		d.queue.WriteBuffer(pb, 0, paramsBytes(simulatedWidth, uint32(b.words)/simulatedWidth, rule, g))
	}
	defer destroyAll(d.device, paramBufs)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "ca_advance"})
	if err != nil {
		return fmt.Errorf("ca/gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("ca_advance"); err != nil {
		return fmt.Errorf("ca/gpu: begin encoding: %w", err)
	}

	wgCount := (simulatedWidth + workgroupSize - 1) / workgroupSize
	var bindGroups []hal.BindGroup
	cleanupBindGroups := func() {
		for _, bg := range bindGroups {
			d.device.DestroyBindGroup(bg)
		}
	}

	for g := uint32(0); g < iterations; g++ {
		bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "ca_advance_bg",
			Layout: d.bgLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{Buffer: paramBufs[g].NativeHandle()}},
				{Binding: 1, Resource: gputypes.BufferBinding{Buffer: b.buf.NativeHandle()}},
			},
		})
		if err != nil {
			encoder.DiscardEncoding()
			cleanupBindGroups()
			return fmt.Errorf("ca/gpu: create bind group for generation %d: %w", g, err)
		}
		bindGroups = append(bindGroups, bg)

		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "ca_advance"})
		pass.SetPipeline(d.pipeline)
		pass.SetBindGroup(0, bg, nil)
		pass.Dispatch(wgCount, 1, 1)
		pass.End()
	}
	defer cleanupBindGroups()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("ca/gpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("ca/gpu: create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("ca/gpu: submit: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("ca/gpu: wait: %w", err)
	}
	if !ok {
		return fmt.Errorf("ca/gpu: timeout after %v waiting for %d generations", fenceTimeout, iterations)
	}
	return nil
}

// Copy issues a device-to-device buffer copy via the command encoder.
func (d *Device) Copy(dst ca.Buffer, dstOffsetWords int, src ca.Buffer, srcOffsetWords int, lengthWords int) error {
	dstB, err := asBuffer(dst)
	if err != nil {
		return err
	}
	srcB, err := asBuffer(src)
	if err != nil {
		return err
	}

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "ca_copy"})
	if err != nil {
		return fmt.Errorf("ca/gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("ca_copy"); err != nil {
		return fmt.Errorf("ca/gpu: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(srcB.buf, uint64(srcOffsetWords)*4, dstB.buf, uint64(dstOffsetWords)*4, uint64(lengthWords)*4)

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("ca/gpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("ca/gpu: create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("ca/gpu: submit copy: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("ca/gpu: wait for copy: %w", err)
	}
	if !ok {
		return fmt.Errorf("ca/gpu: timeout waiting for copy")
	}
	return nil
}

// Read maps the buffer and copies back lengthWords words starting at
// offsetWords. Only used by tests and golden comparisons against the CPU
// reference device; the steady-state render path never calls it.
//
// Staging allocation and the map/poll/unmap lifecycle go through
// internal/gpu's Buffer wrapper rather than the raw hal.Buffer handle,
// since hal.Buffer itself exposes no mapping surface — only the wrapper
// tracks map state and exposes GetMappedRange.
func (d *Device) Read(buf ca.Buffer, offsetWords, lengthWords int) ([]uint32, error) {
	b, err := asBuffer(buf)
	if err != nil {
		return nil, err
	}

	size := uint64(lengthWords) * 4
	staging, err := internalgpu.CreateStagingBuffer(d.device, size, false, "ca_readback")
	if err != nil {
		return nil, fmt.Errorf("ca/gpu: create staging buffer: %w", err)
	}
	defer staging.Destroy()

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "ca_read"})
	if err != nil {
		return nil, fmt.Errorf("ca/gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("ca_read"); err != nil {
		return nil, fmt.Errorf("ca/gpu: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(b.buf, uint64(offsetWords)*4, staging.Raw(), 0, size)

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("ca/gpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("ca/gpu: create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("ca/gpu: submit readback: %w", err)
	}
	if ok, err := d.device.Wait(fence, 1, fenceTimeout); err != nil {
		return nil, fmt.Errorf("ca/gpu: wait for readback: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("ca/gpu: timeout waiting for readback")
	}

	mapDone := make(chan internalgpu.BufferMapAsyncStatus, 1)
	if err := staging.MapAsync(gputypes.MapModeRead, 0, size, func(status internalgpu.BufferMapAsyncStatus) {
		mapDone <- status
	}); err != nil {
		return nil, fmt.Errorf("ca/gpu: map staging buffer: %w", err)
	}

	deadline := time.Now().Add(fenceTimeout)
	var status internalgpu.BufferMapAsyncStatus
	for {
		if staging.PollMapAsync() {
			select {
			case status = <-mapDone:
			default:
				status = internalgpu.BufferMapAsyncStatusSuccess
			}
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("ca/gpu: timeout waiting for staging buffer map")
		}
	}
	if status != internalgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("ca/gpu: staging buffer map failed: %s", status)
	}

	raw, err := staging.GetMappedRange(0, size)
	if err != nil {
		return nil, fmt.Errorf("ca/gpu: get mapped range: %w", err)
	}
	out := bytesToUint32s(raw)
	if err := staging.Unmap(); err != nil {
		return nil, fmt.Errorf("ca/gpu: unmap staging buffer: %w", err)
	}

	return out, nil
}

func destroyAll(device hal.Device, bufs []hal.Buffer) {
	for _, b := range bufs {
		if b != nil {
			device.DestroyBuffer(b)
		}
	}
}

func paramsBytes(width, height uint32, rule uint8, currentRow uint32) []byte {
	out := make([]byte, paramsByteSize)
	putU32(out[0:4], width)
	putU32(out[4:8], height)
	putU32(out[8:12], uint32(rule))
	putU32(out[12:16], currentRow)
	return out
}

func putU32(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}

func uint32sToBytes(words []uint32) []byte {
	out := make([]byte, len(words)*4)
	for i, w := range words {
		putU32(out[i*4:i*4+4], w)
	}
	return out
}

func bytesToUint32s(raw []byte) []uint32 {
	out := make([]uint32, len(raw)/4)
	for i := range out {
		out[i] = uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 | uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
	}
	return out
}
