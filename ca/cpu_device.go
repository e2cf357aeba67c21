package ca

import "fmt"

// cpuBuffer is the Buffer backing CPUDevice: a plain Go slice standing in
// for a device-resident storage buffer.
type cpuBuffer struct {
	words []uint32
}

func (b *cpuBuffer) Len() int { return len(b.words) }
func (b *cpuBuffer) Release() { b.words = nil }

// CPUDevice is a pure Go, dependency-free reference implementation of
// Device. It produces bit-exact results for every rule and is the
// backend the ca package's tests run on, and the fallback cmd/caeview
// uses when GPU bring-up fails (see the gpu package's build-tagged
// implementation for the GPU-backed Device).
type CPUDevice struct{}

// NewCPUDevice returns a ready-to-use CPU reference device.
func NewCPUDevice() *CPUDevice { return &CPUDevice{} }

func (d *CPUDevice) CreateBuffer(words int) (Buffer, error) {
	if words < 0 {
		return nil, fmt.Errorf("ca: negative buffer size %d", words)
	}
	return &cpuBuffer{words: make([]uint32, words)}, nil
}

func (d *CPUDevice) WriteBuffer(buf Buffer, offsetWords int, data []uint32) error {
	cb, ok := buf.(*cpuBuffer)
	if !ok {
		return fmt.Errorf("ca: CPUDevice cannot operate on a foreign buffer")
	}
	if offsetWords < 0 || offsetWords+len(data) > len(cb.words) {
		return fmt.Errorf("ca: write [%d,%d) out of bounds for buffer of %d words", offsetWords, offsetWords+len(data), len(cb.words))
	}
	copy(cb.words[offsetWords:], data)
	return nil
}

func (d *CPUDevice) Advance(buf Buffer, simulatedWidth uint32, rule uint8, iterations uint32) error {
	cb, ok := buf.(*cpuBuffer)
	if !ok {
		return fmt.Errorf("ca: CPUDevice cannot operate on a foreign buffer")
	}
	w := int(simulatedWidth)
	if w <= 0 {
		return fmt.Errorf("ca: simulated width must be positive")
	}
	for g := uint32(0); g < iterations; g++ {
		srcOff := int(g) * w
		dstOff := int(g+1) * w
		if dstOff+w > len(cb.words) {
			return fmt.Errorf("ca: advance writes row %d out of bounds (buffer has %d words)", g+1, len(cb.words))
		}
		for x := 0; x < w; x++ {
			c := uint8(cb.words[srcOff+x] & 1)
			var l, rt uint8
			if x > 0 {
				l = uint8(cb.words[srcOff+x-1] & 1)
			}
			if x < w-1 {
				rt = uint8(cb.words[srcOff+x+1] & 1)
			}
			cb.words[dstOff+x] = uint32(Next(rule, l, c, rt))
		}
	}
	return nil
}

func (d *CPUDevice) Copy(dst Buffer, dstOffsetWords int, src Buffer, srcOffsetWords int, lengthWords int) error {
	dstB, ok1 := dst.(*cpuBuffer)
	srcB, ok2 := src.(*cpuBuffer)
	if !ok1 || !ok2 {
		return fmt.Errorf("ca: CPUDevice cannot operate on a foreign buffer")
	}
	if lengthWords < 0 {
		return fmt.Errorf("ca: negative copy length")
	}
	if srcOffsetWords < 0 || srcOffsetWords+lengthWords > len(srcB.words) {
		return fmt.Errorf("ca: copy source [%d,%d) out of bounds for buffer of %d words", srcOffsetWords, srcOffsetWords+lengthWords, len(srcB.words))
	}
	if dstOffsetWords < 0 || dstOffsetWords+lengthWords > len(dstB.words) {
		return fmt.Errorf("ca: copy dest [%d,%d) out of bounds for buffer of %d words", dstOffsetWords, dstOffsetWords+lengthWords, len(dstB.words))
	}
	copy(dstB.words[dstOffsetWords:dstOffsetWords+lengthWords], srcB.words[srcOffsetWords:srcOffsetWords+lengthWords])
	return nil
}

func (d *CPUDevice) Read(buf Buffer, offsetWords, lengthWords int) ([]uint32, error) {
	cb, ok := buf.(*cpuBuffer)
	if !ok {
		return nil, fmt.Errorf("ca: CPUDevice cannot operate on a foreign buffer")
	}
	if offsetWords < 0 || offsetWords+lengthWords > len(cb.words) {
		return nil, fmt.Errorf("ca: read [%d,%d) out of bounds for buffer of %d words", offsetWords, offsetWords+lengthWords, len(cb.words))
	}
	out := make([]uint32, lengthWords)
	copy(out, cb.words[offsetWords:offsetWords+lengthWords])
	return out, nil
}
