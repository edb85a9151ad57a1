// SPDX-License-Identifier: GPL-3.0-only

package camera

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

const (
	// CaptureWidth is the negotiated frame width in pixels.
	CaptureWidth = 640

	// CaptureHeight is the negotiated frame height in pixels.
	CaptureHeight = 480

	// PixelFormatYUYV is the V4L2 fourcc for packed YUV 4:2:2 ('YUYV').
	PixelFormatYUYV uint32 = 'Y' | 'U'<<8 | 'Y'<<16 | 'V'<<24

	// DefaultWarmupFrames is the number of frames discarded while auto exposure settles.
	DefaultWarmupFrames = 5

	// DefaultStride is the byte distance between sampled luma values. It is even, so every
	// sampled byte of a YUYV frame is a Y byte.
	DefaultStride = 20
)

var (
	// ErrOpen is returned when the capture device cannot be opened.
	ErrOpen = errors.New("failed to open capture device")

	// ErrFormat is returned when the capture format cannot be negotiated.
	ErrFormat = errors.New("failed to negotiate capture format")

	// ErrBuffer is returned when the capture buffer cannot be allocated or mapped.
	ErrBuffer = errors.New("failed to set up capture buffer")

	// ErrStream is returned when streaming or frame exchange fails.
	ErrStream = errors.New("failed to capture frame")

	// ErrNoFrameData is returned when the captured frame contained no usable bytes.
	ErrNoFrameData = errors.New("captured frame contained no data")
)

// V4L2Sampler captures a short burst of frames and averages the luma of the last one.
// Each Sample call opens and fully releases the device.
type V4L2Sampler struct {
	opener       DeviceOpener
	warmupFrames int
	stride       int
}

// SamplerOption is a functional option for configuring a V4L2Sampler.
type SamplerOption func(*V4L2Sampler)

// WithOpener sets a custom device opener for testing.
func WithOpener(fn DeviceOpener) SamplerOption {
	return func(s *V4L2Sampler) {
		s.opener = fn
	}
}

// WithWarmupFrames sets the number of discarded frames.
func WithWarmupFrames(n int) SamplerOption {
	return func(s *V4L2Sampler) {
		if n >= 0 {
			s.warmupFrames = n
		}
	}
}

// WithStride sets the sampling stride in bytes.
func WithStride(n int) SamplerOption {
	return func(s *V4L2Sampler) {
		if n > 0 {
			s.stride = n
		}
	}
}

// NewV4L2Sampler creates a sampler that opens devices with OpenDevice.
func NewV4L2Sampler(opts ...SamplerOption) *V4L2Sampler {
	s := &V4L2Sampler{
		opener:       OpenDevice,
		warmupFrames: DefaultWarmupFrames,
		stride:       DefaultStride,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify V4L2Sampler implements Sampler interface.
var _ Sampler = (*V4L2Sampler)(nil)

// Sample returns the mean luma of one frame from device. Everything acquired along the way
// is released before returning, including on early failures.
func (s *V4L2Sampler) Sample(device string) (int, error) {
	dev, err := s.opener(device)
	if err != nil {
		return 0, fmt.Errorf("%w %s: %w", ErrOpen, device, err)
	}
	defer func() {
		if closeErr := dev.Close(); closeErr != nil {
			log.Debug().Err(closeErr).Str("device", device).Msg("Failed to close capture device")
		}
	}()

	if err := dev.SetFormat(CaptureWidth, CaptureHeight, PixelFormatYUYV); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFormat, err)
	}

	if err := dev.RequestBuffers(1); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuffer, err)
	}

	buf, err := dev.QueryBuffer(0)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuffer, err)
	}

	frame, err := dev.Map(buf)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuffer, err)
	}
	defer func() {
		if unmapErr := dev.Unmap(frame); unmapErr != nil {
			log.Debug().Err(unmapErr).Str("device", device).Msg("Failed to unmap capture buffer")
		}
	}()

	if err := dev.StreamOn(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStream, err)
	}
	defer func() {
		if offErr := dev.StreamOff(); offErr != nil {
			log.Debug().Err(offErr).Str("device", device).Msg("Failed to stop streaming")
		}
	}()

	var used uint32
	for i := 0; i <= s.warmupFrames; i++ {
		if err := dev.Enqueue(buf.Index); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrStream, err)
		}
		if used, err = dev.Dequeue(buf.Index); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrStream, err)
		}
	}

	luma, ok := AverageLuma(frame, used, s.stride)
	if !ok {
		return 0, ErrNoFrameData
	}

	log.Debug().Str("device", device).Int("luma", luma).Uint32("bytes", used).Msg("Captured ambient sample")
	return luma, nil
}

// AverageLuma averages every stride-th byte of the first used bytes of frame. It reports
// false when no byte could be sampled.
func AverageLuma(frame []byte, used uint32, stride int) (int, bool) {
	n := len(frame)
	if int64(used) < int64(n) {
		n = int(used)
	}
	if stride <= 0 {
		stride = 1
	}

	var total, count int
	for i := 0; i < n; i += stride {
		total += int(frame[i])
		count++
	}

	if count == 0 {
		return 0, false
	}
	return total / count, true
}
