// Package camera estimates ambient light from a V4L2 capture device.
package camera

//go:generate mockgen -source=device.go -destination=mocks/device_mock.go -package=mocks

// Buffer describes a driver-allocated capture buffer.
type Buffer struct {
	Index  uint32
	Offset uint32
	Length uint32
}

// Device represents the V4L2 operations needed for a single-buffer streaming capture.
// This interface allows for mocking in tests.
type Device interface {
	// SetFormat negotiates the capture resolution and pixel format.
	SetFormat(width, height, pixelFormat uint32) error

	// RequestBuffers asks the driver for count memory-mapped buffers.
	RequestBuffers(count uint32) error

	// QueryBuffer returns the mapping parameters of buffer index.
	QueryBuffer(index uint32) (Buffer, error)

	// Map maps a buffer into process memory.
	Map(buf Buffer) ([]byte, error)

	// Unmap releases memory returned by Map.
	Unmap(data []byte) error

	// StreamOn starts capturing.
	StreamOn() error

	// StreamOff stops capturing and returns all buffers to the driver.
	StreamOff() error

	// Enqueue hands buffer index to the driver for filling.
	Enqueue(index uint32) error

	// Dequeue waits for a filled buffer and returns the number of bytes used.
	Dequeue(index uint32) (uint32, error)

	// Close closes the device handle.
	Close() error
}

// DeviceOpener is a function type that opens a capture device node.
type DeviceOpener func(path string) (Device, error)

// Sampler produces one luma estimate (0-255) from the named capture device.
type Sampler interface {
	Sample(device string) (int, error)
}
