// SPDX-License-Identifier: GPL-3.0-only

//go:build linux && (amd64 || arm64 || riscv64 || ppc64le || loong64)

package camera

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// V4L2 UAPI constants from include/uapi/linux/videodev2.h. The struct layouts below match
// the kernel ABI on 64-bit little-endian architectures only, hence the build constraint.
const (
	v4l2BufTypeVideoCapture = 1
	v4l2MemoryMMAP          = 1

	iocWrite = 1
	iocRead  = 2
)

// v4l2Format mirrors struct v4l2_format. The union is 8-byte aligned because
// struct v4l2_window contains pointers.
type v4l2Format struct {
	Type uint32
	_    uint32
	Fmt  [200]byte
}

// v4l2RequestBuffers mirrors struct v4l2_requestbuffers.
type v4l2RequestBuffers struct {
	Count        uint32
	Type         uint32
	Memory       uint32
	Capabilities uint32
	Flags        uint8
	Reserved     [3]uint8
}

// v4l2Timecode mirrors struct v4l2_timecode.
type v4l2Timecode struct {
	Type     uint32
	Flags    uint32
	Frames   uint8
	Seconds  uint8
	Minutes  uint8
	Hours    uint8
	Userbits [4]uint8
}

// v4l2Buffer mirrors struct v4l2_buffer. M holds the union whose first member, the mmap
// offset, occupies the low 32 bits on little-endian machines.
type v4l2Buffer struct {
	Index     uint32
	Type      uint32
	BytesUsed uint32
	Flags     uint32
	Field     uint32
	_         uint32
	Timestamp [2]int64
	Timecode  v4l2Timecode
	Sequence  uint32
	Memory    uint32
	M         uint64
	Length    uint32
	Reserved2 uint32
	RequestFD int32
	_         uint32
}

// ioc encodes an ioctl request number: direction << 30 | size << 16 | type << 8 | nr.
func ioc(dir, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | uintptr('V')<<8 | nr
}

var (
	vidiocSFmt      = ioc(iocRead|iocWrite, 5, unsafe.Sizeof(v4l2Format{}))
	vidiocReqBufs   = ioc(iocRead|iocWrite, 8, unsafe.Sizeof(v4l2RequestBuffers{}))
	vidiocQueryBuf  = ioc(iocRead|iocWrite, 9, unsafe.Sizeof(v4l2Buffer{}))
	vidiocQBuf      = ioc(iocRead|iocWrite, 15, unsafe.Sizeof(v4l2Buffer{}))
	vidiocDQBuf     = ioc(iocRead|iocWrite, 17, unsafe.Sizeof(v4l2Buffer{}))
	vidiocStreamOn  = ioc(iocWrite, 18, unsafe.Sizeof(int32(0)))
	vidiocStreamOff = ioc(iocWrite, 19, unsafe.Sizeof(int32(0)))
)

// V4L2Device is a capture device node opened for streaming I/O.
type V4L2Device struct {
	fd   int
	path string
}

// Verify V4L2Device implements Device interface.
var _ Device = (*V4L2Device)(nil)

// OpenDevice opens a V4L2 capture node for reading and writing.
func OpenDevice(path string) (Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &V4L2Device{fd: fd, path: path}, nil
}

func (d *V4L2Device) ioctl(req uintptr, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), req, uintptr(arg))
		switch errno {
		case 0:
			return nil
		case unix.EINTR:
			continue
		default:
			return errno
		}
	}
}

// SetFormat issues VIDIOC_S_FMT. Drivers may adjust the resolution, but a different pixel
// format is rejected because the luma estimate depends on the YUYV byte layout.
func (d *V4L2Device) SetFormat(width, height, pixelFormat uint32) error {
	var f v4l2Format
	f.Type = v4l2BufTypeVideoCapture
	binary.LittleEndian.PutUint32(f.Fmt[0:4], width)
	binary.LittleEndian.PutUint32(f.Fmt[4:8], height)
	binary.LittleEndian.PutUint32(f.Fmt[8:12], pixelFormat)

	if err := d.ioctl(vidiocSFmt, unsafe.Pointer(&f)); err != nil {
		return fmt.Errorf("VIDIOC_S_FMT: %w", err)
	}

	if got := binary.LittleEndian.Uint32(f.Fmt[8:12]); got != pixelFormat {
		return fmt.Errorf("driver selected pixel format 0x%08x instead of 0x%08x", got, pixelFormat)
	}
	return nil
}

// RequestBuffers issues VIDIOC_REQBUFS for memory-mapped buffers.
func (d *V4L2Device) RequestBuffers(count uint32) error {
	req := v4l2RequestBuffers{
		Count:  count,
		Type:   v4l2BufTypeVideoCapture,
		Memory: v4l2MemoryMMAP,
	}
	if err := d.ioctl(vidiocReqBufs, unsafe.Pointer(&req)); err != nil {
		return fmt.Errorf("VIDIOC_REQBUFS: %w", err)
	}
	if req.Count < count {
		return fmt.Errorf("driver allocated %d of %d buffers", req.Count, count)
	}
	return nil
}

// QueryBuffer issues VIDIOC_QUERYBUF.
func (d *V4L2Device) QueryBuffer(index uint32) (Buffer, error) {
	buf := v4l2Buffer{
		Index:  index,
		Type:   v4l2BufTypeVideoCapture,
		Memory: v4l2MemoryMMAP,
	}
	if err := d.ioctl(vidiocQueryBuf, unsafe.Pointer(&buf)); err != nil {
		return Buffer{}, fmt.Errorf("VIDIOC_QUERYBUF: %w", err)
	}
	return Buffer{
		Index:  buf.Index,
		Offset: uint32(buf.M),
		Length: buf.Length,
	}, nil
}

// Map maps the buffer shared with the driver.
func (d *V4L2Device) Map(buf Buffer) ([]byte, error) {
	data, err := unix.Mmap(d.fd, int64(buf.Offset), int(buf.Length), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return data, nil
}

// Unmap releases a mapping returned by Map.
func (d *V4L2Device) Unmap(data []byte) error {
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}

// StreamOn issues VIDIOC_STREAMON.
func (d *V4L2Device) StreamOn() error {
	typ := uint32(v4l2BufTypeVideoCapture)
	if err := d.ioctl(vidiocStreamOn, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("VIDIOC_STREAMON: %w", err)
	}
	return nil
}

// StreamOff issues VIDIOC_STREAMOFF.
func (d *V4L2Device) StreamOff() error {
	typ := uint32(v4l2BufTypeVideoCapture)
	if err := d.ioctl(vidiocStreamOff, unsafe.Pointer(&typ)); err != nil {
		return fmt.Errorf("VIDIOC_STREAMOFF: %w", err)
	}
	return nil
}

// Enqueue issues VIDIOC_QBUF.
func (d *V4L2Device) Enqueue(index uint32) error {
	buf := v4l2Buffer{
		Index:  index,
		Type:   v4l2BufTypeVideoCapture,
		Memory: v4l2MemoryMMAP,
	}
	if err := d.ioctl(vidiocQBuf, unsafe.Pointer(&buf)); err != nil {
		return fmt.Errorf("VIDIOC_QBUF: %w", err)
	}
	return nil
}

// Dequeue issues VIDIOC_DQBUF. The descriptor is blocking, so this waits for a frame.
func (d *V4L2Device) Dequeue(index uint32) (uint32, error) {
	buf := v4l2Buffer{
		Index:  index,
		Type:   v4l2BufTypeVideoCapture,
		Memory: v4l2MemoryMMAP,
	}
	if err := d.ioctl(vidiocDQBuf, unsafe.Pointer(&buf)); err != nil {
		return 0, fmt.Errorf("VIDIOC_DQBUF: %w", err)
	}
	return buf.BytesUsed, nil
}

// Close closes the device descriptor.
func (d *V4L2Device) Close() error {
	if err := unix.Close(d.fd); err != nil {
		return fmt.Errorf("close %s: %w", d.path, err)
	}
	return nil
}
