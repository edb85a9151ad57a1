// SPDX-License-Identifier: GPL-3.0-only

//go:build linux && (amd64 || arm64 || riscv64 || ppc64le || loong64)

package camera

import (
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructLayouts(t *testing.T) {
	assert.Equal(t, uintptr(208), unsafe.Sizeof(v4l2Format{}))
	assert.Equal(t, uintptr(20), unsafe.Sizeof(v4l2RequestBuffers{}))
	assert.Equal(t, uintptr(16), unsafe.Sizeof(v4l2Timecode{}))
	assert.Equal(t, uintptr(88), unsafe.Sizeof(v4l2Buffer{}))
	assert.Equal(t, uintptr(64), unsafe.Offsetof(v4l2Buffer{}.M))
}

func TestIoctlNumbers(t *testing.T) {
	tests := []struct {
		name     string
		got      uintptr
		expected uintptr
	}{
		{name: "VIDIOC_S_FMT", got: vidiocSFmt, expected: 0xc0d05605},
		{name: "VIDIOC_REQBUFS", got: vidiocReqBufs, expected: 0xc0145608},
		{name: "VIDIOC_QUERYBUF", got: vidiocQueryBuf, expected: 0xc0585609},
		{name: "VIDIOC_QBUF", got: vidiocQBuf, expected: 0xc058560f},
		{name: "VIDIOC_DQBUF", got: vidiocDQBuf, expected: 0xc0585611},
		{name: "VIDIOC_STREAMON", got: vidiocStreamOn, expected: 0x40045612},
		{name: "VIDIOC_STREAMOFF", got: vidiocStreamOff, expected: 0x40045613},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestOpenDevice_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "video0")

	dev, err := OpenDevice(path)
	require.Error(t, err)
	assert.Nil(t, dev)
	assert.Contains(t, err.Error(), path)
}
