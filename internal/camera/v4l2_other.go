// SPDX-License-Identifier: GPL-3.0-only

//go:build !(linux && (amd64 || arm64 || riscv64 || ppc64le || loong64))

package camera

import (
	"errors"
	"fmt"
	"runtime"
)

// OpenDevice is not available on this platform.
func OpenDevice(path string) (Device, error) {
	return nil, fmt.Errorf("open %s: %w on %s/%s", path, errors.ErrUnsupported, runtime.GOOS, runtime.GOARCH)
}
