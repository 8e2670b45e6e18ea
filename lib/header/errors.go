// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package header

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNoConfigs = errors.New("at least one config pair is required")
	ErrBadMagic  = errors.New("boot header magic not found")
)

// InsufficientSlackError means the image doesn't end with enough erased
// bytes to hold the header. The image needs padding, usually via the
// linker script.
type InsufficientSlackError struct {
	Required int
}

func (e *InsufficientSlackError) Error() string {
	return fmt.Sprintf("image does not have enough slack space at end (need %d (0x%x) including %d-byte reset vector)",
		e.Required, e.Required, ResetVectorLen)
}

// InternalLayoutError means a packed region came out the wrong size. It
// indicates a bug, not bad input.
type InternalLayoutError struct {
	Region   string
	Expected int
	Actual   int
}

func (e *InternalLayoutError) Error() string {
	return fmt.Sprintf("internal error: %s is %d (0x%x) bytes, expected %d (0x%x)",
		e.Region, e.Actual, e.Actual, e.Expected, e.Expected)
}

// AddressRangeError means the jump address doesn't fit in 32 bits.
type AddressRangeError struct {
	CopyAddress uint32
	ImageLen    int
}

func (e *AddressRangeError) Error() string {
	return fmt.Sprintf("jump address out of range: copy address 0x%08x + image length 0x%x - 0x%x",
		e.CopyAddress, e.ImageLen, EntryOffset)
}

// TruncatedError means there's less data than the header describes.
type TruncatedError struct {
	Need int
	Have int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated boot header: need %d (0x%x) bytes, have %d (0x%x)",
		e.Need, e.Need, e.Have, e.Have)
}
