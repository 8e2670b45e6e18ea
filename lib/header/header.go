// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>

// Package header builds and decodes the SPI flash boot header read by the
// boot ROM of Freescale/NXP P2020-style parts (see the "EEPROM Data
// Structure" section of the reference manual).
//
// The boot ROM performs every (address, value) register write listed in the
// header, then copies CopyLength bytes from just after the header to
// CopyAddress, then jumps to JumpAddress.
package header

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

const (
	// PreConfigLen is the size of the header before the config pairs.
	PreConfigLen = 0x80
	// PairLen is the packed size of one ConfigPair.
	PairLen = 8
	// ResetVectorLen is the length of one PowerPC instruction. Images
	// end with a backwards branch, which isn't needed as the header
	// carries an explicit jump address.
	ResetVectorLen = 4
	// EntryOffset is how far before the end of the copied image the
	// startup code expects to be entered.
	EntryOffset = 0x1000
	// Erased is the value of erased flash.
	Erased byte = 0xff
)

// Magic identifies a boot header, at offset 0x40.
var Magic = [4]byte{'B', 'O', 'O', 'T'}

// SentinelAddr is the address (and value) of the pair which tells the boot
// ROM to stop processing config pairs.
const SentinelAddr uint32 = 0x80000001

// ConfigPair is a register write performed by the boot ROM before the copy.
type ConfigPair struct {
	Address uint32
	Value   uint32
}

// Sentinel is the conventional terminating pair.
var Sentinel = ConfigPair{Address: SentinelAddr, Value: SentinelAddr}

func (p ConfigPair) IsSentinel() bool {
	return p == Sentinel
}

func (p ConfigPair) String() string {
	return fmt.Sprintf("0x%08x = 0x%08x", p.Address, p.Value)
}

// rawHeader is the on-flash layout of the fixed part of the header.
// binary.Write emits zeroes for the blank fields.
type rawHeader struct {
	_          [16]uint32
	Magic      [4]byte
	_          uint32
	CopyLength uint32
	_          uint32
	HeaderLen  uint32
	_          uint32
	CopyAddr   uint32
	_          uint32
	JumpAddr   uint32
	_          uint32
	NumConfigs uint32
	_          [5]uint32
}

// Header is the decoded content of a boot header.
type Header struct {
	CopyLength   uint32
	HeaderLength uint32
	CopyAddress  uint32
	JumpAddress  uint32
	Configs      []ConfigPair
}

// Len returns the header length implied by the number of config pairs.
func Len(numConfigs int) int {
	return PreConfigLen + numConfigs*PairLen
}

func (h *Header) String() string {
	str := ""
	str += fmt.Sprintf("Header length: %d (0x%x) bytes\n", h.HeaderLength, h.HeaderLength)
	str += fmt.Sprintf("Copy length:   %d (0x%x) bytes\n", h.CopyLength, h.CopyLength)
	str += fmt.Sprintf("Copy address:  0x%08x\n", h.CopyAddress)
	str += fmt.Sprintf("Jump address:  0x%08x\n", h.JumpAddress)
	str += fmt.Sprintf("Config pairs:  %d\n", len(h.Configs))

	var pairs []string
	for i, p := range h.Configs {
		s := fmt.Sprintf("  [%d] %s", i, p)
		if p.IsSentinel() {
			s += " (end)"
		}
		pairs = append(pairs, s)
	}

	return str + strings.Join(pairs, "\n")
}

// Encode packs the header. The returned slice is exactly HeaderLength bytes
// long, or an *InternalLayoutError is returned.
func (h *Header) Encode() ([]byte, error) {
	raw := rawHeader{
		Magic:      Magic,
		CopyLength: h.CopyLength,
		HeaderLen:  h.HeaderLength,
		CopyAddr:   h.CopyAddress,
		JumpAddr:   h.JumpAddress,
		NumConfigs: uint32(len(h.Configs)),
	}

	buf := bytes.NewBuffer(make([]byte, 0, h.HeaderLength))
	err := binary.Write(buf, binary.BigEndian, &raw)
	if err != nil {
		return nil, errors.Wrap(err, "Packing header")
	}

	err = checkLen("pre-config header", PreConfigLen, buf.Len())
	if err != nil {
		return nil, err
	}

	for _, p := range h.Configs {
		err = binary.Write(buf, binary.BigEndian, p)
		if err != nil {
			return nil, errors.Wrap(err, "Packing config pair")
		}
	}

	err = checkLen("header", int(h.HeaderLength), buf.Len())
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func checkLen(region string, expected, actual int) error {
	if expected != actual {
		return &InternalLayoutError{
			Region:   region,
			Expected: expected,
			Actual:   actual,
		}
	}
	return nil
}

func hasSlack(image []byte, headerLen int) bool {
	if len(image) < headerLen {
		return false
	}

	tail := image[len(image)-headerLen : len(image)-ResetVectorLen]
	for _, b := range tail {
		if b != Erased {
			return false
		}
	}

	return true
}

// Build applies a boot header to image, which should be the raw bootloader
// binary (e.g. u-boot.bin) without any header.
//
// configs must not be empty, and the Value of its first pair is used as
// the copy destination: the first pair is expected to program the
// cache-as-RAM base address, which is where the image will run from. The
// list should end with Sentinel, but this isn't enforced.
//
// The header replaces erased space at the end of image, so the result has
// the same length as image. If the Len(len(configs)) bytes at the end of
// image, not counting the reset vector, aren't all 0xff then an
// *InsufficientSlackError is returned.
func Build(image []byte, configs []ConfigPair) ([]byte, error) {
	if len(configs) == 0 {
		return nil, ErrNoConfigs
	}

	headerLen := Len(len(configs))
	copyAddr := configs[0].Value

	jump := int64(copyAddr) + int64(len(image)) - EntryOffset
	if jump < 0 || jump > 0xffffffff {
		return nil, &AddressRangeError{
			CopyAddress: copyAddr,
			ImageLen:    len(image),
		}
	}

	if !hasSlack(image, headerLen) {
		return nil, &InsufficientSlackError{Required: headerLen}
	}

	trimmed := image[:len(image)-headerLen]

	hdr := &Header{
		CopyLength:   uint32(len(trimmed)),
		HeaderLength: uint32(headerLen),
		CopyAddress:  copyAddr,
		JumpAddress:  uint32(jump),
		Configs:      configs,
	}

	packed, err := hdr.Encode()
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(image))
	out = append(out, packed...)
	out = append(out, trimmed...)

	err = checkLen("bootable image", len(image), len(out))
	if err != nil {
		return nil, err
	}

	return out, nil
}
