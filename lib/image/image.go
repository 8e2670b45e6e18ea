// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>

// Package image reads bootloader images and writes bootable flash images,
// either as raw binaries or in Intel HEX format.
package image

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcinbor85/gohex"
	"github.com/pkg/errors"
	"github.com/sigurn/crc16"
	"github.com/usedbytes/log"
)

type Format string

const (
	Auto   Format = "auto"
	Binary Format = "bin"
	Hex    Format = "hex"
)

// Erased fills gaps when flattening Intel HEX input.
const Erased byte = 0xff

func (f *Format) String() string {
	return string(*f)
}

func (f *Format) UnmarshalText(text []byte) error {
	str := Format(strings.ToLower(string(text)))
	switch str {
	case Auto, Binary, Hex:
		*f = str
	case "ihex":
		*f = Hex
	default:
		return fmt.Errorf("unrecognised format: %s", text)
	}

	return nil
}

func ParseFormat(str string) (Format, error) {
	var f Format
	err := f.UnmarshalText([]byte(str))
	return f, err
}

// Resolve turns Auto into a concrete format based on file's extension.
func (f Format) Resolve(file string) Format {
	if f != Auto {
		return f
	}

	switch strings.ToLower(filepath.Ext(file)) {
	case ".hex", ".ihex", ".ihx":
		return Hex
	}
	return Binary
}

// Image is a contiguous block of data destined for BaseAddress.
type Image struct {
	BaseAddress uint32
	Data        []byte
}

func (img *Image) String() string {
	return fmt.Sprintf("%d (0x%x) bytes at 0x%08x, CRC 0x%04x",
		len(img.Data), len(img.Data), img.BaseAddress, Checksum(img.Data))
}

var crcTable = crc16.MakeTable(crc16.CRC16_XMODEM)

// Checksum is the CRC-16/XMODEM of data, for identifying images in logs.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// DecodeHex flattens Intel HEX data into a single image spanning the lowest
// to the highest address. Gaps are filled with Erased.
func DecodeHex(data []byte) (*Image, error) {
	mem := gohex.NewMemory()
	err := mem.ParseIntelHex(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "Parsing Intel HEX")
	}

	segs := mem.GetDataSegments()
	if len(segs) == 0 {
		return nil, errors.New("no data in Intel HEX file")
	}

	start := segs[0].Address
	last := segs[len(segs)-1]
	end := uint64(last.Address) + uint64(len(last.Data))

	log.Verbosef("Intel HEX: %d segments, 0x%08x-0x%08x\n", len(segs), start, end)

	return &Image{
		BaseAddress: start,
		Data:        mem.ToBinary(start, uint32(end-uint64(start)), Erased),
	}, nil
}

// Load reads an input image. Auto picks the format from the file extension.
func Load(file string, format Format) (*Image, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "Reading input file")
	}

	switch format.Resolve(file) {
	case Hex:
		return DecodeHex(data)
	case Binary:
		return &Image{Data: data}, nil
	}

	return nil, errors.Errorf("unsupported input format: %s", format)
}
