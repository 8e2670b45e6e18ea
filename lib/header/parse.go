// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package header

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// Parse decodes the boot header at the start of data.
func Parse(data []byte) (*Header, error) {
	if len(data) < PreConfigLen {
		return nil, &TruncatedError{Need: PreConfigLen, Have: len(data)}
	}

	var raw rawHeader
	rd := bytes.NewReader(data)
	err := binary.Read(rd, binary.BigEndian, &raw)
	if err != nil {
		return nil, errors.Wrap(err, "Reading header")
	}

	if raw.Magic != Magic {
		return nil, ErrBadMagic
	}

	headerLen := Len(int(raw.NumConfigs))
	if int(raw.HeaderLen) != headerLen {
		return nil, errors.Errorf("header length %d (0x%x) doesn't match %d config pairs",
			raw.HeaderLen, raw.HeaderLen, raw.NumConfigs)
	}

	if len(data) < headerLen {
		return nil, &TruncatedError{Need: headerLen, Have: len(data)}
	}

	hdr := &Header{
		CopyLength:   raw.CopyLength,
		HeaderLength: raw.HeaderLen,
		CopyAddress:  raw.CopyAddr,
		JumpAddress:  raw.JumpAddr,
		Configs:      make([]ConfigPair, raw.NumConfigs),
	}

	err = binary.Read(rd, binary.BigEndian, hdr.Configs)
	if err != nil {
		return nil, errors.Wrap(err, "Reading config pairs")
	}

	return hdr, nil
}

// Payload returns the part of data following the header, limited to
// CopyLength bytes.
func (h *Header) Payload(data []byte) []byte {
	start := int(h.HeaderLength)
	if start > len(data) {
		return []byte{}
	}

	end := start + int(h.CopyLength)
	if end > len(data) || end < start {
		end = len(data)
	}

	return data[start:end]
}
