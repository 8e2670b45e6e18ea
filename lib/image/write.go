// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package image

import (
	"bytes"
	"io"
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/marcinbor85/gohex"
	"github.com/pkg/errors"
)

const hexLineLen = 16

type WriteOptions struct {
	Format Format
	// Progress shows a progress bar on stderr
	Progress bool
}

// Encode returns img in the given format. Auto means Binary.
func Encode(img *Image, format Format) ([]byte, error) {
	switch format {
	case Binary, Auto:
		return img.Data, nil
	case Hex:
		mem := gohex.NewMemory()
		err := mem.AddBinary(img.BaseAddress, img.Data)
		if err != nil {
			return nil, errors.Wrap(err, "Adding data to Intel HEX")
		}

		buf := &bytes.Buffer{}
		err = mem.DumpIntelHex(buf, hexLineLen)
		if err != nil {
			return nil, errors.Wrap(err, "Writing Intel HEX")
		}

		return buf.Bytes(), nil
	}

	return nil, errors.Errorf("unsupported output format: %s", format)
}

// Write encodes img and writes it to w. Nothing is written if encoding
// fails.
func Write(w io.Writer, img *Image, opts WriteOptions) error {
	data, err := Encode(img, opts.Format)
	if err != nil {
		return err
	}

	if opts.Progress {
		bar := pb.New64(int64(len(data)))
		bar.Set(pb.Bytes, true)
		bar.SetWriter(os.Stderr)
		bar.Start()
		defer bar.Finish()

		w = bar.NewProxyWriter(w)
	}

	n, err := w.Write(data)
	if err != nil {
		return errors.Wrap(err, "Writing output")
	} else if n != len(data) {
		return io.ErrShortWrite
	}

	return nil
}

func removeIfTrue(file string, cond *bool) {
	if *cond {
		os.Remove(file)
	}
}

// WriteFile writes img to file. A partially written file is removed.
func WriteFile(file string, img *Image, opts WriteOptions) error {
	if opts.Format == Auto {
		opts.Format = opts.Format.Resolve(file)
	}

	data, err := Encode(img, opts.Format)
	if err != nil {
		return err
	}

	f, err := os.Create(file)
	if err != nil {
		return errors.Wrap(err, "Creating output file")
	}

	fail := true
	defer removeIfTrue(file, &fail)
	defer f.Close()

	err = Write(f, &Image{Data: data}, WriteOptions{Format: Binary, Progress: opts.Progress})
	if err != nil {
		return err
	}

	err = f.Close()
	if err != nil {
		return errors.Wrap(err, "Closing output file")
	}

	// Prevent cleanup
	fail = false

	return nil
}
