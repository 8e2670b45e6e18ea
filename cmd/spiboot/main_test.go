// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"github.com/usedbytes/spiboot-tools/lib/header"
	"github.com/usedbytes/spiboot-tools/lib/image"
	"github.com/usedbytes/spiboot-tools/lib/profile"
)

func writeImage(t *testing.T, size, slack int) (string, []byte) {
	t.Helper()

	img := make([]byte, size)
	for i := range img {
		img[i] = byte(i)
	}
	for i := size - header.ResetVectorLen - slack; i < size-header.ResetVectorLen; i++ {
		img[i] = 0xff
	}

	file := filepath.Join(t.TempDir(), "u-boot.bin")
	require.NoError(t, os.WriteFile(file, img, 0644))

	return file, img
}

func run(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	old := stdout
	stdout = buf
	defer func() { stdout = old }()

	err := newApp().Run(append([]string{"spiboot"}, args...))
	return buf.Bytes(), err
}

func TestUsage(t *testing.T) {
	out, err := run(t)
	require.Error(t, err)
	assert.Empty(t, out)

	exitErr, ok := err.(cli.ExitCoder)
	require.True(t, ok)
	assert.Equal(t, int(syscall.EINVAL), exitErr.ExitCode())
}

func TestBuildDefault(t *testing.T) {
	file, img := writeImage(t, 0x2000, 0x100)

	out, err := run(t, file)
	require.NoError(t, err)
	assert.Len(t, out, len(img))

	hdr, err := header.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, profile.Default().ConfigPairs(), hdr.Configs)
	assert.Equal(t, uint32(0xf8f80000), hdr.CopyAddress)
	assert.Equal(t, uint32(0xf8f80000+0x2000-0x1000), hdr.JumpAddress)
}

func TestBuildP1010(t *testing.T) {
	file, _ := writeImage(t, 0x2000, 0x100)

	out, err := run(t, "--p1010", file)
	require.NoError(t, err)

	assert.Equal(t, uint32(0x00000000), binary.BigEndian.Uint32(out[0x58:]))
	assert.Equal(t, uint32(0x1000), binary.BigEndian.Uint32(out[0x60:]))
	assert.Equal(t, uint32(0x90010000), binary.BigEndian.Uint32(out[0x80+2*8+4:]))

	_, err = run(t, "--p1010", "--profile", "default", file)
	assert.Error(t, err)
}

func TestBuildNoSlack(t *testing.T) {
	file, _ := writeImage(t, 0x2000, 0x10)

	out, err := run(t, file)
	assert.Empty(t, out)

	var slackErr *header.InsufficientSlackError
	require.ErrorAs(t, err, &slackErr)
	assert.Equal(t, 0xa0, slackErr.Required)
}

func TestBuildToFile(t *testing.T) {
	file, img := writeImage(t, 0x2000, 0x100)
	outFile := filepath.Join(t.TempDir(), "spi.hex")

	out, err := run(t, "-o", outFile, "--base", "0x1000", file)
	require.NoError(t, err)
	assert.Empty(t, out)

	loaded, err := image.Load(outFile, image.Auto)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1000), loaded.BaseAddress)
	assert.Len(t, loaded.Data, len(img))

	noSlack, _ := writeImage(t, 0x2000, 0)
	failFile := filepath.Join(t.TempDir(), "fail.bin")
	_, err = run(t, "-o", failFile, noSlack)
	assert.Error(t, err)

	_, err = os.Stat(failFile)
	assert.True(t, os.IsNotExist(err))
}

func TestInfo(t *testing.T) {
	file, _ := writeImage(t, 0x2000, 0x100)
	outFile := filepath.Join(t.TempDir(), "spi.bin")

	_, err := run(t, "--p1010", "-o", outFile, file)
	require.NoError(t, err)

	out, err := run(t, "info", outFile)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Copy address:  0x00000000")
	assert.Contains(t, string(out), "Profile:       p1010")

	_, err = run(t, "info", file)
	assert.Error(t, err)
}

func TestProfileCommands(t *testing.T) {
	out, err := run(t, "profile", "list")
	require.NoError(t, err)
	assert.Contains(t, string(out), "p1010")

	out, err = run(t, "profile", "show", "p1010")
	require.NoError(t, err)

	p, err := profile.Decode(string(out))
	require.NoError(t, err)
	assert.Equal(t, profile.P1010(), p)

	profFile := filepath.Join(t.TempDir(), "board.toml")
	require.NoError(t, os.WriteFile(profFile, out, 0644))

	file, _ := writeImage(t, 0x2000, 0x100)
	built, err := run(t, "--profile", profFile, file)
	require.NoError(t, err)

	hdr, err := header.Parse(built)
	require.NoError(t, err)
	assert.Equal(t, profile.P1010().ConfigPairs(), hdr.Configs)
}
