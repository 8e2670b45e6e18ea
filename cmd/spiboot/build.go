// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package main

import (
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/usedbytes/log"
	"github.com/usedbytes/spiboot-tools/lib/header"
	"github.com/usedbytes/spiboot-tools/lib/image"
	"github.com/usedbytes/spiboot-tools/lib/profile"
)

// Image data goes here, unless --output is given.
var stdout io.Writer = os.Stdout

func inputFormatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "input-format",
		Usage: "Input file format: auto, bin or hex",
		Value: string(image.Auto),
	}
}

func buildFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "p1010",
			Usage: "Use the P1010 profile (shorthand for --profile p1010)",
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "Built-in profile name, or a .toml profile file",
			Value:   "default",
		},
		inputFormatFlag(),
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: auto, bin or hex. auto picks from the output file name, or bin",
			Value:   string(image.Auto),
		},
		&cli.StringFlag{
			Name:  "base",
			Usage: "Flash address of the output, for hex output (default: input hex base, or 0)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the bootable image to `FILE` instead of stdout",
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "Show progress while writing",
		},
	}
}

func usageError(ctx *cli.Context, msg string) error {
	cli.ShowAppHelp(ctx)
	return cli.Exit(msg, int(syscall.EINVAL))
}

func selectProfile(ctx *cli.Context) (*profile.Profile, error) {
	if ctx.Bool("p1010") {
		if ctx.IsSet("profile") {
			return nil, errors.New("--p1010 and --profile can't be used together")
		}
		return profile.P1010(), nil
	}

	return profile.Find(ctx.String("profile"))
}

func loadInput(ctx *cli.Context, file string) (*image.Image, error) {
	format, err := image.ParseFormat(ctx.String("input-format"))
	if err != nil {
		return nil, err
	}

	img, err := image.Load(file, format)
	if err != nil {
		return nil, err
	}

	log.Verbosef("Input %s: %s\n", file, img)

	return img, nil
}

func buildAction(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return usageError(ctx, "IMAGE_FILE is required")
	}
	fname := ctx.Args().First()

	prof, err := selectProfile(ctx)
	if err != nil {
		return err
	}

	outFormat, err := image.ParseFormat(ctx.String("format"))
	if err != nil {
		return err
	}

	img, err := loadInput(ctx, fname)
	if err != nil {
		return err
	}

	log.Verbosef("%s", prof)
	if !prof.Terminated() {
		log.Printf("WARNING: profile '%s' doesn't end with the %s end marker\n", prof.Name, header.Sentinel)
	}

	out, err := header.Build(img.Data, prof.ConfigPairs())
	if err != nil {
		return errors.Wrapf(err, "Applying header to '%s'", fname)
	}

	if hdr, err := header.Parse(out); err == nil {
		log.Verbosef("Boot header:\n%s\n", hdr)
	}

	outImg := &image.Image{
		BaseAddress: img.BaseAddress,
		Data:        out,
	}

	if ctx.IsSet("base") {
		base, err := profile.ParseWord(ctx.String("base"))
		if err != nil {
			return errors.Wrap(err, "Parsing --base")
		}
		outImg.BaseAddress = uint32(base)
	}

	log.Verbosef("Output: %s\n", outImg)

	opts := image.WriteOptions{
		Format:   outFormat,
		Progress: ctx.Bool("progress"),
	}

	if ctx.IsSet("output") {
		return image.WriteFile(ctx.String("output"), outImg, opts)
	}

	return image.Write(stdout, outImg, opts)
}

func infoAction(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		cli.ShowCommandHelp(ctx, "info")
		return cli.Exit("BOOTABLE_IMAGE is required", int(syscall.EINVAL))
	}
	fname := ctx.Args().First()

	img, err := loadInput(ctx, fname)
	if err != nil {
		return err
	}

	hdr, err := header.Parse(img.Data)
	if err != nil {
		return errors.Wrapf(err, "Parsing '%s'", fname)
	}

	payload := hdr.Payload(img.Data)

	fmt.Fprintln(stdout, hdr)
	fmt.Fprintf(stdout, "Payload:       %d (0x%x) bytes, CRC 0x%04x\n", len(payload), len(payload), image.Checksum(payload))

	for _, name := range profile.Names() {
		if configsEqual(profile.Builtin(name).ConfigPairs(), hdr.Configs) {
			fmt.Fprintf(stdout, "Profile:       %s\n", name)
			break
		}
	}

	if int(hdr.HeaderLength)+int(hdr.CopyLength) != len(img.Data) {
		log.Printf("WARNING: header (0x%x) + copy length (0x%x) != file length (0x%x)\n",
			hdr.HeaderLength, hdr.CopyLength, len(img.Data))
	}

	return nil
}

func configsEqual(a, b []header.ConfigPair) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func profileListAction(ctx *cli.Context) error {
	for _, name := range profile.Names() {
		p := profile.Builtin(name)
		fmt.Fprintf(stdout, "%-10s %s\n", name, p.Description)
	}
	return nil
}

func profileShowAction(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		cli.ShowCommandHelp(ctx, "show")
		return cli.Exit("NAME|FILE is required", int(syscall.EINVAL))
	}

	p, err := profile.Find(ctx.Args().First())
	if err != nil {
		return err
	}

	if ctx.Bool("summary") {
		_, err = fmt.Fprint(stdout, p)
		return err
	}

	return p.WriteTOML(stdout)
}
