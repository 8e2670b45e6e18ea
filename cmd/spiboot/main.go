// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package main

import (
	stdlog "log"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/usedbytes/log"
)

func newApp() *cli.App {
	app := &cli.App{
		Name:      "spiboot",
		Usage:     "Apply a Freescale SPI flash boot header to a bootloader image",
		ArgsUsage: "IMAGE_FILE",
		// stdout is reserved for image data
		Writer:    os.Stderr,
		ErrWriter: os.Stderr,
		// Just ignore errors - we'll handle them ourselves in main()
		ExitErrHandler: func(c *cli.Context, e error) {},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:     "verbose",
				Aliases:  []string{"v"},
				Usage:    "Enable more output",
				Required: false,
				Value:    false,
			},
		},
		Action: buildAction,
	}
	app.Flags = append(app.Flags, buildFlags()...)

	app.Commands = []*cli.Command{
		{
			Name:      "info",
			Usage:     "Decode and print the boot header of a bootable image",
			ArgsUsage: "BOOTABLE_IMAGE",
			Action:    infoAction,
			Flags: []cli.Flag{
				inputFormatFlag(),
			},
		},
		{
			Name:  "profile",
			Usage: "Inspect configuration profiles",
			Subcommands: []*cli.Command{
				{
					Name:   "list",
					Usage:  "List the built-in profiles",
					Action: profileListAction,
				},
				{
					Name:      "show",
					Usage:     "Print a profile as TOML, suitable for editing and passing to --profile",
					ArgsUsage: "NAME|FILE",
					Action:    profileShowAction,
					Flags: []cli.Flag{
						&cli.BoolFlag{
							Name:  "summary",
							Usage: "Print a human-readable summary instead of TOML",
						},
					},
				},
			},
		},
	}

	app.Before = func(ctx *cli.Context) error {
		// The standard logger writes to stderr
		stdlog.SetFlags(0)
		log.SetUseLog(true)

		log.SetVerbose(ctx.Bool("verbose"))
		log.Verboseln("Extra output enabled.")
		return nil
	}

	return app
}

func main() {
	app := newApp()

	err := app.Run(os.Args)
	if err != nil {
		log.Println("ERROR:", err)
		if v, ok := err.(cli.ExitCoder); ok {
			os.Exit(v.ExitCode())
		} else {
			os.Exit(1)
		}
	}
}
