// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package profile

import (
	"sort"

	"github.com/usedbytes/spiboot-tools/lib/header"
)

const (
	// L2 cache controller registers
	regL2SRBAR0  Word = 0xff720100
	regL2ERRDIS  Word = 0xff720e44
	regL2CTL     Word = 0xff720000
	sentinelWord Word = Word(header.SentinelAddr)
)

// Default is for the P2020: 512 KiB of L2 as SRAM at 0xf8f80000.
func Default() *Profile {
	return &Profile{
		Name:        "default",
		Description: "P2020, 512 KiB L2 as SRAM at 0xf8f80000",
		Pairs: []*Pair{
			// This is also the P2020's reset value
			{Address: regL2SRBAR0, Value: 0xf8f80000, Comment: "L2SRBAR0: SRAM base address"},
			// Needed for cache-as-RAM
			{Address: regL2ERRDIS, Value: 0x0000000c, Comment: "L2ERRDIS: disable single- and multi-bit errors"},
			{Address: regL2CTL, Value: 0xa0010000, Comment: "L2CTL: enable, all 512 KiB as SRAM"},
			{Address: sentinelWord, Value: sentinelWord, Comment: "end of config pairs"},
		},
	}
}

// P1010 maps 256 KiB of L2 at 0x00000000. The startup code's trampoline
// relocates it to 0xf8fc0000.
func P1010() *Profile {
	return &Profile{
		Name:        "p1010",
		Description: "P1010, 256 KiB L2 as SRAM at 0x00000000",
		Pairs: []*Pair{
			{Address: regL2SRBAR0, Value: 0x00000000, Comment: "L2SRBAR0: SRAM base address"},
			{Address: regL2ERRDIS, Value: 0x0000000c, Comment: "L2ERRDIS: disable single- and multi-bit errors"},
			{Address: regL2CTL, Value: 0x90010000, Comment: "L2CTL: enable, all 256 KiB as SRAM"},
			{Address: sentinelWord, Value: sentinelWord, Comment: "end of config pairs"},
		},
	}
}

var builtins = map[string]func() *Profile{
	"default": Default,
	"p2020":   Default,
	"p1010":   P1010,
}

// Builtin returns a fresh copy of the named built-in profile, or nil.
func Builtin(name string) *Profile {
	fn := builtins[name]
	if fn == nil {
		return nil
	}
	return fn()
}

func Names() []string {
	var names []string
	for k := range builtins {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
