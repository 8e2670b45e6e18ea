// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package profile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/usedbytes/spiboot-tools/lib/header"
)

func stringIfNotEmpty(prefix, val string) string {
	if len(val) > 0 {
		return fmt.Sprintf("%s %s\n", prefix, val)
	}
	return ""
}

// Word is a 32-bit register address or value. It's written as a hex string
// in profile files.
type Word uint32

func ParseWord(str string) (Word, error) {
	val, err := strconv.ParseUint(strings.TrimSpace(str), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("can't parse word: '%s'", str)
	}
	return Word(val), nil
}

func (w *Word) UnmarshalText(text []byte) error {
	parsed, err := ParseWord(string(text))
	(*w) = parsed
	return err
}

func (w Word) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w Word) String() string {
	return fmt.Sprintf("0x%08x", uint32(w))
}

type Pair struct {
	Address Word   `toml:"address"`
	Value   Word   `toml:"value"`
	Comment string `toml:"comment,omitempty"`
}

func (p *Pair) ConfigPair() header.ConfigPair {
	return header.ConfigPair{
		Address: uint32(p.Address),
		Value:   uint32(p.Value),
	}
}

// Profile is a named list of register writes for the boot ROM.
type Profile struct {
	Name        string  `toml:"name"`
	Description string  `toml:"description,omitempty"`
	Pairs       []*Pair `toml:"pair"`
}

// ConfigPairs returns the pairs in the form header.Build takes.
func (p *Profile) ConfigPairs() []header.ConfigPair {
	res := make([]header.ConfigPair, 0, len(p.Pairs))
	for _, v := range p.Pairs {
		res = append(res, v.ConfigPair())
	}
	return res
}

// CopyAddress is the copy destination implied by the first pair.
func (p *Profile) CopyAddress() (uint32, bool) {
	if len(p.Pairs) == 0 {
		return 0, false
	}
	return uint32(p.Pairs[0].Value), true
}

// Terminated reports whether the last pair is the sentinel.
func (p *Profile) Terminated() bool {
	if len(p.Pairs) == 0 {
		return false
	}
	return p.Pairs[len(p.Pairs)-1].ConfigPair().IsSentinel()
}

func (p *Profile) String() string {
	var s string
	s += "Profile:\n"
	s += stringIfNotEmpty("   Name:", p.Name)
	s += stringIfNotEmpty("   Description:", p.Description)
	s += fmt.Sprintf("   Header length: %d (0x%x) bytes\n", header.Len(len(p.Pairs)), header.Len(len(p.Pairs)))
	for i, v := range p.Pairs {
		s += fmt.Sprintf("   [%d] %s = %s", i, v.Address, v.Value)
		if len(v.Comment) > 0 {
			s += fmt.Sprintf("  # %s", v.Comment)
		}
		s += "\n"
	}
	return s
}
