// SPDX-License-Identifier: MIT
// Copyright (c) 2020 Brian Starkey <stark3y@gmail.com>
package profile

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

func validate(p *Profile, md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) != 0 {
		var keys []string
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return errors.Errorf("unrecognised keys: %s", strings.Join(keys, ", "))
	}

	if len(p.Pairs) == 0 {
		return errors.New("at least one pair is required")
	}

	return nil
}

// Decode parses a profile from TOML text.
func Decode(data string) (*Profile, error) {
	var p Profile
	md, err := toml.Decode(data, &p)
	if err != nil {
		return nil, err
	}

	err = validate(&p, md)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// Load reads a profile file. If the file doesn't name the profile, it's
// named after the file.
func Load(file string) (*Profile, error) {
	var p Profile
	md, err := toml.DecodeFile(file, &p)
	if err != nil {
		return nil, errors.Wrap(err, "Loading profile")
	}

	err = validate(&p, md)
	if err != nil {
		return nil, errors.Wrapf(err, "Loading profile '%s'", file)
	}

	if len(p.Name) == 0 {
		base := filepath.Base(file)
		p.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return &p, nil
}

// Find returns the built-in profile called name, or loads name as a file.
func Find(name string) (*Profile, error) {
	if p := Builtin(name); p != nil {
		return p, nil
	}

	if filepath.Ext(name) != ".toml" {
		return nil, errors.Errorf("unrecognised profile '%s' (built-in profiles: %s)",
			name, strings.Join(Names(), ", "))
	}

	return Load(name)
}

func (p *Profile) WriteTOML(w io.Writer) error {
	enc := toml.NewEncoder(w)
	return enc.Encode(p)
}
