// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Load decodes one Calculation from YAML. Keys absent from the document keep
// their defaults; unknown keys are an error. An empty document yields Default.
//
//	tolerance: 1e-10
//	max_iterations: 50
//	method: iterative_linear
//	threads: 4
func Load(r io.Reader) (Calculation, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Calculation{}, fmt.Errorf("config: decode: %w", err)
	}

	return c, nil
}

// LoadProfiles decodes a mapping of named calculation profiles, each starting
// from Default.
//
//	realtime:
//	  method: iterative_linear
//	planning:
//	  tolerance: 1e-10
func LoadProfiles(r io.Reader) (map[string]Calculation, error) {
	var raw map[string]yaml.Node
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode profiles: %w", err)
	}
	out := make(map[string]Calculation, len(raw))
	for name, node := range raw {
		c := Default()
		if err := node.Decode(&c); err != nil {
			return nil, fmt.Errorf("config: profile %q: %w", name, err)
		}
		out[name] = c
	}

	return out, nil
}
