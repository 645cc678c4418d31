// Copyright (c) 2026 The Platform developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis describes the chain's initial state: the chain tag,
// launch time and one raw JSON section per module. The controller feeds
// each section to its module's Genesis hook when the chain is initialized.
package genesis

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Genesis is the initial chain definition.
type Genesis struct {
	chainTag   byte
	launchTime uint64
	sections   map[string]json.RawMessage
}

type genesisJSON struct {
	ChainTag   byte                       `json:"chainTag"`
	LaunchTime uint64                     `json:"launchTime"`
	Modules    map[string]json.RawMessage `json:"modules"`
}

// New assembles a genesis from its parts. Section keys are module names.
func New(chainTag byte, launchTime uint64, sections map[string]json.RawMessage) *Genesis {
	return &Genesis{chainTag: chainTag, launchTime: launchTime, sections: sections}
}

// Parse decodes a genesis definition. Unknown fields are rejected so a
// typo in a custom genesis file fails loudly instead of silently seeding
// a different chain.
func Parse(data []byte) (*Genesis, error) {
	var raw genesisJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.WithMessage(err, "parse genesis")
	}
	if raw.ChainTag == 0 {
		return nil, errors.New("parse genesis: chain tag must not be zero")
	}
	return New(raw.ChainTag, raw.LaunchTime, raw.Modules), nil
}

// Load reads a genesis definition from a file.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithMessage(err, "load genesis")
	}
	return Parse(data)
}

// ChainTag returns the tag every envelope of this chain must carry.
func (g *Genesis) ChainTag() byte {
	return g.chainTag
}

// LaunchTime returns the timestamp of the genesis block.
func (g *Genesis) LaunchTime() uint64 {
	return g.launchTime
}

// Section returns the raw JSON section of the named module, or nil when
// the genesis does not configure it.
func (g *Genesis) Section(name string) json.RawMessage {
	return g.sections[name]
}

// Encode renders the genesis back to its JSON form.
func (g *Genesis) Encode() ([]byte, error) {
	return json.MarshalIndent(&genesisJSON{
		ChainTag:   g.chainTag,
		LaunchTime: g.launchTime,
		Modules:    g.sections,
	}, "", "  ")
}
