// Copyright 2019 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2019 Charles University, Faculty of Arts,
//                Institute of the Czech National Corpus
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package modders

import (
	"fmt"
)

// Modder represents a type which is able
// to modify a string (e.g. to normalize a word form)
type Modder interface {
	Mod(s string) string
}

type ModderChain struct {
	fn []Modder
}

func NewModderChain(fn []Modder) *ModderChain {
	return &ModderChain{fn: fn}
}

func (m *ModderChain) Mod(s string) string {
	ans := s
	for _, mod := range m.fn {
		ans = mod.Mod(ans)
	}
	return ans
}

func (m *ModderChain) Len() int {
	return len(m.fn)
}

func ModderFactory(name string) (Modder, error) {
	switch name {
	case "toLower":
		return NewToLower(), nil
	case "trimPunct":
		return TrimPunct{}, nil
	case "nfc":
		return NFC{}, nil
	case "stripAccents":
		return NewStripAccents(), nil
	case "firstChar":
		return FirstChar{}, nil
	case "":
		return Identity{}, nil
	}
	return nil, fmt.Errorf("unknown modder function %s", name)
}

// NewModderChainFromNames creates a chain of modders applied
// in the order of the provided names.
func NewModderChainFromNames(names []string) (*ModderChain, error) {
	fn := make([]Modder, 0, len(names))
	for _, name := range names {
		m, err := ModderFactory(name)
		if err != nil {
			return nil, err
		}
		fn = append(fn, m)
	}
	return NewModderChain(fn), nil
}
