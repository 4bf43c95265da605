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

package rdr

import (
	"bytes"
	"fmt"
	"sort"
)

type bnode struct {
	char     byte
	hasRule  bool
	rule     Rule
	stop     bool
	children map[byte]int
}

// Builder constructs a Tree from suffix rules. Later rules
// defined for the same suffix replace the earlier ones.
type Builder struct {
	charset string
	nodes   []bnode
}

func NewBuilder(charset string) *Builder {
	return &Builder{
		charset: charset,
		nodes:   []bnode{{stop: true, children: make(map[byte]int)}},
	}
}

// Len returns the current number of nodes (including the root)
func (b *Builder) Len() int {
	return len(b.nodes)
}

// SetRoot sets the fallback rule applied when no suffix matches.
func (b *Builder) SetRoot(rule Rule) error {
	if rule.Strip < 0 {
		return fmt.Errorf("invalid root rule %s: negative strip count", rule)
	}
	b.nodes[0].hasRule = true
	b.nodes[0].rule = rule
	return nil
}

// path returns the index of the node representing the suffix
// (characters in the natural word order), creating missing nodes.
func (b *Builder) path(suffix []byte) int {
	curr := 0
	for i := len(suffix) - 1; i >= 0; i-- {
		c := suffix[i]
		next, ok := b.nodes[curr].children[c]
		if !ok {
			next = len(b.nodes)
			b.nodes = append(b.nodes, bnode{
				char:     c,
				stop:     true,
				children: make(map[byte]int),
			})
			b.nodes[curr].children[c] = next
		}
		curr = next
	}
	return curr
}

// Add makes sure a node for the suffix exists. If the rule is not nil,
// it is attached to the node. See Node.Stop for the stop flag.
func (b *Builder) Add(suffix []byte, rule *Rule, stop bool) error {
	if bytes.IndexByte(suffix, BoundaryKey) >= 0 {
		return fmt.Errorf("suffix %q contains a reserved boundary character", suffix)
	}
	if rule != nil && rule.Strip < 0 {
		return fmt.Errorf("invalid rule %s for suffix %q: negative strip count", rule, suffix)
	}
	idx := b.path(suffix)
	if rule != nil {
		b.nodes[idx].hasRule = true
		b.nodes[idx].rule = *rule
		b.nodes[idx].stop = stop
	}
	return nil
}

// AddRule attaches a rule to a suffix.
func (b *Builder) AddRule(suffix string, rule Rule) error {
	return b.Add([]byte(suffix), &rule, true)
}

// AddWholeWordRule defines an exception applied only if the
// whole input word equals the provided one.
func (b *Builder) AddWholeWordRule(word string, rule Rule) error {
	return b.AddWholeWord([]byte(word), rule)
}

func (b *Builder) AddWholeWord(word []byte, rule Rule) error {
	if err := b.Add(word, nil, true); err != nil {
		return err
	}
	if rule.Strip < 0 {
		return fmt.Errorf("invalid rule %s for word %q: negative strip count", rule, word)
	}
	idx := b.path(word)
	bnd, ok := b.nodes[idx].children[BoundaryKey]
	if !ok {
		bnd = len(b.nodes)
		b.nodes = append(b.nodes, bnode{
			char:     BoundaryKey,
			stop:     true,
			children: make(map[byte]int),
		})
		b.nodes[idx].children[BoundaryKey] = bnd
	}
	b.nodes[bnd].hasRule = true
	b.nodes[bnd].rule = rule
	return nil
}

// Build flattens the defined rules into an arena tree.
// Nodes are stored in depth-first pre-order.
func (b *Builder) Build() (*Tree, error) {
	if !b.nodes[0].hasRule {
		return nil, fmt.Errorf("failed to build tree: root rule not defined")
	}
	ans := &Tree{
		Charset: b.charset,
		Nodes:   make([]Node, 0, len(b.nodes)),
	}
	var flatten func(src int) int32
	flatten = func(src int) int32 {
		bn := &b.nodes[src]
		idx := int32(len(ans.Nodes))
		ans.Nodes = append(ans.Nodes, Node{
			Char:    bn.char,
			HasRule: bn.hasRule,
			Rule:    bn.rule,
			Stop:    bn.stop,
		})
		keys := make([]int, 0, len(bn.children))
		for k := range bn.children {
			keys = append(keys, int(k))
		}
		sort.Ints(keys)
		children := make([]int32, len(keys))
		for i, k := range keys {
			children[i] = flatten(bn.children[byte(k)])
		}
		ans.Nodes[idx].Children = children
		return idx
	}
	flatten(0)
	return ans, nil
}
