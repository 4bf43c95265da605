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

// Package rdr contains the in-memory Ripple-Down-Rules decision
// structure used for lemmatization together with the matching
// engine operating over it.
//
// The tree is keyed by word characters read from the end of a word.
// A path root -> 's' -> 'u' therefore represents the suffix "us".
// Nodes are stored in a flat arena and addressed by their index
// (the root has index 0).
package rdr

import (
	"fmt"
	"sort"
)

// BoundaryKey is a reserved child key representing the beginning
// of a word. A child keyed by BoundaryKey is consulted only once
// all the characters of a word have been consumed, which makes it
// a holder of whole-word exceptions.
const BoundaryKey byte = 0

// Rule describes a suffix transformation: strip Strip trailing
// characters and append Append.
type Rule struct {
	Strip  int
	Append string
}

func (r Rule) IsIdentity() bool {
	return r.Strip == 0 && r.Append == ""
}

// StemLen returns the number of leading characters of a word of length
// wordLen which survive the rule. The strip count is clamped so a rule
// never removes more than the whole word.
func (r Rule) StemLen(wordLen int) int {
	strip := r.Strip
	if strip > wordLen {
		strip = wordLen

	} else if strip < 0 {
		strip = 0
	}
	return wordLen - strip
}

// ApplyTo transforms a word (in the model's byte encoding).
func (r Rule) ApplyTo(word []byte) []byte {
	stemLen := r.StemLen(len(word))
	ans := make([]byte, 0, stemLen+len(r.Append))
	ans = append(ans, word[:stemLen]...)
	return append(ans, r.Append...)
}

func (r Rule) String() string {
	return fmt.Sprintf("-%d+%q", r.Strip, r.Append)
}

// -------

type Node struct {

	// Char is the character the node extends its parent's suffix with
	// (meaningless for the root)
	Char byte

	HasRule bool
	Rule    Rule

	// Stop marks the node's rule as applicable even if the word
	// continues past the node's suffix. With Stop == false the rule
	// is used only when the word ends exactly at this node.
	Stop bool

	// Children contains arena indices sorted by their Char
	Children []int32
}

// -------

// Tree is a complete decision structure as loaded from a model.
// Once constructed, it is never mutated, so it can be shared
// by any number of goroutines.
type Tree struct {

	// Version is the format version of the source the tree was decoded from
	// (zero for trees built in memory)
	Version uint8

	// Charset is an IANA name of a single-byte charset the model's
	// characters are encoded in. An empty value means the model works
	// directly with the bytes of input words.
	Charset string

	Nodes []Node
}

// Clone returns a deep copy of the tree
func (t *Tree) Clone() *Tree {
	ans := &Tree{
		Version: t.Version,
		Charset: t.Charset,
		Nodes:   make([]Node, len(t.Nodes)),
	}
	copy(ans.Nodes, t.Nodes)
	for i := range ans.Nodes {
		if t.Nodes[i].Children != nil {
			ans.Nodes[i].Children = append([]int32(nil), t.Nodes[i].Children...)
		}
	}
	return ans
}

func (t *Tree) Root() *Node {
	if len(t.Nodes) == 0 {
		return nil
	}
	return &t.Nodes[0]
}

// child finds a child of the node n keyed by c
func (t *Tree) child(n *Node, c byte) (*Node, bool) {
	i := sort.Search(len(n.Children), func(i int) bool {
		return t.Nodes[n.Children[i]].Char >= c
	})
	if i < len(n.Children) && t.Nodes[n.Children[i]].Char == c {
		return &t.Nodes[n.Children[i]], true
	}
	return nil, false
}

// Validate tests the structural invariants of the tree: a root
// is present, every child index is within the arena, children are
// strictly ordered by their characters and each non-root node is
// reachable from the root via exactly one parent.
func (t *Tree) Validate() error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree (no root node)")
	}
	parents := make([]int32, len(t.Nodes))
	for i := range parents {
		parents[i] = -1
	}
	for i, node := range t.Nodes {
		for j, ch := range node.Children {
			if ch <= 0 || int(ch) >= len(t.Nodes) {
				return fmt.Errorf("node %d: child index %d out of range", i, ch)
			}
			if parents[ch] >= 0 {
				return fmt.Errorf("node %d: child %d already owned by node %d", i, ch, parents[ch])
			}
			parents[ch] = int32(i)
			if j > 0 && t.Nodes[node.Children[j-1]].Char >= t.Nodes[ch].Char {
				return fmt.Errorf("node %d: children not strictly ordered", i)
			}
		}
	}
	visited := 0
	stack := []int32{0}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited++
		stack = append(stack, t.Nodes[curr].Children...)
	}
	if visited != len(t.Nodes) {
		return fmt.Errorf("%d node(s) unreachable from root", len(t.Nodes)-visited)
	}
	return nil
}

// -------

type Stats struct {
	NumNodes int `json:"numNodes"`
	NumRules int `json:"numRules"`
	MaxDepth int `json:"maxDepth"`
}

// Stats expects a valid tree (see Validate)
func (t *Tree) Stats() Stats {
	var ans Stats
	if len(t.Nodes) == 0 {
		return ans
	}
	type item struct {
		idx   int32
		depth int
	}
	stack := []item{{0, 0}}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &t.Nodes[curr.idx]
		ans.NumNodes++
		if node.HasRule {
			ans.NumRules++
		}
		if curr.depth > ans.MaxDepth {
			ans.MaxDepth = curr.depth
		}
		for _, ch := range node.Children {
			stack = append(stack, item{ch, curr.depth + 1})
		}
	}
	return ans
}
