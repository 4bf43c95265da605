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

// Package lemmagen imports models in the binary format of the LemmaGen
// lemmatizer (as distributed e.g. with lemmagen3) and converts them
// into an equivalent rdr.Tree.
//
// The file starts with a 32-bit (little endian) length of a node blob.
// Nodes are addressed by their byte offset within the blob (the root
// lives at offset 0). Each node starts with a type byte composed of:
//
//	0x01 - the node extends its suffix by additional characters
//	0x02 - internal node with a hash table of children
//	0x04 - the node matches only whole words
//
// A node without the 0x01 and 0x02 bits is a rule: strip count,
// replacement length and replacement bytes. Other nodes carry a 32-bit
// address of their rule, optionally the additional characters
// (length + bytes, in the natural word order) and optionally a hash
// table (modulus + modulus * (char, 32-bit address)). Slot 0 holding
// character 0 points to a whole-word exception of the node.
package lemmagen

import (
	"encoding/binary"
	"fmt"

	"github.com/czcorpus/rdrlemm/codec"
	"github.com/czcorpus/rdrlemm/rdr"
)

const (
	bitAddChar  = 0x01
	bitInternal = 0x02
	bitEntireWr = 0x04

	// maxDepth is given by the original engine which keeps word
	// positions in a single byte
	maxDepth = 255
)

type importer struct {
	data     []byte
	rules    map[uint32]rdr.Rule
	visiting map[uint32]bool
	builder  *rdr.Builder
	maxNodes int
}

func (imp *importer) malformed(addr uint32, reason string, args ...any) error {
	// +4 => offsets are reported relative to the file start
	return &codec.MalformedModelError{
		Offset: int(addr) + 4,
		Reason: fmt.Sprintf(reason, args...),
	}
}

func (imp *importer) need(addr uint32, n int, what string) error {
	if uint64(addr)+uint64(n) > uint64(len(imp.data)) {
		return imp.malformed(addr, "truncated %s", what)
	}
	return nil
}

func (imp *importer) byteAt(addr uint32, what string) (byte, error) {
	if err := imp.need(addr, 1, what); err != nil {
		return 0, err
	}
	return imp.data[addr], nil
}

func (imp *importer) addrAt(addr uint32, what string) (uint32, error) {
	if err := imp.need(addr, 4, what); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(imp.data[addr:]), nil
}

func isRuleType(tp byte) bool {
	return tp&^bitEntireWr == 0
}

func validType(tp byte) bool {
	switch tp {
	case 0, bitEntireWr, bitAddChar, bitAddChar | bitEntireWr, bitInternal, bitInternal | bitAddChar:
		return true
	}
	return false
}

func (imp *importer) nodeType(addr uint32) (byte, error) {
	tp, err := imp.byteAt(addr, "node type")
	if err != nil {
		return 0, err
	}
	if !validType(tp) {
		return 0, imp.malformed(addr, "invalid node type 0x%02x", tp)
	}
	return tp, nil
}

func (imp *importer) readRule(addr uint32) (rdr.Rule, error) {
	if rule, ok := imp.rules[addr]; ok {
		return rule, nil
	}
	tp, err := imp.nodeType(addr)
	if err != nil {
		return rdr.Rule{}, err
	}
	if !isRuleType(tp) {
		return rdr.Rule{}, imp.malformed(addr, "expected a rule node, found type 0x%02x", tp)
	}
	if err := imp.need(addr, 3, "rule"); err != nil {
		return rdr.Rule{}, err
	}
	toLen := int(imp.data[addr+2])
	if err := imp.need(addr+3, toLen, "rule suffix"); err != nil {
		return rdr.Rule{}, err
	}
	rule := rdr.Rule{
		Strip:  int(imp.data[addr+1]),
		Append: string(imp.data[addr+3 : addr+3+uint32(toLen)]),
	}
	imp.rules[addr] = rule
	return rule, nil
}

// nodeRule returns the rule of any node - a rule node is its own rule
func (imp *importer) nodeRule(addr uint32) (rdr.Rule, error) {
	tp, err := imp.nodeType(addr)
	if err != nil {
		return rdr.Rule{}, err
	}
	if isRuleType(tp) {
		return imp.readRule(addr)
	}
	ruleAddr, err := imp.addrAt(addr+1, "rule address")
	if err != nil {
		return rdr.Rule{}, err
	}
	return imp.readRule(ruleAddr)
}

func (imp *importer) checkSize(addr uint32) error {
	if imp.builder.Len() > imp.maxNodes {
		return imp.malformed(addr, "tree expands beyond %d nodes", imp.maxNodes)
	}
	return nil
}

// convert adds the node at addr reached via the suffix (natural
// word order) and all its descendants
func (imp *importer) convert(addr uint32, suffix []byte, depth int) error {
	if depth > maxDepth {
		return imp.malformed(addr, "tree deeper than %d levels", maxDepth)
	}
	if imp.visiting[addr] {
		return imp.malformed(addr, "cyclic node reference")
	}
	imp.visiting[addr] = true
	defer delete(imp.visiting, addr)

	tp, err := imp.nodeType(addr)
	if err != nil {
		return err
	}
	rule, err := imp.nodeRule(addr)
	if err != nil {
		return err
	}
	if addr == 0 {
		// a mismatch of the root's additional characters
		// falls back to the root itself
		imp.builder.SetRoot(rule)
	}
	if isRuleType(tp) {
		if tp&bitEntireWr != 0 {
			err = imp.builder.AddWholeWord(suffix, rule)

		} else {
			err = imp.builder.Add(suffix, &rule, true)
		}
		if err != nil {
			return imp.malformed(addr, "%s", err)
		}
		return imp.checkSize(addr)
	}

	pos := addr + 5
	if tp&bitAddChar != 0 {
		addLen, err := imp.byteAt(pos, "additional characters length")
		if err != nil {
			return err
		}
		if err := imp.need(pos+1, int(addLen), "additional characters"); err != nil {
			return err
		}
		ext := make([]byte, 0, int(addLen)+len(suffix))
		ext = append(ext, imp.data[pos+1:pos+1+uint32(addLen)]...)
		suffix = append(ext, suffix...)
		pos += 1 + uint32(addLen)
		depth += int(addLen)
		if depth > maxDepth {
			return imp.malformed(addr, "tree deeper than %d levels", maxDepth)
		}
	}
	if tp&bitEntireWr != 0 {
		if err := imp.builder.AddWholeWord(suffix, rule); err != nil {
			return imp.malformed(addr, "%s", err)
		}
		return imp.checkSize(addr)
	}
	if err := imp.builder.Add(suffix, &rule, true); err != nil {
		return imp.malformed(addr, "%s", err)
	}
	if err := imp.checkSize(addr); err != nil {
		return err
	}
	if tp&bitInternal == 0 {
		return nil
	}

	mod, err := imp.byteAt(pos, "hash table size")
	if err != nil {
		return err
	}
	if mod == 0 {
		return imp.malformed(pos, "zero hash table size")
	}
	pos++
	if err := imp.need(pos, int(mod)*5, "hash table"); err != nil {
		return err
	}
	for i := 0; i < int(mod); i++ {
		slot := pos + uint32(i)*5
		c := imp.data[slot]
		child := binary.LittleEndian.Uint32(imp.data[slot+1:])
		if child == 0 {
			continue
		}
		if c == 0 {
			if i == 0 {
				bndRule, err := imp.nodeRule(child)
				if err != nil {
					return err
				}
				if err := imp.builder.AddWholeWord(suffix, bndRule); err != nil {
					return imp.malformed(slot, "%s", err)
				}
			}
			continue
		}
		if int(c)%int(mod) != i {
			// the original lookup would never reach such a slot
			continue
		}
		childSuffix := make([]byte, 0, len(suffix)+1)
		childSuffix = append(childSuffix, c)
		childSuffix = append(childSuffix, suffix...)
		if err := imp.convert(child, childSuffix, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Decode converts a LemmaGen binary model into a decision tree.
// Structural problems are reported as *codec.MalformedModelError.
func Decode(data []byte) (*rdr.Tree, error) {
	if len(data) < 4 {
		return nil, &codec.MalformedModelError{Offset: 0, Reason: "missing data length"}
	}
	declared := binary.LittleEndian.Uint32(data[:4])
	if uint64(declared) > uint64(len(data)-4) {
		return nil, &codec.MalformedModelError{
			Offset: 0,
			Reason: fmt.Sprintf("declared data length %d exceeds available %d byte(s)", declared, len(data)-4),
		}
	}
	if declared == 0 {
		return nil, &codec.MalformedModelError{Offset: 0, Reason: "empty model"}
	}
	imp := &importer{
		data:     data[4 : 4+declared],
		rules:    make(map[uint32]rdr.Rule),
		visiting: make(map[uint32]bool),
		builder:  rdr.NewBuilder(""),
		maxNodes: int(declared) + 1,
	}
	if err := imp.convert(0, []byte{}, 0); err != nil {
		return nil, err
	}
	tree, err := imp.builder.Build()
	if err != nil {
		return nil, &codec.MalformedModelError{Offset: 4, Reason: err.Error()}
	}
	return tree, nil
}
