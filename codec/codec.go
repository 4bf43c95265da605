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

// Package codec provides the binary format of lemmatization models.
//
// Layout (all integers little endian):
//
//	header: "RDRL" | version u8 | charset-len u8 | charset bytes | node-count u32
//	node:   char u8 | flags u8 | [strip u8 | append-len u8 | append bytes] | child-count u16 | children...
//
// Nodes are written depth-first (pre-order), the root goes first.
// Flag bit 0 marks an attached rule, bit 1 a stopping point
// (see rdr.Node.Stop).
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/czcorpus/rdrlemm/rdr"
)

const (
	Magic = "RDRL"

	// Version is the newest format version the codec understands
	Version uint8 = 1

	flagRule uint8 = 0x01
	flagStop uint8 = 0x02

	// minNodeSize is the smallest possible size of an encoded node
	// (char, flags, child count)
	minNodeSize = 4
)

// Format identifies a kind of model file
type Format int

const (
	FormatUnknown Format = iota
	FormatNative
	FormatLemmagen
)

func (f Format) String() string {
	switch f {
	case FormatNative:
		return "native"
	case FormatLemmagen:
		return "lemmagen"
	default:
		return "unknown"
	}
}

// Sniff guesses a model format from its leading bytes. Legacy lemmagen
// files start with a 32-bit length of the tree data followed by the
// data itself.
func Sniff(data []byte) Format {
	if bytes.HasPrefix(data, []byte(Magic)) {
		return FormatNative
	}
	if len(data) > 4 {
		declared := binary.LittleEndian.Uint32(data[:4])
		if declared > 0 && uint64(declared) <= uint64(len(data)-4) {
			return FormatLemmagen
		}
	}
	return FormatUnknown
}

// -------

type reader struct {
	data []byte
	pos  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) need(n int, what string) error {
	if r.remaining() < n {
		return malformed(r.pos, "truncated stream: %s needs %d byte(s), %d left", what, n, r.remaining())
	}
	return nil
}

func (r *reader) uint8(what string) (uint8, error) {
	if err := r.need(1, what); err != nil {
		return 0, err
	}
	r.pos++
	return r.data[r.pos-1], nil
}

func (r *reader) uint16(what string) (uint16, error) {
	if err := r.need(2, what); err != nil {
		return 0, err
	}
	r.pos += 2
	return binary.LittleEndian.Uint16(r.data[r.pos-2:]), nil
}

func (r *reader) uint32(what string) (uint32, error) {
	if err := r.need(4, what); err != nil {
		return 0, err
	}
	r.pos += 4
	return binary.LittleEndian.Uint32(r.data[r.pos-4:]), nil
}

func (r *reader) bytes(n int, what string) ([]byte, error) {
	if err := r.need(n, what); err != nil {
		return nil, err
	}
	r.pos += n
	return r.data[r.pos-n : r.pos], nil
}

func (r *reader) node() (rdr.Node, int, error) {
	var node rdr.Node
	c, err := r.uint8("node character")
	if err != nil {
		return node, 0, err
	}
	node.Char = c
	flags, err := r.uint8("node flags")
	if err != nil {
		return node, 0, err
	}
	if flags&^(flagRule|flagStop) != 0 {
		return node, 0, malformed(r.pos-1, "unknown node flags 0x%02x", flags)
	}
	node.Stop = flags&flagStop != 0
	if flags&flagRule != 0 {
		strip, err := r.uint8("rule strip count")
		if err != nil {
			return node, 0, err
		}
		appLen, err := r.uint8("rule suffix length")
		if err != nil {
			return node, 0, err
		}
		app, err := r.bytes(int(appLen), "rule suffix")
		if err != nil {
			return node, 0, err
		}
		node.HasRule = true
		node.Rule = rdr.Rule{Strip: int(strip), Append: string(app)}
	}
	numChildren, err := r.uint16("child count")
	if err != nil {
		return node, 0, err
	}
	return node, int(numChildren), nil
}

func (r *reader) header() (version uint8, charset string, numNodes int, err error) {
	var magic []byte
	magic, err = r.bytes(len(Magic), "magic")
	if err != nil {
		return
	}
	if string(magic) != Magic {
		err = malformed(0, "invalid magic %q", magic)
		return
	}
	version, err = r.uint8("format version")
	if err != nil {
		return
	}
	if version == 0 {
		err = malformed(r.pos-1, "invalid format version 0")
		return
	}
	if version > Version {
		err = &UnsupportedVersionError{Version: version, Supported: Version}
		return
	}
	var csLen uint8
	csLen, err = r.uint8("charset length")
	if err != nil {
		return
	}
	var cs []byte
	cs, err = r.bytes(int(csLen), "charset")
	if err != nil {
		return
	}
	for _, c := range cs {
		if c <= ' ' || c > '~' {
			err = malformed(r.pos-len(cs), "invalid charset name %q", cs)
			return
		}
	}
	charset = string(cs)
	var declared uint32
	declared, err = r.uint32("node count")
	if err != nil {
		return
	}
	if declared == 0 {
		err = malformed(r.pos-4, "model contains no nodes")
		return
	}
	if uint64(declared)*minNodeSize > uint64(r.remaining()) {
		err = malformed(
			r.pos-4, "declared node count %d cannot fit into remaining %d byte(s)",
			declared, r.remaining())
		return
	}
	numNodes = int(declared)
	return
}

// Decode deserializes a model. The stream is treated as untrusted:
// all the declared counts are checked against the remaining data
// before anything is allocated. Errors are either *MalformedModelError
// or *UnsupportedVersionError.
func Decode(data []byte) (*rdr.Tree, error) {
	r := &reader{data: data}
	version, charset, numNodes, err := r.header()
	if err != nil {
		return nil, err
	}
	nodes := make([]rdr.Node, 0, numNodes)

	type frame struct {
		idx     int32
		pending int
	}
	var pendingTotal int
	reserve := func(offset, numChildren int) error {
		pendingTotal += numChildren
		if len(nodes)+pendingTotal > numNodes {
			return malformed(offset, "child count %d exceeds declared node count %d", numChildren, numNodes)
		}
		if pendingTotal*minNodeSize > r.remaining() {
			return malformed(
				offset, "child count %d cannot fit into remaining %d byte(s)", numChildren, r.remaining())
		}
		return nil
	}

	root, numChildren, err := r.node()
	if err != nil {
		return nil, err
	}
	root.Children = make([]int32, 0, numChildren)
	nodes = append(nodes, root)
	if err := reserve(r.pos-2, numChildren); err != nil {
		return nil, err
	}
	stack := []frame{{idx: 0, pending: numChildren}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.pending == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		top.pending--
		pendingTotal--
		offset := r.pos
		node, numChildren, err := r.node()
		if err != nil {
			return nil, err
		}
		parentIdx := top.idx
		siblings := nodes[parentIdx].Children
		if len(siblings) > 0 && nodes[siblings[len(siblings)-1]].Char >= node.Char {
			return nil, malformed(offset, "children of a node are not strictly ordered")
		}
		node.Children = make([]int32, 0, numChildren)
		idx := int32(len(nodes))
		nodes = append(nodes, node)
		nodes[parentIdx].Children = append(nodes[parentIdx].Children, idx)
		if err := reserve(r.pos-2, numChildren); err != nil {
			return nil, err
		}
		stack = append(stack, frame{idx: idx, pending: numChildren})
	}
	if len(nodes) != numNodes {
		return nil, malformed(r.pos, "declared %d node(s), found %d", numNodes, len(nodes))
	}
	if r.remaining() > 0 {
		return nil, malformed(r.pos, "%d trailing byte(s) after the tree", r.remaining())
	}
	return &rdr.Tree{
		Version: version,
		Charset: charset,
		Nodes:   nodes,
	}, nil
}

// -------

// Encode serializes a tree using the newest format version.
func Encode(tree *rdr.Tree) ([]byte, error) {
	var buff bytes.Buffer
	if err := Write(&buff, tree); err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

// Write serializes a tree into w. The tree is validated first.
func Write(w io.Writer, tree *rdr.Tree) error {
	if err := tree.Validate(); err != nil {
		return fmt.Errorf("cannot encode invalid tree: %w", err)
	}
	if len(tree.Charset) > math.MaxUint8 {
		return fmt.Errorf("cannot encode tree: charset name too long")
	}
	if uint64(len(tree.Nodes)) > math.MaxUint32 {
		return fmt.Errorf("cannot encode tree: too many nodes")
	}
	out := make([]byte, 0, len(Magic)+6+len(tree.Charset)+len(tree.Nodes)*minNodeSize)
	out = append(out, Magic...)
	out = append(out, Version, uint8(len(tree.Charset)))
	out = append(out, tree.Charset...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(tree.Nodes)))

	stack := []int32{0}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &tree.Nodes[idx]
		var flags uint8
		if node.HasRule {
			flags |= flagRule
		}
		if node.Stop {
			flags |= flagStop
		}
		out = append(out, node.Char, flags)
		if node.HasRule {
			if node.Rule.Strip < 0 || node.Rule.Strip > math.MaxUint8 {
				return fmt.Errorf("cannot encode node %d: strip count %d out of range", idx, node.Rule.Strip)
			}
			if len(node.Rule.Append) > math.MaxUint8 {
				return fmt.Errorf("cannot encode node %d: rule suffix too long", idx)
			}
			out = append(out, uint8(node.Rule.Strip), uint8(len(node.Rule.Append)))
			out = append(out, node.Rule.Append...)
		}
		if len(node.Children) > math.MaxUint16 {
			return fmt.Errorf("cannot encode node %d: too many children", idx)
		}
		out = binary.LittleEndian.AppendUint16(out, uint16(len(node.Children)))
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}
	_, err := w.Write(out)
	return err
}
