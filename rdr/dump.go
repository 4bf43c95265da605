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
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Dump writes a human readable listing of the tree, one node per line,
// indented by depth. Suffixes are printed in the natural word order,
// a leading '^' marks a whole-word exception.
func (t *Tree) Dump(w io.Writer) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("cannot dump an empty tree")
	}
	bw := bufio.NewWriter(w)
	type item struct {
		idx    int32
		depth  int
		suffix string
	}
	stack := []item{{idx: 0}}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &t.Nodes[curr.idx]
		suffix := curr.suffix
		if curr.idx != 0 {
			if node.Char == BoundaryKey {
				suffix = "^" + suffix

			} else {
				suffix = string(node.Char) + suffix
			}
		}
		bw.WriteString(strings.Repeat("  ", curr.depth))
		fmt.Fprintf(bw, "%q", suffix)
		if node.HasRule {
			fmt.Fprintf(bw, " %s", node.Rule)
			if !node.Stop {
				bw.WriteString(" (exact)")
			}
		}
		bw.WriteByte('\n')
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{
				idx:    node.Children[i],
				depth:  curr.depth + 1,
				suffix: suffix,
			})
		}
	}
	return bw.Flush()
}
