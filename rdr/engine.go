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

// Match walks the tree along the reversed word and returns the most
// specific applicable rule. The second return value is false only if
// no visited node carries a rule (which means an invalid model with
// an empty root).
//
// Descent stops once the word is exhausted or there is no child
// for the next character. Deeper rules always override shallower
// ones. A node with Stop == false contributes its rule only if the
// word ends exactly at the node. Once the whole word is consumed,
// a child keyed by BoundaryKey (a whole-word exception) is tried too.
func (t *Tree) Match(word []byte) (Rule, bool) {
	var best Rule
	var found bool
	node := t.Root()
	if node == nil {
		return best, false
	}
	if node.HasRule && (node.Stop || len(word) == 0) {
		best, found = node.Rule, true
	}
	depth := 0
	for depth < len(word) {
		c := word[len(word)-1-depth]
		if c == BoundaryKey {
			break
		}
		next, ok := t.child(node, c)
		if !ok {
			break
		}
		node = next
		depth++
		if node.HasRule && (node.Stop || depth == len(word)) {
			best, found = node.Rule, true
		}
	}
	if depth == len(word) {
		if bnd, ok := t.child(node, BoundaryKey); ok && bnd.HasRule {
			best, found = bnd.Rule, true
		}
	}
	return best, found
}

// Lemmatize applies the most specific matching rule to the word.
// The function never fails - words the model knows nothing about
// are returned unchanged. An empty word yields an empty result
// without any traversal.
func (t *Tree) Lemmatize(word []byte) []byte {
	if len(word) == 0 {
		return []byte{}
	}
	rule, ok := t.Match(word)
	if !ok {
		ans := make([]byte, len(word))
		copy(ans, word)
		return ans
	}
	return rule.ApplyTo(word)
}
