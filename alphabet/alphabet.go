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

// Package alphabet maps words between UTF-8 and the single-byte
// charset a model was trained with.
package alphabet

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/czcorpus/rdrlemm/rdr"
)

// Alphabet converts words for a concrete model charset.
// The zero charset name represents raw byte mode where words are
// matched by their (typically UTF-8) bytes.
type Alphabet struct {
	name string
	cm   *charmap.Charmap
}

func (a *Alphabet) Name() string {
	return a.name
}

func (a *Alphabet) IsRaw() bool {
	return a.cm == nil
}

// Resolve finds a single-byte charset by its IANA name (e.g. windows-1250,
// ISO-8859-2). Multi-byte encodings are rejected as models store exactly
// one byte per character.
func Resolve(name string) (*Alphabet, error) {
	if name == "" {
		return &Alphabet{}, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown model charset %s: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported model charset %s", name)
	}
	cm, ok := enc.(*charmap.Charmap)
	if !ok {
		return nil, fmt.Errorf("model charset %s is not a single-byte charset", name)
	}
	return &Alphabet{name: strings.ToLower(name), cm: cm}, nil
}

// EncodeWord converts a word into the model's charset. In contrast
// to Encode, characters not representable by the charset are replaced
// by rdr.BoundaryKey which never matches any suffix.
func (a *Alphabet) EncodeWord(word string) []byte {
	if a.cm == nil {
		return []byte(word)
	}
	ans := make([]byte, 0, len(word))
	for _, r := range word {
		b, ok := a.cm.EncodeRune(r)
		if !ok {
			b = rdr.BoundaryKey
		}
		ans = append(ans, b)
	}
	return ans
}

// Encode converts a string into the model's charset and fails
// on characters the charset cannot represent.
func (a *Alphabet) Encode(s string) ([]byte, error) {
	if a.cm == nil {
		return []byte(s), nil
	}
	ans := make([]byte, 0, len(s))
	for i, r := range s {
		b, ok := a.cm.EncodeRune(r)
		if !ok {
			return nil, fmt.Errorf("character %q at position %d cannot be encoded in %s", r, i, a.name)
		}
		ans = append(ans, b)
	}
	return ans, nil
}

// Decode converts bytes in the model's charset into a UTF-8 string
func (a *Alphabet) Decode(data []byte) string {
	if a.cm == nil {
		return string(data)
	}
	var ans strings.Builder
	ans.Grow(len(data))
	for _, b := range data {
		ans.WriteRune(a.cm.DecodeByte(b))
	}
	return ans.String()
}

// Lemmatize runs the tree over the word, converting it to and from
// the model's charset. The stem of the result is always taken from
// the original word so characters unknown to the charset survive
// untouched.
func (a *Alphabet) Lemmatize(tree *rdr.Tree, word string) string {
	if word == "" {
		return ""
	}
	if a.cm == nil {
		return string(tree.Lemmatize([]byte(word)))
	}
	rule, ok := tree.Match(a.EncodeWord(word))
	if !ok {
		return word
	}
	runes := []rune(word)
	return string(runes[:rule.StemLen(len(runes))]) + a.Decode([]byte(rule.Append))
}
