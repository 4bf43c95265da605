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
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ToLower lowercases strings using language independent
// Unicode case mapping. Instances are not safe for
// concurrent use.
type ToLower struct {
	caser cases.Caser
}

func NewToLower() *ToLower {
	return &ToLower{caser: cases.Lower(language.Und)}
}

func (m *ToLower) Mod(s string) string {
	return m.caser.String(s)
}

// TrimPunct removes leading and trailing punctuation
// unless the whole string is made of punctuation
// (e.g. "..." stays intact).
type TrimPunct struct{}

func (m TrimPunct) Mod(s string) string {
	ans := strings.TrimFunc(s, unicode.IsPunct)
	if ans == "" {
		return s
	}
	return ans
}

// NFC converts strings into the Unicode normalization form C
// so e.g. a decomposed "é" matches its composed variant
type NFC struct{}

func (m NFC) Mod(s string) string {
	return norm.NFC.String(s)
}

// StripAccents removes combining marks (e.g. "čaj" -> "caj").
// Instances are not safe for concurrent use.
type StripAccents struct {
	tr transform.Transformer
}

func NewStripAccents() *StripAccents {
	return &StripAccents{
		tr: transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
	}
}

func (m *StripAccents) Mod(s string) string {
	ans, _, err := transform.String(m.tr, s)
	if err != nil {
		return s
	}
	return ans
}

type FirstChar struct{}

func (m FirstChar) Mod(s string) string {
	for _, r := range s {
		return string(r)
	}
	return s
}

type Identity struct{}

func (m Identity) Mod(s string) string {
	return s
}
