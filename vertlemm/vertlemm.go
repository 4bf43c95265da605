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

// Package vertlemm lemmatizes word forms found in corpus vertical
// files and stores the resulting word-lemma frequencies.
package vertlemm

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tomachalek/vertigo/v6"

	"github.com/czcorpus/rdrlemm/db"
	"github.com/czcorpus/rdrlemm/ptcount"
	"github.com/czcorpus/rdrlemm/ptcount/modders"
)

const (
	storeChunkLogSize = 100000
)

type Lemmatizer interface {
	Lemmatize(word string) (string, error)
}

// WordLemma is a word form along with its lemma and
// number of occurrences. ARF is nil unless calculated.
type WordLemma struct {
	Word  string   `json:"word"`
	Lemma string   `json:"lemma"`
	Count int      `json:"count"`
	ARF   *float64 `json:"arf,omitempty"`
}

// LemmaCounter is a vertigo.LineProcessor collecting
// word forms and their lemmas. Each distinct word form
// is lemmatized only once.
type LemmaCounter struct {
	ctx         context.Context
	lemmatizer  Lemmatizer
	wordColumn  int
	modder      modders.Modder
	data        map[string]*WordLemma
	numTokens   int
	numVertCols int
}

// NewLemmaCounter creates a new counter. The modder normalizes
// word forms before they are lemmatized (nil means no normalization).
func NewLemmaCounter(ctx context.Context, lemm Lemmatizer, wordColumn int, modder modders.Modder) *LemmaCounter {
	if modder == nil {
		modder = modders.Identity{}
	}
	return &LemmaCounter{
		ctx:        ctx,
		lemmatizer: lemm,
		wordColumn: wordColumn,
		modder:     modder,
		data:       make(map[string]*WordLemma),
	}
}

func (lc *LemmaCounter) normalize(word string) (string, bool) {
	word = strings.TrimSpace(word)
	if word == "" {
		return "", false
	}
	word = lc.modder.Mod(word)
	return word, word != ""
}

// tokenKey is a ptcount.KeyFunc producing the same keys
// the counter uses for its data
func (lc *LemmaCounter) tokenKey(tk *vertigo.Token) (string, bool) {
	return lc.normalize(tk.PosAttrByIndex(lc.wordColumn))
}

func (lc *LemmaCounter) addWord(word string, line int) error {
	word, ok := lc.normalize(word)
	if !ok {
		return nil
	}
	lc.numTokens++
	if stored, ok := lc.data[word]; ok {
		stored.Count++
		return nil
	}
	lemma, err := lc.lemmatizer.Lemmatize(word)
	if err != nil {
		return fmt.Errorf("failed to lemmatize word at line %d: %w", line, err)
	}
	lc.data[word] = &WordLemma{Word: word, Lemma: lemma, Count: 1}
	return nil
}

func (lc *LemmaCounter) ProcToken(tk *vertigo.Token, line int, err error) error {
	if err != nil {
		log.Warn().Err(err).Int("line", line).Msg("skipping invalid token")
		return nil
	}
	if lc.numVertCols != len(tk.Attrs) {
		if lc.numVertCols == 0 {
			lc.numVertCols = len(tk.Attrs)

		} else {
			log.Error().
				Int("expectedCols", lc.numVertCols).
				Int("actualCols", len(tk.Attrs)).
				Int("line", line).
				Msg("reporting invalid vertical line")
		}
	}
	return lc.addWord(tk.PosAttrByIndex(lc.wordColumn), line)
}

func (lc *LemmaCounter) ProcStruct(st *vertigo.Structure, line int, err error) error {
	select {
	case <-lc.ctx.Done():
		return fmt.Errorf("lemmatization stopped: %w", lc.ctx.Err())
	default:
	}
	return nil
}

func (lc *LemmaCounter) ProcStructClose(st *vertigo.StructureClose, line int, err error) error {
	return nil
}

// NumTokens returns the number of processed (non-empty) tokens
func (lc *LemmaCounter) NumTokens() int {
	return lc.numTokens
}

// NumWordForms returns the number of distinct (normalized) word forms
func (lc *LemmaCounter) NumWordForms() int {
	return len(lc.data)
}

// Counts returns word form frequencies
func (lc *LemmaCounter) Counts() map[string]int {
	ans := make(map[string]int, len(lc.data))
	for k, v := range lc.data {
		ans[k] = v.Count
	}
	return ans
}

// SetARF attaches calculated ARF values to collected word forms.
// Values of unknown words are ignored.
func (lc *LemmaCounter) SetARF(values map[string]float64) {
	for k, v := range values {
		if item, ok := lc.data[k]; ok {
			arf := v
			item.ARF = &arf
		}
	}
}

// ARFCalculator creates a second pass processor calculating
// ARF of the word forms collected by the counter.
func (lc *LemmaCounter) ARFCalculator() *ptcount.ARFCalculator {
	return ptcount.NewARFCalculator(lc.ctx, lc.Counts(), lc.numTokens, lc.tokenKey)
}

// Pairs returns collected data sorted by word
func (lc *LemmaCounter) Pairs() []WordLemma {
	ans := make([]WordLemma, 0, len(lc.data))
	for _, v := range lc.data {
		ans = append(ans, *v)
	}
	slices.SortFunc(ans, func(a, b WordLemma) int {
		return strings.Compare(a.Word, b.Word)
	})
	return ans
}

func (lc *LemmaCounter) StoreToDatabase(writer db.Writer) error {
	ins, err := writer.PrepareInsert()
	if err != nil {
		return fmt.Errorf("failed to store lemmas: %w", err)
	}
	for i, item := range lc.Pairs() {
		var arf sql.NullFloat64
		if item.ARF != nil {
			arf = sql.NullFloat64{Float64: *item.ARF, Valid: true}
		}
		if err := ins.Exec(item.Word, item.Lemma, item.Count, arf); err != nil {
			return fmt.Errorf("failed to store lemma of %s: %w", item.Word, err)
		}
		if i > 0 && i%storeChunkLogSize == 0 {
			log.Info().Int("numStored", i).Msg("storing lemmas")
		}
	}
	return nil
}
