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

package ptcount

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"github.com/tomachalek/vertigo/v6"
)

// For more information about ARF definition and possible calculation
// please see e.g.:
// https://www.sketchengine.eu/documentation/average-reduced-frequency/
// http://wiki.korpus.cz/doku.php/en:pojmy:arf

// minDist is a single-purpose min function
// where we compare float (= avg. distance)
// with int (= actual distance)
func minDist(v1 float64, v2 int) float64 {
	if v1 < float64(v2) {
		return v1
	}
	return float64(v2)
}

// WordARF holds a partial ARF result of a single word form.
// The calculation is two-pass. In the 1st pass we obtain
// word frequencies (and thus the avg. distance between word
// instances) and in the 2nd pass we actually calculate
// the result. This is slower (we parse the vertical file two
// times) but it needs less memory compared with a single pass
// method.
type WordARF struct {
	ARF        float64
	FirstIdx   int
	PrevTokIdx int
}

func (ws WordARF) String() string {
	return fmt.Sprintf("WordARF: {arf: %01.2f, 1st: %d, last: %d}", ws.ARF, ws.FirstIdx, ws.PrevTokIdx)
}

// KeyFunc extracts a counted key (typically a normalized word form)
// from a token. Tokens with ok == false are not counted at all
// and they do not increase token position either.
type KeyFunc func(tk *vertigo.Token) (key string, ok bool)

// ARFCalculator calculates ARF for all the keys
// counted in the 1st pass.
type ARFCalculator struct {
	ctx       context.Context
	counts    map[string]int
	arfs      map[string]*WordARF
	numTokens int
	tokenIdx  int
	keyFn     KeyFunc
}

// NewARFCalculator is the recommended factory to create an instance of the type
func NewARFCalculator(ctx context.Context, counts map[string]int, numTokens int, keyFn KeyFunc) *ARFCalculator {
	return &ARFCalculator{
		ctx:       ctx,
		counts:    counts,
		arfs:      make(map[string]*WordARF, len(counts)),
		numTokens: numTokens,
		keyFn:     keyFn,
	}
}

// AddOccurrence registers an occurrence of a key at the current
// token position and moves the position forward.
func (arfc *ARFCalculator) AddOccurrence(key string) {
	defer func() { arfc.tokenIdx++ }()
	cnt := arfc.counts[key]
	if cnt == 0 {
		log.Error().Str("key", key).Int("position", arfc.tokenIdx).Msg("token not found in counted data")
		return
	}
	arf, ok := arfc.arfs[key]
	if !ok {
		arf = &WordARF{FirstIdx: arfc.tokenIdx, PrevTokIdx: -1}
		arfc.arfs[key] = arf
	}
	if arf.PrevTokIdx > -1 {
		arf.ARF += minDist(float64(arfc.numTokens)/float64(cnt), arfc.tokenIdx-arf.PrevTokIdx)
	}
	arf.PrevTokIdx = arfc.tokenIdx
}

// ProcToken is called by vertigo parser when a token is encountered
func (arfc *ARFCalculator) ProcToken(tk *vertigo.Token, line int, err error) error {
	if err != nil {
		return nil
	}
	if key, ok := arfc.keyFn(tk); ok {
		arfc.AddOccurrence(key)
	}
	return nil
}

// ProcStruct is used by Vertigo parser; we only test for cancellation here
func (arfc *ARFCalculator) ProcStruct(strc *vertigo.Structure, line int, err error) error {
	select {
	case <-arfc.ctx.Done():
		return fmt.Errorf("ARF calculation stopped: %w", arfc.ctx.Err())
	default:
	}
	return nil
}

// ProcStructClose is used by Vertigo parser but we don't need it here
func (arfc *ARFCalculator) ProcStructClose(strc *vertigo.StructureClose, line int, err error) error {
	return nil
}

// Finalize performs final calculations on obtained (and continuously
// calculated) data and returns ARF values of all the encountered keys.
// Results are rounded to three decimal places.
func (arfc *ARFCalculator) Finalize() map[string]float64 {
	ans := make(map[string]float64, len(arfc.arfs))
	for key, val := range arfc.arfs {
		avgDist := float64(arfc.numTokens) / float64(arfc.counts[key])
		v := val.ARF + minDist(avgDist, val.FirstIdx+arfc.numTokens-val.PrevTokIdx)
		ans[key] = math.Round(v/avgDist*1000) / 1000.0
	}
	return ans
}
