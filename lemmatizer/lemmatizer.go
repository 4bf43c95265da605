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

// Package lemmatizer provides a lemmatizer owning one loaded model
// at a time.
//
// A Lemmatizer starts in the Unloaded state and becomes Ready after
// the first successful LoadModel. Further loads replace the model
// wholesale: the new decision tree is built off to the side and
// published atomically, so concurrent Lemmatize calls see either the
// old or the new model, never a mix. A failed load leaves the
// instance untouched.
package lemmatizer

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/czcorpus/rdrlemm/alphabet"
	"github.com/czcorpus/rdrlemm/codec"
	"github.com/czcorpus/rdrlemm/lemmagen"
	"github.com/czcorpus/rdrlemm/rdr"
)

type State int

const (
	Unloaded State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "unloaded"
}

// Info describes the currently loaded model
type Info struct {
	Source   string    `json:"source"`
	Format   string    `json:"format"`
	Version  uint8     `json:"version"`
	Charset  string    `json:"charset"`
	Stats    rdr.Stats `json:"stats"`
	LoadedAt time.Time `json:"loadedAt"`
}

type model struct {
	tree  *rdr.Tree
	alpha *alphabet.Alphabet
	info  Info
}

type Lemmatizer struct {
	loadMu sync.Mutex
	active atomic.Pointer[model]
}

func New() *Lemmatizer {
	return &Lemmatizer{}
}

// NewFromFile creates a lemmatizer and loads a model into it
func NewFromFile(path string) (*Lemmatizer, error) {
	ans := New()
	if err := ans.LoadModel(path); err != nil {
		return nil, err
	}
	return ans, nil
}

// decodeModel builds a complete model from raw data without touching
// any lemmatizer state
func decodeModel(data []byte) (*model, error) {
	var tree *rdr.Tree
	var err error
	format := codec.Sniff(data)
	switch format {
	case codec.FormatNative:
		tree, err = codec.Decode(data)
	case codec.FormatLemmagen:
		tree, err = lemmagen.Decode(data)
	default:
		err = &codec.MalformedModelError{Offset: 0, Reason: "unrecognized model format"}
	}
	if err != nil {
		return nil, err
	}
	if err := tree.Validate(); err != nil {
		return nil, &codec.MalformedModelError{Offset: 0, Reason: err.Error()}
	}
	alpha, err := alphabet.Resolve(tree.Charset)
	if err != nil {
		return nil, err
	}
	return &model{
		tree:  tree,
		alpha: alpha,
		info: Info{
			Format:  format.String(),
			Version: tree.Version,
			Charset: tree.Charset,
			Stats:   tree.Stats(),
		},
	}, nil
}

func (l *Lemmatizer) install(source string, data []byte) error {
	t0 := time.Now()
	m, err := decodeModel(data)
	if err != nil {
		return &ModelLoadError{Path: source, Err: err}
	}
	m.info.Source = source
	m.info.LoadedAt = time.Now()
	l.active.Store(m)
	log.Info().
		Str("source", source).
		Str("format", m.info.Format).
		Str("charset", m.info.Charset).
		Int("nodes", m.info.Stats.NumNodes).
		Int("rules", m.info.Stats.NumRules).
		Dur("elapsed", time.Since(t0)).
		Msg("lemmatization model loaded")
	return nil
}

// LoadModel reads a model file and replaces the current model
// with it. On failure (*ModelLoadError), the previous model stays
// active.
func (l *Lemmatizer) LoadModel(path string) error {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()
	data, err := os.ReadFile(path)
	if err != nil {
		return &ModelLoadError{Path: path, Err: err}
	}
	return l.install(path, data)
}

// LoadBytes is like LoadModel but with model data already in memory
func (l *Lemmatizer) LoadBytes(data []byte) error {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()
	return l.install("", data)
}

// SetTree installs a copy of an already built tree (e.g. compiled
// from a rule listing). Later changes of the tree do not affect
// the lemmatizer.
func (l *Lemmatizer) SetTree(tree *rdr.Tree) error {
	if err := tree.Validate(); err != nil {
		return &ModelLoadError{Err: &codec.MalformedModelError{Reason: err.Error()}}
	}
	alpha, err := alphabet.Resolve(tree.Charset)
	if err != nil {
		return &ModelLoadError{Err: err}
	}
	tree = tree.Clone()
	l.loadMu.Lock()
	defer l.loadMu.Unlock()
	l.active.Store(&model{
		tree:  tree,
		alpha: alpha,
		info: Info{
			Format:   "memory",
			Version:  tree.Version,
			Charset:  tree.Charset,
			Stats:    tree.Stats(),
			LoadedAt: time.Now(),
		},
	})
	return nil
}

func (l *Lemmatizer) State() State {
	if l.active.Load() == nil {
		return Unloaded
	}
	return Ready
}

// Lemmatize returns the lemma of a single word token. The only
// possible error is ErrNoModelLoaded.
func (l *Lemmatizer) Lemmatize(word string) (string, error) {
	m := l.active.Load()
	if m == nil {
		return "", ErrNoModelLoaded
	}
	return m.alpha.Lemmatize(m.tree, word), nil
}

// LemmatizeAll lemmatizes a list of words against a single model
// snapshot, i.e. a concurrent reload cannot affect the result.
func (l *Lemmatizer) LemmatizeAll(words []string) ([]string, error) {
	m := l.active.Load()
	if m == nil {
		return nil, ErrNoModelLoaded
	}
	ans := make([]string, len(words))
	for i, w := range words {
		ans[i] = m.alpha.Lemmatize(m.tree, w)
	}
	return ans, nil
}

func (l *Lemmatizer) ModelInfo() (Info, error) {
	m := l.active.Load()
	if m == nil {
		return Info{}, ErrNoModelLoaded
	}
	return m.info, nil
}

// Tree returns a copy of the currently active decision tree
func (l *Lemmatizer) Tree() (*rdr.Tree, error) {
	m := l.active.Load()
	if m == nil {
		return nil, ErrNoModelLoaded
	}
	return m.tree.Clone(), nil
}

func (l *Lemmatizer) String() string {
	m := l.active.Load()
	if m == nil {
		return "Lemmatizer{unloaded}"
	}
	return fmt.Sprintf("Lemmatizer{%s, %s, nodes: %d}", m.info.Source, m.info.Format, m.info.Stats.NumNodes)
}
