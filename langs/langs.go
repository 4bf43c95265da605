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

// Package langs resolves language codes to lemmatization models
// stored in a directory by the convention <models-dir>/<code>.bin.
package langs

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/czcorpus/cnc-gokit/collections"
	"github.com/rs/zerolog/log"

	"github.com/czcorpus/rdrlemm/fs"
	"github.com/czcorpus/rdrlemm/lemmatizer"
)

const ModelFileSuffix = ".bin"

// ErrUnsupportedLanguage signals there is no model file for a language.
// Compare with lemmatizer.ModelLoadError which
// reports a model that exists but cannot be loaded.
var ErrUnsupportedLanguage = errors.New("unsupported language")

type UnsupportedLanguageError struct {
	Code string
}

func (err *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("language \"%s\" is not supported", err.Code)
}

func (err *UnsupportedLanguageError) Unwrap() error {
	return ErrUnsupportedLanguage
}

// ValidCode tests for an ISO 639-1 like code (two lowercase ASCII letters)
func ValidCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'a' || code[i] > 'z' {
			return false
		}
	}
	return true
}

// langCode makes language codes usable with collections.BinTree
type langCode string

func (lc langCode) Compare(other collections.Comparable) int {
	tOther, ok := other.(langCode)
	if !ok {
		return -1
	}
	return strings.Compare(string(lc), string(tOther))
}

// -------

type Registry struct {
	ModelsDir string
}

func NewRegistry(modelsDir string) *Registry {
	return &Registry{ModelsDir: modelsDir}
}

func (r *Registry) ModelPath(code string) string {
	return filepath.Join(r.ModelsDir, code+ModelFileSuffix)
}

// Resolve returns a path to a model file for the language code
// or *UnsupportedLanguageError if there is no such file.
func (r *Registry) Resolve(code string) (string, error) {
	if !ValidCode(code) {
		return "", &UnsupportedLanguageError{Code: code}
	}
	path := r.ModelPath(code)
	if !fs.IsFile(path) {
		return "", &UnsupportedLanguageError{Code: code}
	}
	return path, nil
}

// SupportedLanguages lists codes of all the languages with
// a model file present, sorted alphabetically.
func (r *Registry) SupportedLanguages() ([]string, error) {
	files, err := fs.ListFilesWithSuffix(r.ModelsDir, ModelFileSuffix)
	if err != nil {
		return []string{}, fmt.Errorf("failed to list supported languages: %w", err)
	}
	codes := new(collections.BinTree[langCode])
	codes.UniqValues = true
	for _, f := range files {
		code := strings.TrimSuffix(filepath.Base(f), ModelFileSuffix)
		if !ValidCode(code) {
			log.Debug().Str("file", f).Msg("ignoring model file with non-conforming name")
			continue
		}
		codes.Add(langCode(code))
	}
	ans := make([]string, 0, len(files))
	for _, c := range codes.ToSlice() {
		ans = append(ans, string(c))
	}
	return ans, nil
}

// Load creates a new lemmatizer with the model of the language
func (r *Registry) Load(code string) (*lemmatizer.Lemmatizer, error) {
	path, err := r.Resolve(code)
	if err != nil {
		return nil, err
	}
	return lemmatizer.NewFromFile(path)
}

// -------

// poolEntry is a (possibly still loading) lemmatizer of a language.
// The ready channel is closed once lm and err are set.
type poolEntry struct {
	ready chan struct{}
	lm    *lemmatizer.Lemmatizer
	err   error
}

// Pool keeps one lemmatizer per language, loading models lazily.
// It is safe for concurrent use. A model being loaded blocks only
// callers asking for the same language.
type Pool struct {
	registry *Registry
	load     func(code string) (*lemmatizer.Lemmatizer, error)
	mu       sync.Mutex
	items    map[string]*poolEntry
}

func NewPool(registry *Registry) *Pool {
	return &Pool{
		registry: registry,
		load:     registry.Load,
		items:    make(map[string]*poolEntry),
	}
}

func (p *Pool) Registry() *Registry {
	return p.registry
}

func (p *Pool) Get(code string) (*lemmatizer.Lemmatizer, error) {
	p.mu.Lock()
	entry, ok := p.items[code]
	if ok {
		p.mu.Unlock()
		<-entry.ready
		return entry.lm, entry.err
	}
	entry = &poolEntry{ready: make(chan struct{})}
	p.items[code] = entry
	p.mu.Unlock()

	entry.lm, entry.err = p.load(code)
	if entry.err != nil {
		p.mu.Lock()
		delete(p.items, code)
		p.mu.Unlock()
	}
	close(entry.ready)
	return entry.lm, entry.err
}

// Preload loads models for the provided languages in advance
func (p *Pool) Preload(codes ...string) error {
	for _, code := range codes {
		if _, err := p.Get(code); err != nil {
			return fmt.Errorf("failed to preload language %s: %w", code, err)
		}
	}
	return nil
}

// Reload replaces the model of an already loaded language with
// the current content of its model file. Readers are not blocked.
func (p *Pool) Reload(code string) error {
	path, err := p.registry.Resolve(code)
	if err != nil {
		return err
	}
	p.mu.Lock()
	entry, ok := p.items[code]
	p.mu.Unlock()
	if !ok {
		_, err := p.Get(code)
		return err
	}
	<-entry.ready
	if entry.err != nil {
		_, err := p.Get(code)
		return err
	}
	return entry.lm.LoadModel(path)
}

func (p *Pool) Lemmatize(code, word string) (string, error) {
	lm, err := p.Get(code)
	if err != nil {
		return "", err
	}
	return lm.Lemmatize(word)
}
