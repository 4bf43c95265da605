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

package lemmatizer

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/czcorpus/rdrlemm/codec"
	"github.com/czcorpus/rdrlemm/rdr"
	"github.com/stretchr/testify/assert"
)

func encodeModel(t *testing.T, charset string, rules map[string]rdr.Rule) []byte {
	b := rdr.NewBuilder(charset)
	assert.NoError(t, b.SetRoot(rdr.Rule{}))
	for suff, rule := range rules {
		assert.NoError(t, b.AddRule(suff, rule))
	}
	tree, err := b.Build()
	assert.NoError(t, err)
	data, err := codec.Encode(tree)
	assert.NoError(t, err)
	return data
}

func writeModel(t *testing.T, dir, name string, data []byte) string {
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestLemmatizeWithoutModel(t *testing.T) {
	lm := New()
	assert.Equal(t, Unloaded, lm.State())
	_, err := lm.Lemmatize("cats")
	assert.ErrorIs(t, err, ErrNoModelLoaded)
	_, err = lm.LemmatizeAll([]string{"cats"})
	assert.ErrorIs(t, err, ErrNoModelLoaded)
	_, err = lm.ModelInfo()
	assert.ErrorIs(t, err, ErrNoModelLoaded)
	_, err = lm.Tree()
	assert.ErrorIs(t, err, ErrNoModelLoaded)
	assert.Equal(t, "Lemmatizer{unloaded}", lm.String())
}

func TestLoadModel(t *testing.T) {
	path := writeModel(
		t, t.TempDir(), "en.bin",
		encodeModel(t, "", map[string]rdr.Rule{"s": {Strip: 1}}),
	)
	lm, err := NewFromFile(path)
	assert.NoError(t, err)
	assert.Equal(t, Ready, lm.State())
	assert.Equal(t, "ready", lm.State().String())
	lemma, err := lm.Lemmatize("cats")
	assert.NoError(t, err)
	assert.Equal(t, "cat", lemma)
	lemma, err = lm.Lemmatize("")
	assert.NoError(t, err)
	assert.Equal(t, "", lemma)

	info, err := lm.ModelInfo()
	assert.NoError(t, err)
	assert.Equal(t, path, info.Source)
	assert.Equal(t, "native", info.Format)
	assert.Equal(t, codec.Version, info.Version)
	assert.Equal(t, 2, info.Stats.NumNodes)
	assert.False(t, info.LoadedAt.IsZero())
}

func TestLoadMissingFile(t *testing.T) {
	lm := New()
	err := lm.LoadModel(filepath.Join(t.TempDir(), "nope.bin"))
	var lErr *ModelLoadError
	assert.True(t, errors.As(err, &lErr))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, Unloaded, lm.State())
}

func TestFailedLoadKeepsPreviousModel(t *testing.T) {
	dir := t.TempDir()
	good := writeModel(t, dir, "good.bin", encodeModel(t, "", map[string]rdr.Rule{"s": {Strip: 1}}))
	data := encodeModel(t, "", map[string]rdr.Rule{"s": {Strip: 1, Append: "X"}})
	bad := writeModel(t, dir, "bad.bin", data[:len(data)-1])

	lm, err := NewFromFile(good)
	assert.NoError(t, err)
	err = lm.LoadModel(bad)
	assert.ErrorIs(t, err, codec.ErrMalformedModel)
	var lErr *ModelLoadError
	assert.True(t, errors.As(err, &lErr))
	assert.Equal(t, bad, lErr.Path)

	assert.Equal(t, Ready, lm.State())
	lemma, err := lm.Lemmatize("cats")
	assert.NoError(t, err)
	assert.Equal(t, "cat", lemma)
	info, err := lm.ModelInfo()
	assert.NoError(t, err)
	assert.Equal(t, good, info.Source)
}

func TestLoadUnsupportedVersion(t *testing.T) {
	data := encodeModel(t, "", map[string]rdr.Rule{})
	data[4] = codec.Version + 1
	err := New().LoadBytes(data)
	assert.ErrorIs(t, err, codec.ErrUnsupportedVersion)
}

func TestLoadUnknownFormat(t *testing.T) {
	err := New().LoadBytes([]byte("garbage"))
	assert.ErrorIs(t, err, codec.ErrMalformedModel)
}

func TestLoadUnknownCharset(t *testing.T) {
	data := encodeModel(t, "x-no-such", map[string]rdr.Rule{})
	lm := New()
	err := lm.LoadBytes(data)
	var lErr *ModelLoadError
	assert.True(t, errors.As(err, &lErr))
	assert.Equal(t, Unloaded, lm.State())
}

func TestLoadLegacyModel(t *testing.T) {
	// root rule: identity, single child "s" => -1
	blob := []byte{
		0x02, 16, 0, 0, 0, 2,
		0, 0, 0, 0, 0,
		's', 19, 0, 0, 0,
		0, 0, 0,
		0, 1, 0,
	}
	data := append([]byte{byte(len(blob)), 0, 0, 0}, blob...)
	lm := New()
	assert.NoError(t, lm.LoadBytes(data))
	info, err := lm.ModelInfo()
	assert.NoError(t, err)
	assert.Equal(t, "lemmagen", info.Format)
	lemma, err := lm.Lemmatize("dogs")
	assert.NoError(t, err)
	assert.Equal(t, "dog", lemma)
}

func TestWindows1250Model(t *testing.T) {
	b := rdr.NewBuilder("windows-1250")
	assert.NoError(t, b.SetRoot(rdr.Rule{}))
	// "ích" in windows-1250
	assert.NoError(t, b.Add([]byte{0xed, 'c', 'h'}, &rdr.Rule{Strip: 3, Append: "\xed"}, true))
	tree, err := b.Build()
	assert.NoError(t, err)
	data, err := codec.Encode(tree)
	assert.NoError(t, err)
	lm := New()
	assert.NoError(t, lm.LoadBytes(data))
	lemma, err := lm.Lemmatize("cizích")
	assert.NoError(t, err)
	assert.Equal(t, "cizí", lemma)
	lemmas, err := lm.LemmatizeAll([]string{"jarních", "pes"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"jarní", "pes"}, lemmas)
}

func TestSetTree(t *testing.T) {
	lm := New()
	assert.Error(t, lm.SetTree(&rdr.Tree{}))
	assert.Equal(t, Unloaded, lm.State())
	b := rdr.NewBuilder("")
	assert.NoError(t, b.SetRoot(rdr.Rule{Append: "!"}))
	tree, err := b.Build()
	assert.NoError(t, err)
	assert.NoError(t, lm.SetTree(tree))
	lemma, err := lm.Lemmatize("hi")
	assert.NoError(t, err)
	assert.Equal(t, "hi!", lemma)
	info, err := lm.ModelInfo()
	assert.NoError(t, err)
	assert.Equal(t, "memory", info.Format)
}

func TestSetTreeIsolatedFromCaller(t *testing.T) {
	b := rdr.NewBuilder("")
	assert.NoError(t, b.SetRoot(rdr.Rule{}))
	assert.NoError(t, b.AddRule("s", rdr.Rule{Strip: 1}))
	tree, err := b.Build()
	assert.NoError(t, err)
	lm := New()
	assert.NoError(t, lm.SetTree(tree))

	for i := range tree.Nodes {
		tree.Nodes[i].Rule = rdr.Rule{Append: "?"}
		tree.Nodes[i].Children = nil
	}
	lemma, err := lm.Lemmatize("cats")
	assert.NoError(t, err)
	assert.Equal(t, "cat", lemma)

	active, err := lm.Tree()
	assert.NoError(t, err)
	active.Nodes[0].Children = nil
	lemma, err = lm.Lemmatize("cats")
	assert.NoError(t, err)
	assert.Equal(t, "cat", lemma)
}

func TestConcurrentReload(t *testing.T) {
	dir := t.TempDir()
	pathA := writeModel(t, dir, "a.bin", encodeModel(t, "", map[string]rdr.Rule{"s": {Strip: 1, Append: "A"}}))
	pathB := writeModel(t, dir, "b.bin", encodeModel(t, "", map[string]rdr.Rule{"s": {Strip: 1, Append: "B"}}))
	lm, err := NewFromFile(pathA)
	assert.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan string, 4000)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				lemma, err := lm.Lemmatize("cats")
				if err != nil {
					results <- err.Error()
					continue
				}
				results <- lemma
			}
		}()
	}
	for i := 0; i < 20; i++ {
		path := pathA
		if i%2 == 0 {
			path = pathB
		}
		assert.NoError(t, lm.LoadModel(path))
	}
	wg.Wait()
	close(results)
	for r := range results {
		assert.Contains(t, []string{"catA", "catB"}, r)
	}
}
