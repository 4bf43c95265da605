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

package langs

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/czcorpus/rdrlemm/codec"
	"github.com/czcorpus/rdrlemm/lemmatizer"
	"github.com/czcorpus/rdrlemm/rdr"
	"github.com/stretchr/testify/assert"
)

func encodeModel(t *testing.T, appendStr string) []byte {
	b := rdr.NewBuilder("")
	assert.NoError(t, b.SetRoot(rdr.Rule{}))
	assert.NoError(t, b.AddRule("s", rdr.Rule{Strip: 1, Append: appendStr}))
	tree, err := b.Build()
	assert.NoError(t, err)
	data, err := codec.Encode(tree)
	assert.NoError(t, err)
	return data
}

func createModelsDir(t *testing.T) string {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "en.bin"), encodeModel(t, ""), 0644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "cs.bin"), encodeModel(t, "a"), 0644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "sk.bin"), []byte("broken"), 0644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "english.bin"), encodeModel(t, ""), 0644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "de.txt"), []byte("x"), 0644))
	return dir
}

func TestValidCode(t *testing.T) {
	assert.True(t, ValidCode("en"))
	assert.False(t, ValidCode("EN"))
	assert.False(t, ValidCode("eng"))
	assert.False(t, ValidCode(""))
	assert.False(t, ValidCode("../"))
	assert.False(t, ValidCode("e1"))
}

func TestSupportedLanguages(t *testing.T) {
	reg := NewRegistry(createModelsDir(t))
	codes, err := reg.SupportedLanguages()
	assert.NoError(t, err)
	assert.Equal(t, []string{"cs", "en", "sk"}, codes)
}

func TestSupportedLanguagesMissingDir(t *testing.T) {
	reg := NewRegistry(filepath.Join(t.TempDir(), "nope"))
	codes, err := reg.SupportedLanguages()
	assert.Error(t, err)
	assert.Empty(t, codes)
}

func TestResolve(t *testing.T) {
	dir := createModelsDir(t)
	reg := NewRegistry(dir)
	path, err := reg.Resolve("en")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "en.bin"), path)

	for _, code := range []string{"de", "fr", "english", "../en", ""} {
		_, err := reg.Resolve(code)
		assert.ErrorIs(t, err, ErrUnsupportedLanguage, code)
		var uErr *UnsupportedLanguageError
		assert.True(t, errors.As(err, &uErr))
		assert.Equal(t, code, uErr.Code)
	}
}

func TestLoadDistinguishesErrors(t *testing.T) {
	reg := NewRegistry(createModelsDir(t))
	lm, err := reg.Load("cs")
	assert.NoError(t, err)
	lemma, err := lm.Lemmatize("ženys")
	assert.NoError(t, err)
	assert.Equal(t, "ženya", lemma)

	_, err = reg.Load("fr")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	var lErr *lemmatizer.ModelLoadError
	assert.False(t, errors.As(err, &lErr))

	_, err = reg.Load("sk")
	assert.True(t, errors.As(err, &lErr))
	assert.False(t, errors.Is(err, ErrUnsupportedLanguage))
}

func TestPoolCachesLemmatizers(t *testing.T) {
	pool := NewPool(NewRegistry(createModelsDir(t)))
	lm1, err := pool.Get("en")
	assert.NoError(t, err)
	lm2, err := pool.Get("en")
	assert.NoError(t, err)
	assert.Same(t, lm1, lm2)
	lemma, err := pool.Lemmatize("en", "cats")
	assert.NoError(t, err)
	assert.Equal(t, "cat", lemma)
	_, err = pool.Lemmatize("fr", "chats")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestPoolPreload(t *testing.T) {
	pool := NewPool(NewRegistry(createModelsDir(t)))
	assert.NoError(t, pool.Preload("en", "cs"))
	assert.Error(t, pool.Preload("en", "sk"))
}

func TestPoolReload(t *testing.T) {
	dir := createModelsDir(t)
	pool := NewPool(NewRegistry(dir))
	lm, err := pool.Get("en")
	assert.NoError(t, err)
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "en.bin"), encodeModel(t, "X"), 0644))
	assert.NoError(t, pool.Reload("en"))
	lemma, err := lm.Lemmatize("cats")
	assert.NoError(t, err)
	assert.Equal(t, "catX", lemma)

	assert.NoError(t, os.WriteFile(filepath.Join(dir, "en.bin"), []byte("broken"), 0644))
	assert.Error(t, pool.Reload("en"))
	lemma, err = pool.Lemmatize("en", "cats")
	assert.NoError(t, err)
	assert.Equal(t, "catX", lemma)

	assert.NoError(t, pool.Reload("cs"))
	assert.ErrorIs(t, pool.Reload("fr"), ErrUnsupportedLanguage)
}

func TestPoolConcurrentGet(t *testing.T) {
	pool := NewPool(NewRegistry(createModelsDir(t)))
	var wg sync.WaitGroup
	items := make([]*lemmatizer.Lemmatizer, 8)
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lm, err := pool.Get("cs")
			assert.NoError(t, err)
			items[i] = lm
		}(i)
	}
	wg.Wait()
	for _, lm := range items {
		assert.Same(t, items[0], lm)
	}
}

func TestPoolCachedLanguageNotBlockedByLoading(t *testing.T) {
	pool := NewPool(NewRegistry(createModelsDir(t)))
	_, err := pool.Get("en")
	assert.NoError(t, err)

	loadStarted := make(chan struct{})
	releaseLoad := make(chan struct{})
	pool.load = func(code string) (*lemmatizer.Lemmatizer, error) {
		close(loadStarted)
		<-releaseLoad
		return pool.registry.Load(code)
	}
	loaded := make(chan error, 1)
	go func() {
		_, err := pool.Get("cs")
		loaded <- err
	}()
	<-loadStarted

	answered := make(chan string, 1)
	go func() {
		lemma, err := pool.Lemmatize("en", "cats")
		assert.NoError(t, err)
		answered <- lemma
	}()
	select {
	case lemma := <-answered:
		assert.Equal(t, "cat", lemma)
	case <-time.After(5 * time.Second):
		t.Error("cached language blocked by another language being loaded")
	}

	close(releaseLoad)
	assert.NoError(t, <-loaded)
	lemma, err := pool.Lemmatize("cs", "psys")
	assert.NoError(t, err)
	assert.Equal(t, "psya", lemma)
}

func TestPoolFailedLoadIsRetried(t *testing.T) {
	dir := createModelsDir(t)
	pool := NewPool(NewRegistry(dir))
	_, err := pool.Get("sk")
	assert.Error(t, err)
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "sk.bin"), encodeModel(t, ""), 0644))
	lemma, err := pool.Lemmatize("sk", "cats")
	assert.NoError(t, err)
	assert.Equal(t, "cat", lemma)
}
