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

package main

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/czcorpus/rdrlemm/codec"
	"github.com/czcorpus/rdrlemm/fs"
	"github.com/czcorpus/rdrlemm/lemmatizer"
	"github.com/stretchr/testify/assert"
)

func TestCompileAndLemmatize(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "rules.tsv")
	dst := filepath.Join(dir, "cs.bin")
	rules := "@charset windows-1250\nami\t3\ta\n^koňmi\t5\tkůň\n"
	assert.NoError(t, os.WriteFile(src, []byte(rules), 0644))
	tree, err := compileRules(src, dst)
	assert.NoError(t, err)
	assert.Equal(t, "windows-1250", tree.Charset)

	lm, err := openLemmatizer(dst, "/nonexistent")
	assert.NoError(t, err)
	var out bytes.Buffer
	assert.NoError(t, lemmatizeWords(lm, []string{"ženami", "koňmi"}, nil, &out))
	assert.Equal(t, "ženami\tžena\nkoňmi\tkůň\n", out.String())

	lm, err = openLemmatizer("cs", dir)
	assert.NoError(t, err)
	out.Reset()
	assert.NoError(t, lemmatizeWords(lm, nil, bufio.NewScanner(strings.NewReader("ženami\n\n pes \n")), &out))
	assert.Equal(t, "ženami\tžena\npes\tpes\n", out.String())
}

func TestOpenLemmatizerUnknownLanguage(t *testing.T) {
	_, err := openLemmatizer("xx", t.TempDir())
	assert.Error(t, err)
}

func TestConvertLegacyModel(t *testing.T) {
	dir := t.TempDir()
	blob := []byte{
		0x02, 16, 0, 0, 0, 2,
		0, 0, 0, 0, 0,
		's', 19, 0, 0, 0,
		0, 0, 0,
		0, 1, 0,
	}
	src := filepath.Join(dir, "legacy.lem")
	assert.NoError(t, os.WriteFile(src, append([]byte{byte(len(blob)), 0, 0, 0}, blob...), 0644))
	dst := filepath.Join(dir, "en.bin")
	tree, err := convertModel(src, dst, "iso-8859-2")
	assert.NoError(t, err)
	assert.Equal(t, "iso-8859-2", tree.Charset)

	data, err := os.ReadFile(dst)
	assert.NoError(t, err)
	assert.Equal(t, codec.FormatNative, codec.Sniff(data))
	lm, err := lemmatizer.NewFromFile(dst)
	assert.NoError(t, err)
	info, err := lm.ModelInfo()
	assert.NoError(t, err)
	assert.Equal(t, "iso-8859-2", info.Charset)
	lemma, err := lm.Lemmatize("dogs")
	assert.NoError(t, err)
	assert.Equal(t, "dog", lemma)

	_, err = convertModel(src, dst, "utf-8")
	assert.Error(t, err)
}

func TestNewConfTemplate(t *testing.T) {
	conf := newConf()
	assert.Equal(t, "cs", conf.Vert.Language)
	assert.NoError(t, conf.Vert.DB.Validate())
}

func TestLemmatizeWordsFromFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "rules.tsv")
	dst := filepath.Join(dir, "cs.bin")
	assert.NoError(t, os.WriteFile(src, []byte("ami\t3\ta\n"), 0644))
	_, err := compileRules(src, dst)
	assert.NoError(t, err)
	lm, err := openLemmatizer(dst, dir)
	assert.NoError(t, err)

	words1 := filepath.Join(dir, "words1.txt")
	words2 := filepath.Join(dir, "words2.txt")
	assert.NoError(t, os.WriteFile(words1, []byte("ženami\n"), 0644))
	assert.NoError(t, os.WriteFile(words2, []byte("\nrybami\n"), 0644))
	input, err := fs.NewMultiFileScanner(words1, words2)
	assert.NoError(t, err)
	defer input.Close()
	var out bytes.Buffer
	assert.NoError(t, lemmatizeWords(lm, nil, input, &out))
	assert.Equal(t, "ženami\tžena\nrybami\tryba\n", out.String())
}
