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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/czcorpus/rdrlemm/alphabet"
	"github.com/czcorpus/rdrlemm/cnf"
	"github.com/czcorpus/rdrlemm/codec"
	"github.com/czcorpus/rdrlemm/db"
	"github.com/czcorpus/rdrlemm/fs"
	"github.com/czcorpus/rdrlemm/langs"
	"github.com/czcorpus/rdrlemm/lemmatizer"
	"github.com/czcorpus/rdrlemm/rdr"
	"github.com/czcorpus/rdrlemm/rulefile"
)

// openLemmatizer treats the argument as a path to a model file
// in case such a file exists, otherwise as a language code.
func openLemmatizer(langOrModel, modelsDir string) (*lemmatizer.Lemmatizer, error) {
	if fs.IsFile(langOrModel) {
		return lemmatizer.NewFromFile(langOrModel)
	}
	return langs.NewRegistry(modelsDir).Load(langOrModel)
}

type lineScanner interface {
	Scan() bool
	Text() string
	Err() error
}

// lemmatizeWords writes "word TAB lemma" lines for all the words
// provided either as arguments or (if none) read from the input.
func lemmatizeWords(lm *lemmatizer.Lemmatizer, words []string, input lineScanner, output io.Writer) error {
	out := bufio.NewWriter(output)
	defer out.Flush()
	write := func(word string) error {
		lemma, err := lm.Lemmatize(word)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\t%s\n", word, lemma)
		return err
	}
	if len(words) > 0 {
		for _, w := range words {
			if err := write(w); err != nil {
				return err
			}
		}
		return nil
	}
	for input.Scan() {
		word := strings.TrimSpace(input.Text())
		if word == "" {
			continue
		}
		if err := write(word); err != nil {
			return err
		}
	}
	return input.Err()
}

func writeModel(tree *rdr.Tree, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := codec.Write(w, tree); err != nil {
		f.Close()
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write model: %w", err)
	}
	return f.Close()
}

// convertModel reads a model in any supported format and stores
// it in the native format. A non-empty charset replaces the one
// of the source model.
func convertModel(srcPath, dstPath, charset string) (*rdr.Tree, error) {
	lm, err := lemmatizer.NewFromFile(srcPath)
	if err != nil {
		return nil, err
	}
	tree, err := lm.Tree()
	if err != nil {
		return nil, err
	}
	if charset != "" {
		if _, err := alphabet.Resolve(charset); err != nil {
			return nil, err
		}
		converted := *tree
		converted.Charset = charset
		tree = &converted
	}
	return tree, writeModel(tree, dstPath)
}

func compileRules(srcPath, dstPath string) (*rdr.Tree, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rules: %w", err)
	}
	defer f.Close()
	tree, err := rulefile.Parse(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to compile rules: %w", err)
	}
	return tree, writeModel(tree, dstPath)
}

func printJSON(v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func newConf() *cnf.Conf {
	conf := &cnf.Conf{
		ModelsDir:       "/var/opt/rdrlemm/models",
		DefaultLanguage: "cs",
		LogLevel:        cnf.DefaultLogLevel,
		Server: cnf.ServerConf{
			ListenAddress:      cnf.DefaultListenAddress,
			CORSAllowedOrigins: []string{"*"},
			PreloadLanguages:   []string{"cs", "en"},
		},
		Vert: cnf.VertConf{
			CorpusID:     "syn2020",
			VerticalFile: "/var/opt/corpora/vertical/syn2020",
			Encoding:     "utf-8",
			Language:     "cs",
			WordModders:  []string{"trimPunct", "toLower"},
			DB: db.Conf{
				Type:           db.TypeSQLite,
				Name:           "/var/opt/corpora/lemmas/syn2020.db",
				PreconfQueries: []string{},
			},
		},
	}
	return conf
}
