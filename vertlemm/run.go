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

package vertlemm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tomachalek/vertigo/v6"

	"github.com/czcorpus/rdrlemm/cnf"
	"github.com/czcorpus/rdrlemm/db"
	"github.com/czcorpus/rdrlemm/fs"
	"github.com/czcorpus/rdrlemm/langs"
	"github.com/czcorpus/rdrlemm/lemmatizer"
	"github.com/czcorpus/rdrlemm/ptcount/modders"
)

// determineLineReportingStep
// note: the numbers 0.02, 20 are just rough empirical values to determine
// number of lines based on "average" CNC corpus
func determineLineReportingStep(filePath string) int {
	size := fs.FileSize(filePath)
	tmp := float64(size) * 0.02
	if strings.HasSuffix(filePath, ".gz") || strings.HasSuffix(filePath, ".tgz") {
		tmp *= 20
	}
	step := 100
	for ; step < 1000000000; step *= 10 {
		if tmp/float64(step) < 10 {
			break
		}
	}
	return step
}

// CollectVerticals expands the configured paths into a list of
// files to process. Directories are replaced by their files,
// pipe commands (starting with "|") are passed as they are.
func CollectVerticals(paths []string) ([]string, error) {
	var ans []string
	for _, path := range paths {
		if path == "" {
			log.Warn().Msg("empty path found in list of vertical files to process, skipping")
			continue
		}
		if fs.IsFile(path) || strings.HasPrefix(path, "|") {
			ans = append(ans, path)

		} else if fs.IsDir(path) {
			files, err := fs.ListFilesInDir(path)
			if err != nil {
				return nil, fmt.Errorf("failed to collect verticals: %w", err)
			}
			for _, f := range files {
				if fs.IsFile(f) {
					ans = append(ans, f)
				}
			}

		} else {
			return nil, fmt.Errorf("vertical file %s not found", path)
		}
	}
	if len(ans) == 0 {
		return nil, fmt.Errorf("no valid vertical files found to process")
	}
	return ans, nil
}

func parseVerticals(ctx context.Context, files []string, encoding string, proc vertigo.LineProcessor) error {
	for _, verticalFile := range files {
		log.Info().Str("vertical", verticalFile).Msg("Processing vertical")
		parserConf := &vertigo.ParserConf{
			InputFilePath:         verticalFile,
			StructAttrAccumulator: "nil",
			Encoding:              encoding,
			LogProgressEachNth:    determineLineReportingStep(verticalFile),
		}
		if err := vertigo.ParseVerticalFile(ctx, parserConf, proc); err != nil {
			return fmt.Errorf("failed to process vertical file %s: %w", verticalFile, err)
		}
	}
	return nil
}

// LoadLemmatizer loads a model either from an explicit file
// or from the models directory based on the configured language.
func LoadLemmatizer(conf *cnf.Conf) (*lemmatizer.Lemmatizer, error) {
	if conf.Vert.ModelFile != "" {
		return lemmatizer.NewFromFile(conf.Vert.ModelFile)
	}
	return langs.NewRegistry(conf.ModelsDir).Load(conf.Vert.Language)
}

// Run lemmatizes all the words of the configured vertical files
// and stores the results using the provided writer.
func Run(ctx context.Context, conf *cnf.VertConf, lemm Lemmatizer, writer db.Writer) (*LemmaCounter, error) {
	if conf.AppendData && !writer.DatabaseExists() {
		return nil, fmt.Errorf("append flag is set but the database %s does not exist", conf.DB.Name)
	}
	files, err := CollectVerticals(conf.GetDefinedVerticals())
	if err != nil {
		return nil, err
	}
	modder, err := modders.NewModderChainFromNames(conf.WordModders)
	if err != nil {
		return nil, fmt.Errorf("failed to configure word modders: %w", err)
	}

	proc := NewLemmaCounter(ctx, lemm, conf.WordColumn, modder)
	if err := parseVerticals(ctx, files, conf.Encoding, proc); err != nil {
		return nil, err
	}
	log.Info().
		Int("numFiles", len(files)).
		Int("numTokens", proc.NumTokens()).
		Int("numWordForms", proc.NumWordForms()).
		Msg("vertical files processed")

	if conf.CalcARF {
		log.Info().Msg("calculating ARF (2nd pass)")
		calc := proc.ARFCalculator()
		if err := parseVerticals(ctx, files, conf.Encoding, calc); err != nil {
			return nil, fmt.Errorf("failed to calculate ARF: %w", err)
		}
		proc.SetARF(calc.Finalize())
	}

	if err := writer.Initialize(conf.AppendData); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	defer writer.Close()
	if err := proc.StoreToDatabase(writer); err != nil {
		if err2 := writer.Rollback(); err2 != nil {
			log.Error().Err(err2).Msg("failed to rollback")
		}
		return nil, err
	}
	if err := writer.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit lemmas: %w", err)
	}
	return proc, nil
}
