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

package cnf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/czcorpus/rdrlemm/db"
	"github.com/czcorpus/rdrlemm/fs"
	"github.com/czcorpus/rdrlemm/ptcount/modders"
)

const (
	DefaultListenAddress = "127.0.0.1:8090"
	DefaultLogLevel      = "info"
	DefaultWordColumn    = 0
)

// ServerConf configures the HTTP API
type ServerConf struct {
	ListenAddress      string   `json:"listenAddress" yaml:"listenAddress"`
	CORSAllowedOrigins []string `json:"corsAllowedOrigins" yaml:"corsAllowedOrigins"`

	// PreloadLanguages lists languages loaded at startup,
	// others are loaded on first use
	PreloadLanguages []string `json:"preloadLanguages" yaml:"preloadLanguages"`
}

// VertConf configures lemmatization of a corpus vertical file
// and storing of the resulting word-lemma frequencies.
type VertConf struct {
	CorpusID     string `json:"corpusId" yaml:"corpusId"`
	VerticalFile string `json:"verticalFile" yaml:"verticalFile"`

	// VerticalFiles allows processing of multiple files into a single
	// table. Items can be also directories (all their files are used)
	// and pipe commands starting with "|".
	VerticalFiles []string `json:"verticalFiles" yaml:"verticalFiles"`

	Encoding string `json:"encoding" yaml:"encoding"`
	Language string `json:"language" yaml:"language"`

	// ModelFile can be used instead of Language to specify
	// a model directly
	ModelFile string `json:"modelFile" yaml:"modelFile"`

	// WordColumn is a zero-based index of the positional
	// attribute containing word forms
	WordColumn int `json:"wordColumn" yaml:"wordColumn"`

	// WordModders is a list of functions normalizing word forms
	// before they are lemmatized and counted (e.g. "toLower", "trimPunct").
	// They are applied in the order of definition.
	WordModders []string `json:"wordModders" yaml:"wordModders"`

	// CalcARF enables calculation of average reduced frequency
	// which requires the vertical files to be read twice.
	CalcARF bool `json:"calcARF" yaml:"calcARF"`

	AppendData bool    `json:"appendData" yaml:"appendData"`
	DB         db.Conf `json:"db" yaml:"db"`
}

// GetDefinedVerticals returns both VerticalFile and VerticalFiles
// as a single list.
func (vc *VertConf) GetDefinedVerticals() []string {
	ans := make([]string, 0, len(vc.VerticalFiles)+1)
	if vc.VerticalFile != "" {
		ans = append(ans, vc.VerticalFile)
	}
	return append(ans, vc.VerticalFiles...)
}

func (vc *VertConf) IsConfigured() bool {
	return len(vc.GetDefinedVerticals()) > 0
}

// Conf is the main configuration shared by the lemm tools
type Conf struct {
	ModelsDir       string     `json:"modelsDir" yaml:"modelsDir"`
	DefaultLanguage string     `json:"defaultLanguage" yaml:"defaultLanguage"`
	LogLevel        string     `json:"logLevel" yaml:"logLevel"`
	Server          ServerConf `json:"server" yaml:"server"`
	Vert            VertConf   `json:"vert" yaml:"vert"`
}

func (c *Conf) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = DefaultListenAddress
	}
	if c.Vert.Encoding == "" {
		c.Vert.Encoding = "utf-8"
	}
	if c.Vert.Language == "" && c.Vert.ModelFile == "" {
		c.Vert.Language = c.DefaultLanguage
	}
}

func (c *Conf) Validate() error {
	if c.ModelsDir != "" && !fs.IsDir(c.ModelsDir) {
		return fmt.Errorf("modelsDir %s is not a directory", c.ModelsDir)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid logLevel: %w", err)
	}
	if c.Vert.IsConfigured() {
		if c.Vert.WordColumn < 0 {
			return fmt.Errorf("vert.wordColumn must be non-negative")
		}
		if c.Vert.Language == "" && c.Vert.ModelFile == "" {
			return fmt.Errorf("vert needs either language or modelFile")
		}
		for _, m := range c.Vert.WordModders {
			if _, err := modders.ModderFactory(m); err != nil {
				return fmt.Errorf("invalid vert.wordModders: %w", err)
			}
		}
		if !db.ValidCorpusID(c.Vert.CorpusID) {
			return fmt.Errorf("invalid vert.corpusId %q (letters, digits and underscores only)", c.Vert.CorpusID)
		}
		if err := c.Vert.DB.Validate(); err != nil {
			return fmt.Errorf("invalid vert.db: %w", err)
		}
	}
	return nil
}

// ZerologLevel returns a parsed log level (info for invalid values)
func (c *Conf) ZerologLevel() zerolog.Level {
	lev, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.InfoLevel
	}
	return lev
}

// LoadConf loads a JSON configuration file. Files with
// the .yaml or .yml extension are read as YAML.
func LoadConf(confPath string) (*Conf, error) {
	rawData, err := os.ReadFile(confPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	var conf Conf
	switch strings.ToLower(filepath.Ext(confPath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(rawData, &conf)
	default:
		err = sonic.Unmarshal(rawData, &conf)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", confPath, err)
	}
	conf.ApplyDefaults()
	return &conf, nil
}
