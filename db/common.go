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

package db

import (
	"database/sql"
	"fmt"
	"regexp"
)

const (
	TypeSQLite = "sqlite"
	TypeMySQL  = "mysql"

	lemmaTableSuffix = "_lemmas"
)

var (
	corpusIDRegexp = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

	// LemmaColumns are columns an InsertOperation expects
	// values for (in the same order)
	LemmaColumns = []string{"word", "lemma", "cnt", "arf"}
)

type Conf struct {
	Type           string   `json:"type" yaml:"type"`
	Name           string   `json:"name" yaml:"name"`
	Host           string   `json:"host" yaml:"host"`
	User           string   `json:"user" yaml:"user"`
	Password       string   `json:"password" yaml:"password"`
	PreconfQueries []string `json:"preconfSettings" yaml:"preconfSettings"`
}

func (c *Conf) Validate() error {
	switch c.Type {
	case TypeSQLite:
		if c.Name == "" {
			return fmt.Errorf("missing path to the sqlite database (name)")
		}
	case TypeMySQL:
		if c.Name == "" || c.Host == "" {
			return fmt.Errorf("mysql database needs both name and host")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

// ValidCorpusID tests whether the id can be safely
// used as a part of a table name.
func ValidCorpusID(corpusID string) bool {
	return corpusIDRegexp.MatchString(corpusID)
}

// LemmaTableName returns a name of the table storing
// word-lemma frequencies of a corpus.
func LemmaTableName(corpusID string) string {
	return corpusID + lemmaTableSuffix
}

// Writer stores (word, lemma, count, ARF) records. Inserting an existing
// (word, lemma) pair increases its count and ARF. A NULL ARF means
// the value has not been calculated.
type Writer interface {
	DatabaseExists() bool
	Initialize(appendMode bool) error
	PrepareInsert() (InsertOperation, error)
	Commit() error
	Rollback() error
	Close()
}

type InsertOperation interface {
	Exec(values ...any) error
}

type Insert struct {
	Stmt *sql.Stmt
}

func (ins *Insert) Exec(values ...any) error {
	_, err := ins.Stmt.Exec(values...)
	return err
}
