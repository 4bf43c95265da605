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

package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/czcorpus/rdrlemm/db"
	"github.com/czcorpus/rdrlemm/fs"
)

type Writer struct {
	database       *sql.DB
	tx             *sql.Tx
	Path           string
	CorpusID       string
	PreconfQueries []string
}

func (w *Writer) table() string {
	return db.LemmaTableName(w.CorpusID)
}

func (w *Writer) DatabaseExists() bool {
	return fs.IsFile(w.Path)
}

func (w *Writer) Initialize(appendMode bool) error {
	if !db.ValidCorpusID(w.CorpusID) {
		return fmt.Errorf("invalid corpus id %q", w.CorpusID)
	}
	var err error
	dbExisted := fs.IsFile(w.Path)
	w.database, err = openDatabase(w.Path)
	if err != nil {
		return err
	}
	log.Info().Str("path", w.Path).Msg("Opened sqlite3 database")

	if !appendMode && dbExisted {
		log.
			Warn().
			Str("database", w.Path).
			Str("table", w.table()).
			Msg("The table may already exist. Existing data will be deleted.")
		if err := dropExisting(w.database, w.table()); err != nil {
			return err
		}
	}
	if err := createSchema(w.database, w.table()); err != nil {
		return err
	}

	var dbConf []string
	if len(w.PreconfQueries) > 0 {
		dbConf = w.PreconfQueries

	} else {
		log.Warn().Msg("No pre-configuration queries found, using default")
		dbConf = []string{
			"PRAGMA synchronous = OFF",
			"PRAGMA journal_mode = MEMORY",
		}
	}
	for _, cnf := range dbConf {
		log.Info().Str("value", cnf).Msg("Applying preconfiguration")
		if _, err := w.database.Exec(cnf); err != nil {
			log.Warn().Err(err).Str("value", cnf).Msg("Failed to apply preconfiguration")
		}
	}
	w.tx, err = w.database.Begin()
	return err
}

func (w *Writer) PrepareInsert() (db.InsertOperation, error) {
	if w.tx == nil {
		return nil, fmt.Errorf("cannot prepare insert - no transaction active")
	}
	stmt, err := prepareUpsert(w.tx, w.table())
	if err != nil {
		return nil, err
	}
	return &db.Insert{Stmt: stmt}, nil
}

func (w *Writer) Commit() error {
	return w.tx.Commit()
}

func (w *Writer) Rollback() error {
	return w.tx.Rollback()
}

func (w *Writer) Close() {
	if w.database == nil {
		return
	}
	err := w.database.Close()
	if err != nil {
		log.Warn().Err(err).Msg("Error closing database")
	}
}
