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

package mysql

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/czcorpus/rdrlemm/cnf"
	"github.com/czcorpus/rdrlemm/db"

	"github.com/go-sql-driver/mysql"
)

type Writer struct {
	database *sql.DB
	tx       *sql.Tx
	dbName   string
	corpusID string
}

func (w *Writer) table() string {
	return db.LemmaTableName(w.corpusID)
}

func (w *Writer) DatabaseExists() bool {
	row := w.database.QueryRow(
		`SELECT COUNT(*) > 0 FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?`,
		w.dbName, w.table(),
	)
	var ans bool
	err := row.Scan(&ans)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to test data storage existence")
		return false
	}
	return ans
}

func (w *Writer) Initialize(appendMode bool) error {
	if !db.ValidCorpusID(w.corpusID) {
		return fmt.Errorf("invalid corpus id %q", w.corpusID)
	}
	var err error
	if !appendMode && w.DatabaseExists() {
		log.
			Warn().
			Str("storageName", w.dbName+"/"+w.table()).
			Msg("The data storage already exists. Existing data will be deleted.")
		if _, err := w.database.Exec(fmt.Sprintf("DROP TABLE IF EXISTS `%s`", w.table())); err != nil {
			return fmt.Errorf("failed to drop table '%s': %w", w.table(), err)
		}
	}
	_, err = w.database.Exec(fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS `%s` ("+
			"word VARCHAR(255) NOT NULL, "+
			"lemma VARCHAR(255) NOT NULL, "+
			"cnt BIGINT NOT NULL DEFAULT 0, "+
			"arf DOUBLE NULL, "+
			"PRIMARY KEY (word, lemma), "+
			"KEY lemma_idx (lemma)"+
			") COLLATE utf8mb4_bin",
		w.table(),
	))
	if err != nil {
		return fmt.Errorf("failed to create table '%s': %w", w.table(), err)
	}
	w.tx, err = w.database.Begin()
	return err
}

func (w *Writer) PrepareInsert() (db.InsertOperation, error) {
	if w.tx == nil {
		return nil, fmt.Errorf("cannot prepare insert into %s - no transaction active", w.table())
	}
	stmt, err := w.tx.Prepare(
		fmt.Sprintf(
			"INSERT INTO `%s` (word, lemma, cnt, arf) VALUES (?, ?, ?, ?) "+
				"ON DUPLICATE KEY UPDATE cnt = cnt + VALUES(cnt), arf = arf + VALUES(arf)",
			w.table(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare INSERT into %s: %w", w.table(), err)
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
	err := w.database.Close()
	if err != nil {
		log.Warn().Err(err).Msg("error closing database")
	}
}

// DSN creates a connection string for the configured database
func DSN(conf *db.Conf) string {
	mconf := mysql.NewConfig()
	mconf.Net = "tcp"
	mconf.Addr = conf.Host
	mconf.User = conf.User
	mconf.Passwd = conf.Password
	mconf.DBName = conf.Name
	mconf.ParseTime = true
	mconf.Loc = time.Local
	return mconf.FormatDSN()
}

func NewWriter(conf *cnf.VertConf) (*Writer, error) {
	database, err := sql.Open("mysql", DSN(&conf.DB))
	if err != nil {
		return nil, err
	}
	return &Writer{
		database: database,
		dbName:   conf.DB.Name,
		corpusID: conf.CorpusID,
	}, nil
}
