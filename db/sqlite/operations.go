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
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/czcorpus/rdrlemm/db"

	_ "github.com/mattn/go-sqlite3" // load the driver
)

// openDatabase opens a sqlite3 database specified by
// its filesystem path.
func openDatabase(dbPath string) (*sql.DB, error) {
	database, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open lemma db: %w", err)
	}
	return database, nil
}

func joinArgs(args []string) string {
	return strings.Join(args, ", ")
}

// prepareUpsert creates a prepared statement inserting
// a (word, lemma, cnt, arf) record. Existing pairs get their
// count and ARF increased.
func prepareUpsert(tx *sql.Tx, table string) (*sql.Stmt, error) {
	ans, err := tx.Prepare(
		fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (?, ?, ?, ?) "+
				"ON CONFLICT(word, lemma) DO UPDATE SET cnt = cnt + excluded.cnt, "+
				"arf = arf + excluded.arf",
			table, joinArgs(db.LemmaColumns),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare INSERT: %w", err)
	}
	return ans, nil
}

// dropExisting drops the lemma table.
// It is safe to call this even if the table does not exist.
func dropExisting(database *sql.DB, table string) error {
	log.Info().Str("table", table).Msg("Attempting to drop possible existing table")
	_, err := database.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table))
	if err != nil {
		return fmt.Errorf("failed to drop table '%s': %w", table, err)
	}
	return nil
}

// createSchema creates the lemma table and its lemma index
// in case they do not exist yet
func createSchema(database *sql.DB, table string) error {
	log.Info().Str("table", table).Msg("Attempting to create table")
	_, err := database.Exec(fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (word TEXT NOT NULL, lemma TEXT NOT NULL, "+
			"cnt INTEGER NOT NULL DEFAULT 0, arf REAL, PRIMARY KEY (word, lemma))",
		table,
	))
	if err != nil {
		return fmt.Errorf("failed to create table '%s': %w", table, err)
	}
	_, err = database.Exec(fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s_lemma_idx ON %s(lemma)", table, table))
	if err != nil {
		return fmt.Errorf("failed to create index on %s(lemma): %w", table, err)
	}
	return nil
}
