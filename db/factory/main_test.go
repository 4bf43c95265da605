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

package factory

import (
	"testing"

	"github.com/czcorpus/rdrlemm/cnf"
	"github.com/czcorpus/rdrlemm/db"
	"github.com/czcorpus/rdrlemm/db/sqlite"
	"github.com/stretchr/testify/assert"
)

func TestNewDatabaseWriterSQLite(t *testing.T) {
	w, err := NewDatabaseWriter(&cnf.VertConf{
		CorpusID: "syn",
		DB:       db.Conf{Type: db.TypeSQLite, Name: "/tmp/syn.db"},
	})
	assert.NoError(t, err)
	sw, ok := w.(*sqlite.Writer)
	assert.True(t, ok)
	assert.Equal(t, "/tmp/syn.db", sw.Path)
	assert.Equal(t, "syn", sw.CorpusID)
}

func TestNewDatabaseWriterUnknown(t *testing.T) {
	w, err := NewDatabaseWriter(&cnf.VertConf{})
	assert.NoError(t, err)
	assert.IsType(t, &NullWriter{}, w)
	assert.Error(t, w.Initialize(false))
	assert.False(t, w.DatabaseExists())
}
