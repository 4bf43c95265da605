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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfValidate(t *testing.T) {
	c := Conf{Type: TypeSQLite, Name: "/tmp/x.db"}
	assert.NoError(t, c.Validate())
	c = Conf{Type: TypeSQLite}
	assert.Error(t, c.Validate())
	c = Conf{Type: TypeMySQL, Name: "corpora"}
	assert.Error(t, c.Validate())
	c = Conf{Type: TypeMySQL, Name: "corpora", Host: "localhost:3306"}
	assert.NoError(t, c.Validate())
	c = Conf{Type: "postgres", Name: "corpora"}
	assert.Error(t, c.Validate())
}

func TestValidCorpusID(t *testing.T) {
	assert.True(t, ValidCorpusID("syn2020"))
	assert.True(t, ValidCorpusID("intercorp_v13_en"))
	assert.False(t, ValidCorpusID(""))
	assert.False(t, ValidCorpusID("syn; DROP TABLE x"))
	assert.False(t, ValidCorpusID("a-b"))
}

func TestLemmaTableName(t *testing.T) {
	assert.Equal(t, "syn2020_lemmas", LemmaTableName("syn2020"))
}
