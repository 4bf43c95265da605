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

package lemmatizer

import (
	"errors"
	"fmt"
)

// ErrNoModelLoaded is returned when lemmatizing before any
// successful model load.
var ErrNoModelLoaded = errors.New("cannot lemmatize: no model loaded")

// ModelLoadError wraps any problem encountered while loading
// a model (file access, malformed data, unsupported version,
// unknown charset). Use errors.Is/errors.As to inspect the cause.
type ModelLoadError struct {
	Path string
	Err  error
}

func (err *ModelLoadError) Error() string {
	if err.Path == "" {
		return fmt.Sprintf("failed to load model: %s", err.Err)
	}
	return fmt.Sprintf("failed to load model %s: %s", err.Path, err.Err)
}

func (err *ModelLoadError) Unwrap() error {
	return err.Err
}
