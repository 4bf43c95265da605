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

package codec

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedModel     = errors.New("malformed model")
	ErrUnsupportedVersion = errors.New("unsupported model version")
)

// MalformedModelError reports a byte stream failing structural
// validation. Offset is the position where the problem was detected.
type MalformedModelError struct {
	Offset int
	Reason string
}

func (err *MalformedModelError) Error() string {
	return fmt.Sprintf("malformed model (offset %d): %s", err.Offset, err.Reason)
}

func (err *MalformedModelError) Unwrap() error {
	return ErrMalformedModel
}

func malformed(offset int, reason string, args ...any) error {
	return &MalformedModelError{Offset: offset, Reason: fmt.Sprintf(reason, args...)}
}

// -------

type UnsupportedVersionError struct {
	Version   uint8
	Supported uint8
}

func (err *UnsupportedVersionError) Error() string {
	return fmt.Sprintf(
		"unsupported model version %d (max. supported version is %d)", err.Version, err.Supported)
}

func (err *UnsupportedVersionError) Unwrap() error {
	return ErrUnsupportedVersion
}
