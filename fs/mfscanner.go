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

package fs

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// StdinPath is a special path MultiFileScanner
// reads from the standard input
const StdinPath = "-"

// MultiFileScanner wraps multiple files and provides a unified
// line scanning interface
type MultiFileScanner struct {
	filePaths    []string
	currentIndex int
	currentFile  io.ReadCloser
	scanner      *bufio.Scanner
	stdin        io.Reader
	err          error
}

// NewMultiFileScanner creates a scanner that reads through multiple files sequentially
func NewMultiFileScanner(filePaths ...string) (*MultiFileScanner, error) {
	if len(filePaths) == 0 {
		return nil, fmt.Errorf("at least one file path required")
	}

	mfs := &MultiFileScanner{
		filePaths:    filePaths,
		currentIndex: -1,
		stdin:        os.Stdin,
	}

	if !mfs.openNextFile() {
		return nil, mfs.err
	}

	return mfs, nil
}

// CurrentFile returns a path of the file being read
func (mfs *MultiFileScanner) CurrentFile() string {
	if mfs.currentIndex >= 0 && mfs.currentIndex < len(mfs.filePaths) {
		return mfs.filePaths[mfs.currentIndex]
	}
	return ""
}

// openNextFile opens the next file in the sequence
func (mfs *MultiFileScanner) openNextFile() bool {
	if mfs.currentFile != nil {
		mfs.currentFile.Close()
		mfs.currentFile = nil
	}
	mfs.scanner = nil
	mfs.currentIndex++
	if mfs.currentIndex >= len(mfs.filePaths) {
		return false
	}

	path := mfs.filePaths[mfs.currentIndex]
	if path == StdinPath {
		mfs.scanner = bufio.NewScanner(mfs.stdin)
		return true
	}
	file, err := os.Open(path)
	if err != nil {
		mfs.err = fmt.Errorf("failed to open %s: %w", path, err)
		return false
	}

	mfs.currentFile = file
	mfs.scanner = bufio.NewScanner(file)
	return true
}

// Scan advances to the next line, returning false when finished or on error
func (mfs *MultiFileScanner) Scan() bool {
	for mfs.scanner != nil {
		if mfs.scanner.Scan() {
			return true
		}
		if err := mfs.scanner.Err(); err != nil {
			mfs.err = fmt.Errorf("failed to read %s: %w", mfs.CurrentFile(), err)
			return false
		}
		if !mfs.openNextFile() {
			return false
		}
	}
	return false
}

// Text returns the current line
func (mfs *MultiFileScanner) Text() string {
	if mfs.scanner == nil {
		return ""
	}
	return mfs.scanner.Text()
}

// Err returns the first error encountered during scanning
func (mfs *MultiFileScanner) Err() error {
	return mfs.err
}

// Close closes any open file handles (stdin is left open)
func (mfs *MultiFileScanner) Close() error {
	mfs.scanner = nil
	if mfs.currentFile != nil {
		err := mfs.currentFile.Close()
		mfs.currentFile = nil
		return err
	}
	return nil
}
