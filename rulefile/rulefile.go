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

// Package rulefile compiles a plain text rule listing into
// a decision tree.
//
// The listing is a tab separated file with one rule per line:
//
//	<suffix> TAB <strip> TAB <append>
//
// An empty suffix defines the root (fallback) rule, a suffix starting
// with '^' defines a whole-word exception. Lines starting with '#' are
// comments, a line "@charset <name>" selects the model charset (it must
// precede all the rules). Strip counts are in characters of the charset
// (bytes if no charset is defined).
package rulefile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/czcorpus/rdrlemm/alphabet"
	"github.com/czcorpus/rdrlemm/rdr"
)

func parseLine(line string, lineNum int) (suffix string, rule rdr.Rule, err error) {
	items := strings.Split(line, "\t")
	if len(items) != 3 {
		err = fmt.Errorf("line %d: expected 3 tab separated columns, found %d", lineNum, len(items))
		return
	}
	suffix = items[0]
	rule.Strip, err = strconv.Atoi(items[1])
	if err != nil {
		err = fmt.Errorf("line %d: invalid strip count: %w", lineNum, err)
		return
	}
	if rule.Strip < 0 {
		err = fmt.Errorf("line %d: negative strip count", lineNum)
		return
	}
	rule.Append = items[2]
	return
}

// Parse reads the rule listing and builds a tree out of it.
func Parse(r io.Reader) (*rdr.Tree, error) {
	var builder *rdr.Builder
	var alpha *alphabet.Alphabet
	sc := bufio.NewScanner(r)
	lineNum := 0
	var hasRoot bool
	for sc.Scan() {
		lineNum++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "@charset") {
			if builder != nil {
				return nil, fmt.Errorf("line %d: charset must be defined before the rules", lineNum)
			}
			var err error
			name := strings.TrimSpace(strings.TrimPrefix(line, "@charset"))
			alpha, err = alphabet.Resolve(name)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			builder = rdr.NewBuilder(alpha.Name())
			continue
		}
		if builder == nil {
			alpha, _ = alphabet.Resolve("")
			builder = rdr.NewBuilder("")
		}
		suffix, rule, err := parseLine(line, lineNum)
		if err != nil {
			return nil, err
		}
		encAppend, err := alpha.Encode(rule.Append)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		rule.Append = string(encAppend)
		wholeWord := strings.HasPrefix(suffix, "^")
		encSuffix, err := alpha.Encode(strings.TrimPrefix(suffix, "^"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		switch {
		case wholeWord:
			err = builder.AddWholeWord(encSuffix, rule)
		case len(encSuffix) == 0:
			err = builder.SetRoot(rule)
			hasRoot = true
		default:
			err = builder.Add(encSuffix, &rule, true)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	if builder == nil {
		return nil, fmt.Errorf("no rules found")
	}
	if !hasRoot {
		builder.SetRoot(rdr.Rule{})
	}
	return builder.Build()
}
