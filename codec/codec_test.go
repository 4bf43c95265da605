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
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/czcorpus/rdrlemm/rdr"
	"github.com/stretchr/testify/assert"
)

// minimalModel is a root with an identity rule and
// a single child "s" stripping one character
func minimalModel() []byte {
	return []byte{
		'R', 'D', 'R', 'L', 1, 0,
		2, 0, 0, 0,
		0, flagRule | flagStop, 0, 0, 1, 0,
		's', flagRule | flagStop, 1, 0, 0, 0,
	}
}

func buildTree(t *testing.T, charset string) *rdr.Tree {
	b := rdr.NewBuilder(charset)
	assert.NoError(t, b.SetRoot(rdr.Rule{}))
	assert.NoError(t, b.AddRule("s", rdr.Rule{Strip: 1}))
	assert.NoError(t, b.AddRule("ies", rdr.Rule{Strip: 3, Append: "y"}))
	assert.NoError(t, b.AddRule("ss", rdr.Rule{}))
	assert.NoError(t, b.Add([]byte("us"), &rdr.Rule{Strip: 2, Append: "i"}, false))
	assert.NoError(t, b.AddWholeWordRule("was", rdr.Rule{Strip: 3, Append: "be"}))
	tree, err := b.Build()
	assert.NoError(t, err)
	return tree
}

func TestDecodeMinimal(t *testing.T) {
	tree, err := Decode(minimalModel())
	assert.NoError(t, err)
	assert.Equal(t, uint8(1), tree.Version)
	assert.Equal(t, "", tree.Charset)
	assert.Len(t, tree.Nodes, 2)
	assert.Equal(t, "cat", string(tree.Lemmatize([]byte("cats"))))
	assert.Equal(t, "dog", string(tree.Lemmatize([]byte("dog"))))
}

func TestEncodeMinimal(t *testing.T) {
	b := rdr.NewBuilder("")
	assert.NoError(t, b.SetRoot(rdr.Rule{}))
	assert.NoError(t, b.AddRule("s", rdr.Rule{Strip: 1}))
	tree, err := b.Build()
	assert.NoError(t, err)
	data, err := Encode(tree)
	assert.NoError(t, err)
	assert.Equal(t, minimalModel(), data)
}

func TestRoundTrip(t *testing.T) {
	tree := buildTree(t, "windows-1250")
	data, err := Encode(tree)
	assert.NoError(t, err)
	decoded, err := Decode(data)
	assert.NoError(t, err)
	assert.Equal(t, Version, decoded.Version)
	assert.Equal(t, tree.Charset, decoded.Charset)
	assert.Equal(t, tree.Nodes, decoded.Nodes)
	for _, w := range []string{"cats", "flies", "glass", "us", "bus", "was", "swas", ""} {
		assert.Equal(t, tree.Lemmatize([]byte(w)), decoded.Lemmatize([]byte(w)), "word %q", w)
	}
}

func TestWriteEqualsEncode(t *testing.T) {
	tree := buildTree(t, "")
	data, err := Encode(tree)
	assert.NoError(t, err)
	var buff bytes.Buffer
	assert.NoError(t, Write(&buff, tree))
	assert.Equal(t, data, buff.Bytes())
}

func TestDecodeEveryTruncation(t *testing.T) {
	data, err := Encode(buildTree(t, "iso-8859-2"))
	assert.NoError(t, err)
	for i := 0; i < len(data); i++ {
		_, err := Decode(data[:i])
		assert.ErrorIs(t, err, ErrMalformedModel, "prefix length %d", i)
	}
}

func TestDecodeTruncatedChildCount(t *testing.T) {
	data := minimalModel()
	_, err := Decode(data[:len(data)-1])
	var mErr *MalformedModelError
	assert.True(t, errors.As(err, &mErr))
	assert.Equal(t, len(data)-2, mErr.Offset)
	assert.Contains(t, mErr.Reason, "child count")
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	data := minimalModel()
	data[4] = Version + 1
	_, err := Decode(data)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	var vErr *UnsupportedVersionError
	assert.True(t, errors.As(err, &vErr))
	assert.Equal(t, Version+1, vErr.Version)
	assert.False(t, errors.Is(err, ErrMalformedModel))
}

func TestDecodeVersionZero(t *testing.T) {
	data := minimalModel()
	data[4] = 0
	_, err := Decode(data)
	assert.ErrorIs(t, err, ErrMalformedModel)
}

func TestDecodeBadMagic(t *testing.T) {
	data := minimalModel()
	data[0] = 'X'
	_, err := Decode(data)
	assert.ErrorIs(t, err, ErrMalformedModel)
}

func TestDecodeTrailingBytes(t *testing.T) {
	data := append(minimalModel(), 0)
	_, err := Decode(data)
	assert.ErrorIs(t, err, ErrMalformedModel)
}

func TestDecodeHugeNodeCount(t *testing.T) {
	data := minimalModel()
	copy(data[6:10], []byte{0xff, 0xff, 0xff, 0xff})
	_, err := Decode(data)
	assert.ErrorIs(t, err, ErrMalformedModel)
}

func TestDecodeHugeChildCount(t *testing.T) {
	data := minimalModel()
	data[14] = 0xff
	data[15] = 0xff
	_, err := Decode(data)
	assert.ErrorIs(t, err, ErrMalformedModel)
}

func TestDecodeNodeCountMismatch(t *testing.T) {
	data := minimalModel()
	data[6] = 3
	data = append(data, 0, 0, 0, 0)
	_, err := Decode(data)
	assert.ErrorIs(t, err, ErrMalformedModel)
}

func TestDecodeUnorderedChildren(t *testing.T) {
	data := []byte{
		'R', 'D', 'R', 'L', 1, 0,
		3, 0, 0, 0,
		0, flagRule | flagStop, 0, 0, 2, 0,
		'b', flagStop, 0, 0,
		'a', flagStop, 0, 0,
	}
	_, err := Decode(data)
	assert.ErrorIs(t, err, ErrMalformedModel)
	data[16], data[20] = 'a', 'b'
	_, err = Decode(data)
	assert.NoError(t, err)
}

func TestDecodeUnknownFlags(t *testing.T) {
	data := minimalModel()
	data[11] = 0x80
	_, err := Decode(data)
	assert.ErrorIs(t, err, ErrMalformedModel)
}

func TestDecodeInvalidCharsetName(t *testing.T) {
	data := []byte{'R', 'D', 'R', 'L', 1, 2, 'a', ' '}
	data = append(data, minimalModel()[6:]...)
	_, err := Decode(data)
	assert.ErrorIs(t, err, ErrMalformedModel)
}

func TestWriteRejectsUnencodableRules(t *testing.T) {
	b := rdr.NewBuilder("")
	assert.NoError(t, b.SetRoot(rdr.Rule{Strip: 256}))
	tree, err := b.Build()
	assert.NoError(t, err)
	_, err = Encode(tree)
	assert.Error(t, err)

	b = rdr.NewBuilder("")
	assert.NoError(t, b.SetRoot(rdr.Rule{Append: strings.Repeat("x", 256)}))
	tree, err = b.Build()
	assert.NoError(t, err)
	_, err = Encode(tree)
	assert.Error(t, err)

	_, err = Encode(&rdr.Tree{})
	assert.Error(t, err)
}

func TestSniff(t *testing.T) {
	assert.Equal(t, FormatNative, Sniff(minimalModel()))
	assert.Equal(t, FormatLemmagen, Sniff([]byte{3, 0, 0, 0, 2, 0, 0}))
	assert.Equal(t, FormatUnknown, Sniff([]byte("garbage")))
	assert.Equal(t, FormatUnknown, Sniff([]byte{}))
	assert.Equal(t, FormatUnknown, Sniff([]byte{0, 0, 0, 0, 1}))
	assert.Equal(t, "native", FormatNative.String())
	assert.Equal(t, "lemmagen", FormatLemmagen.String())
	assert.Equal(t, "unknown", FormatUnknown.String())
}
