package compile

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmostafa/textindex/internal/index"
	"github.com/itsmostafa/textindex/internal/markup"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestCompile_CombinesDocuments(t *testing.T) {
	docs := []Document{
		{Source: "ch1.txt", Text: `Apples grow {^Fruit>Apples} here. {index term="apple"}`},
		{Source: "ch2.txt", Text: "Oranges too.\n{^Fruit>Citrus>Oranges} {index term=\"Apple\"}"},
		{Source: "ch3.txt", Text: `{index term="banana"}`},
	}

	res, err := Compile(context.Background(), docs, Options{Prose: true, Workers: 2, Logger: quietLogger()})
	require.NoError(t, err)
	require.NoError(t, res.Err())

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 3, res.Documents)
	assert.Empty(t, res.Diagnostics)
	assert.False(t, res.HasErrors())

	idx := res.Index()
	assert.Equal(t, []string{"A", "B"}, idx.Letters())
	require.Len(t, idx["A"], 2)
	assert.Equal(t, "Apple", idx["A"][0].Label)
	assert.Equal(t, []index.Ref{{Source: "ch2.txt", Line: 2}}, idx["A"][0].Refs)
	assert.Equal(t, "apple", idx["A"][1].Label)
	assert.Equal(t, "ch1.txt", idx["A"][1].Refs[0].Source)

	tree := res.Builder.Tree()
	assert.NotNil(t, tree.Find("Fruit", "Apples"))
	assert.NotNil(t, tree.Find("Fruit", "Citrus", "Oranges"))
}

func TestCompile_SyntaxErrorSkipsDocument(t *testing.T) {
	docs := []Document{
		{Source: "bad.txt", Text: "text {^Broken"},
		{Source: "good.txt", Text: `{index term="kiwi"}`},
	}

	res, err := Compile(context.Background(), docs, Options{Prose: true, Logger: quietLogger()})
	require.NoError(t, err)

	assert.True(t, res.HasErrors())
	assert.Equal(t, 1, res.Documents)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "bad.txt", res.Failed[0].Source)
	assert.ErrorIs(t, res.Err(), markup.ErrSyntax)
	assert.Contains(t, res.Err().Error(), "bad.txt")

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, markup.DiagSyntax, res.Diagnostics[0].Kind)
	assert.Equal(t, "bad.txt", res.Diagnostics[0].Source)

	assert.Len(t, res.Index()["K"], 1)
}

func TestCompile_LexicalErrors(t *testing.T) {
	docs := []Document{{Source: "ctl.txt", Text: "{^Apple\x01}"}}

	t.Run("tolerant", func(t *testing.T) {
		res, err := Compile(context.Background(), docs, Options{Logger: quietLogger()})
		require.NoError(t, err)
		require.NotEmpty(t, res.Diagnostics)
		assert.Equal(t, markup.DiagLexical, res.Diagnostics[0].Kind)
		assert.Empty(t, res.Failed)
		assert.Equal(t, 1, res.Documents)
	})

	t.Run("strict", func(t *testing.T) {
		res, err := Compile(context.Background(), docs, Options{Strict: true, Logger: quietLogger()})
		require.NoError(t, err)
		require.Len(t, res.Failed, 1)
		assert.ErrorIs(t, res.Err(), markup.ErrLexical)
		assert.Equal(t, 0, res.Documents)
	})
}

func TestCompile_MaxInputBytes(t *testing.T) {
	docs := []Document{{Source: "big.txt", Text: strings.Repeat("word ", 100)}}

	res, err := Compile(context.Background(), docs, Options{Prose: true, MaxInputBytes: 64, Logger: quietLogger()})
	require.NoError(t, err)
	require.Len(t, res.Failed, 1)
	assert.True(t, errors.Is(res.Err(), ErrInputTooLarge))
}

func TestCompile_StructuralDiagnostics(t *testing.T) {
	res, err := Compile(context.Background(), nil, Options{Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Documents)

	res.Builder.Process([]markup.Node{&markup.RangeBlock{End: markup.NewDirective("index", "-", nil)}})
	require.Len(t, res.Builder.Diagnostics(), 1)
	assert.ErrorIs(t, res.Builder.Diagnostics()[0], index.ErrStructural)
}

func TestCompile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Compile(ctx, []Document{{Source: "a", Text: "{^A}"}}, Options{Logger: quietLogger()})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompile_LogsDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	res, err := Compile(context.Background(), []Document{{Source: "x.txt", Text: "{^"}}, Options{Logger: logger})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "syntax error")
	assert.Contains(t, buf.String(), "source=x.txt")
	assert.Contains(t, buf.String(), "run="+res.ID)
}

func TestReadDocuments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("{^A}"), 0o644))

	docs, err := ReadDocuments([]string{path, "-"}, 0, strings.NewReader("{^B}"))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, Document{Source: path, Text: "{^A}"}, docs[0])
	assert.Equal(t, Document{Source: "-", Text: "{^B}"}, docs[1])
}

func TestReadDocuments_Errors(t *testing.T) {
	_, err := ReadDocuments([]string{filepath.Join(t.TempDir(), "missing.txt")}, 0, nil)
	assert.Error(t, err)

	_, err = ReadDocuments([]string{"-"}, 3, strings.NewReader("too long"))
	assert.ErrorIs(t, err, ErrInputTooLarge)
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Source: "a.txt", Diagnostic: markup.Diagnostic{Kind: markup.DiagSyntax, Message: "boom", Line: 4}}
	assert.Equal(t, "a.txt:4: syntax: boom", d.String())
}
