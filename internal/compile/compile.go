// Package compile turns markup documents into one finished index. Each
// document gets its own tokenizer and parser, run in parallel; the parsed
// trees are then fed to a single builder in document order.
package compile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/itsmostafa/textindex/internal/index"
	"github.com/itsmostafa/textindex/internal/markup"
)

// ErrInputTooLarge is returned for a document over the size limit.
var ErrInputTooLarge = errors.New("input exceeds size limit")

// Document is one named markup buffer.
type Document struct {
	Source string
	Text   string
}

// Options configures a compilation.
type Options struct {
	// Prose tokenizes text outside braces as plain words.
	Prose bool
	// Strict fails a document that has lexical errors.
	Strict bool
	// MaxInputBytes rejects larger documents; 0 means no limit.
	MaxInputBytes int64
	// Workers bounds parallel parsing; 0 means one per CPU.
	Workers int
	Logger  *slog.Logger
}

// Diagnostic is a markup diagnostic tagged with its document.
type Diagnostic struct {
	Source string `json:"source" yaml:"source"`
	markup.Diagnostic `yaml:",inline"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", d.Source, d.Line, d.Kind, d.Message)
}

// Result is the outcome of one compilation.
type Result struct {
	// ID identifies the run in logs.
	ID          string
	Builder     *index.Builder
	Diagnostics []Diagnostic
	// Failed lists documents left out of the index, in input order.
	Failed []Failure
	// Documents counts the documents that reached the builder.
	Documents int
	Duration  time.Duration
}

// Failure records why a document was left out of the index.
type Failure struct {
	Source string
	Err    error
}

// Index returns the finalized index.
func (r *Result) Index() index.Index {
	return r.Builder.Index()
}

// Err joins the errors of every failed document, or returns nil.
func (r *Result) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = fmt.Errorf("%s: %w", f.Source, f.Err)
	}
	return errors.Join(errs...)
}

// HasErrors reports whether any diagnostic was a syntax error or any
// document failed.
func (r *Result) HasErrors() bool {
	if len(r.Failed) > 0 {
		return true
	}
	for _, d := range r.Diagnostics {
		if d.Kind == markup.DiagSyntax {
			return true
		}
	}
	return false
}

type parsed struct {
	nodes   []markup.Node
	lexical []*markup.LexicalError
	err     error
	elapsed time.Duration
}

// Compile parses docs and builds their combined index. Problems in one
// document are reported in the result and never stop the others; the
// returned error is non-nil only when ctx is cancelled.
func Compile(ctx context.Context, docs []Document, opts Options) (*Result, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	result := &Result{
		ID:      uuid.New().String(),
		Builder: index.NewBuilder(),
	}
	logger = logger.With(slog.String("run", result.ID))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	out := make([]parsed, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = parseDocument(doc, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compile cancelled: %w", err)
	}

	for i, doc := range docs {
		p := out[i]
		for _, lex := range p.lexical {
			result.add(logger, doc.Source, lex.Diagnostic())
		}
		if p.err != nil {
			var syn *markup.SyntaxError
			if errors.As(p.err, &syn) {
				result.add(logger, doc.Source, syn.Diagnostic())
			}
			result.Failed = append(result.Failed, Failure{Source: doc.Source, Err: p.err})
			logger.Warn("document skipped", slog.String("source", doc.Source), slog.String("error", p.err.Error()))
			continue
		}

		seen := len(result.Builder.Diagnostics())
		result.Builder.SetSource(doc.Source)
		result.Builder.Process(p.nodes)
		for _, se := range result.Builder.Diagnostics()[seen:] {
			result.add(logger, doc.Source, se.Diagnostic())
		}
		result.Documents++
		logger.Debug("document processed",
			slog.String("source", doc.Source),
			slog.Int("nodes", len(p.nodes)),
			slog.Duration("parse", p.elapsed))
	}

	result.Builder.Finalize()
	result.Duration = time.Since(start)
	logger.Debug("compile complete",
		slog.Int("documents", result.Documents),
		slog.Int("entries", len(result.Builder.Entries())),
		slog.Int("diagnostics", len(result.Diagnostics)),
		slog.Duration("duration", result.Duration))
	return result, nil
}

func (r *Result) add(logger *slog.Logger, source string, d markup.Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Source: source, Diagnostic: d})
	logger.Warn(string(d.Kind)+" error",
		slog.String("source", source),
		slog.Int("line", d.Line),
		slog.String("message", d.Message))
}

func parseDocument(doc Document, opts Options) parsed {
	start := time.Now()
	if opts.MaxInputBytes > 0 && int64(len(doc.Text)) > opts.MaxInputBytes {
		return parsed{err: fmt.Errorf("%w: %d bytes, limit %d", ErrInputTooLarge, len(doc.Text), opts.MaxInputBytes)}
	}

	var popts []markup.Option
	if opts.Prose {
		popts = append(popts, markup.WithProse())
	}
	p := markup.NewParser(doc.Text, popts...)
	nodes, err := p.ParseDocument()
	res := parsed{nodes: nodes, lexical: p.LexicalErrors(), err: err}
	if err == nil && opts.Strict && len(res.lexical) > 0 {
		errs := make([]error, len(res.lexical))
		for i, le := range res.lexical {
			errs[i] = le
		}
		res.err = errors.Join(errs...)
	}
	res.elapsed = time.Since(start)
	return res
}

// ReadDocuments reads each path as a document; "-" reads from stdin.
func ReadDocuments(paths []string, maxBytes int64, stdin io.Reader) ([]Document, error) {
	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		var (
			text string
			err  error
		)
		if path == "-" {
			text, err = readLimited(stdin, maxBytes)
		} else {
			text, err = readFile(path, maxBytes)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		docs = append(docs, Document{Source: path, Text: text})
	}
	return docs, nil
}

func readFile(path string, maxBytes int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return readLimited(f, maxBytes)
}

func readLimited(r io.Reader, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		data, err := io.ReadAll(r)
		return string(data), err
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrInputTooLarge, maxBytes)
	}
	return string(data), nil
}
