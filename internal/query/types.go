// Package query runs JavaScript against a built index. Scripts see the
// index, the heading tree and the flat entry list as plain objects and
// arrays, so questions like "which letters have more than ten entries" need
// no extra command.
package query

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/itsmostafa/textindex/internal/index"
)

// Config holds executor limits.
type Config struct {
	// Timeout bounds one execution (default: 5s).
	Timeout time.Duration

	// MaxOutputChars caps the returned output (default: 20000).
	MaxOutputChars int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:        5 * time.Second,
		MaxOutputChars: 20000,
	}
}

// Environment is what a script can see.
type Environment struct {
	// Index maps bucket letters to arrays of entry objects.
	Index map[string]any

	// Tree is the heading hierarchy as nested objects.
	Tree map[string]any

	// Entries is every recorded entry in document order.
	Entries []any

	// Paths lists the full heading path of every tree leaf.
	Paths [][]string

	// Variables are extra globals, e.g. from earlier runs.
	Variables map[string]any

	// RE provides access to regex functions
	RE *RegexModule
}

// NewEnvironment exposes the builder's finalized state.
func NewEnvironment(b *index.Builder) *Environment {
	m := b.Map()
	env := &Environment{
		Variables: make(map[string]any),
		RE:        &RegexModule{},
		Paths:     b.Tree().Paths(),
	}
	env.Index, _ = m["index"].(map[string]any)
	env.Tree, _ = m["tree"].(map[string]any)
	env.Entries, _ = m["entries"].([]any)
	return env
}

// Letters returns the bucket keys of the index in collation order.
func (e *Environment) Letters() []string {
	keys := make([]string, 0, len(e.Index))
	for k := range e.Index {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, index.NewCollator().Compare)
	return keys
}

// Lookup returns the index entries whose label equals label, ignoring case.
func (e *Environment) Lookup(label string) []any {
	bucket, _ := e.Index[index.BucketKey(label)].([]any)
	out := []any{}
	for _, item := range bucket {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if l, _ := entry["label"].(string); strings.EqualFold(l, label) {
			out = append(out, entry)
		}
	}
	return out
}

// RegexModule provides regex functions for scripts.
type RegexModule struct{}

// FindAll finds all matches of pattern in text.
func (r *RegexModule) FindAll(pattern, text string) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return re.FindAllString(text, -1), nil
}

// Test reports whether pattern matches text.
func (r *RegexModule) Test(pattern, text string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(text), nil
}

// Result holds the outcome of one execution.
type Result struct {
	// Output is print() output followed by the final expression value.
	Output string

	// Value is the final expression value exported to Go, or nil.
	Value any

	// Error is any error that occurred during execution
	Error error

	// Truncated indicates if output was truncated due to length
	Truncated bool
}
