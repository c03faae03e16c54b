package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmostafa/textindex/internal/index"
	"github.com/itsmostafa/textindex/internal/markup"
)

func newExecutor(t *testing.T, config Config) *Executor {
	t.Helper()
	nodes, err := markup.ParseDocument(`{^Fruit>Citrus>Oranges}
{^Fruit>Apples}
{index term="apple"}
{index term="Apple"}
{index term="avocado"}
{index term="banana"}`)
	require.NoError(t, err)

	b := index.NewBuilder(index.WithSource("book.txt"))
	b.Process(nodes)
	return NewExecutor(NewEnvironment(b), config)
}

func TestExecutor_BucketLength(t *testing.T) {
	res := newExecutor(t, DefaultConfig()).Execute(context.Background(), "index.A.length")
	require.NoError(t, res.Error)
	assert.Equal(t, "3", res.Output)
	assert.EqualValues(t, 3, res.Value)
}

func TestExecutor_Letters(t *testing.T) {
	res := newExecutor(t, DefaultConfig()).Execute(context.Background(), `letters.join(",")`)
	require.NoError(t, res.Error)
	assert.Equal(t, "A,B", res.Output)
}

func TestExecutor_MapLabels(t *testing.T) {
	res := newExecutor(t, DefaultConfig()).Execute(context.Background(), `index.A.map(e => e.label)`)
	require.NoError(t, res.Error)
	assert.Equal(t, `["Apple","apple","avocado"]`, res.Output)
}

func TestExecutor_Tree(t *testing.T) {
	res := newExecutor(t, DefaultConfig()).Execute(context.Background(), `Object.keys(tree.Fruit).length`)
	require.NoError(t, res.Error)
	assert.Equal(t, "2", res.Output)

	res = newExecutor(t, DefaultConfig()).Execute(context.Background(), `paths.length`)
	require.NoError(t, res.Error)
	assert.Equal(t, "2", res.Output)
}

func TestExecutor_Entries(t *testing.T) {
	res := newExecutor(t, DefaultConfig()).Execute(context.Background(),
		`entries.filter(e => e.type === "mark").map(e => e.heading + ">" + e.subheadings.join(">"))`)
	require.NoError(t, res.Error)
	assert.Equal(t, `["Fruit>Citrus>Oranges","Fruit>Apples"]`, res.Output)
}

func TestExecutor_PrintKeepsHeadingPaths(t *testing.T) {
	res := newExecutor(t, DefaultConfig()).Execute(context.Background(),
		`console.log(entries.filter(e => e.type === "mark").map(e => e.heading + ">" + e.subheadings.join(">")))`)
	require.NoError(t, res.Error)
	assert.Equal(t, "[\"Fruit>Citrus>Oranges\",\"Fruit>Apples\"]\n", res.Output)
}

func TestExecutor_Lookup(t *testing.T) {
	res := newExecutor(t, DefaultConfig()).Execute(context.Background(), `lookup("APPLE").length`)
	require.NoError(t, res.Error)
	assert.Equal(t, "2", res.Output)

	res = newExecutor(t, DefaultConfig()).Execute(context.Background(), `lookup("cherry").length`)
	require.NoError(t, res.Error)
	assert.Equal(t, "0", res.Output)
}

func TestExecutor_PrintAndConsoleLog(t *testing.T) {
	res := newExecutor(t, DefaultConfig()).Execute(context.Background(),
		`print("letters:", letters.length); console.log(index.B[0].label)`)
	require.NoError(t, res.Error)
	assert.Equal(t, "letters: 2\nbanana\n", res.Output)
	assert.Nil(t, res.Value)
}

func TestExecutor_Regex(t *testing.T) {
	res := newExecutor(t, DefaultConfig()).Execute(context.Background(),
		`index.A.filter(e => re.test("^a", e.label)).length`)
	require.NoError(t, res.Error)
	assert.Equal(t, "2", res.Output)

	res = newExecutor(t, DefaultConfig()).Execute(context.Background(), `re.findAll("[aeiou]", "avocado")`)
	require.NoError(t, res.Error)
	assert.Equal(t, `["a","o","a","o"]`, res.Output)
}

func TestExecutor_ErrorHandling(t *testing.T) {
	res := newExecutor(t, DefaultConfig()).Execute(context.Background(), "undefined_function()")
	require.Error(t, res.Error)
	assert.Contains(t, res.Error.Error(), "execution error")

	res = newExecutor(t, DefaultConfig()).Execute(context.Background(), `re.test("(", "x")`)
	assert.Error(t, res.Error)
}

func TestExecutor_Timeout(t *testing.T) {
	config := DefaultConfig()
	config.Timeout = 50 * time.Millisecond
	res := newExecutor(t, config).Execute(context.Background(), "while (true) {}")
	require.Error(t, res.Error)
	assert.ErrorIs(t, res.Error, ErrInterrupted)
}

func TestExecutor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := newExecutor(t, DefaultConfig()).Execute(ctx, "while (true) {}")
	assert.ErrorIs(t, res.Error, ErrInterrupted)
}

func TestExecutor_OutputTruncation(t *testing.T) {
	config := DefaultConfig()
	config.MaxOutputChars = 10
	res := newExecutor(t, config).Execute(context.Background(), `"x".repeat(50)`)
	require.NoError(t, res.Error)
	assert.True(t, res.Truncated)
	assert.Len(t, res.Output, 10)
}

func TestExecutor_Variables(t *testing.T) {
	env := NewEnvironment(index.NewBuilder())
	env.Variables["limit"] = 3
	res := NewExecutor(env, Config{}).Execute(context.Background(), "limit * 2")
	require.NoError(t, res.Error)
	assert.Equal(t, "6", res.Output)
	assert.Empty(t, env.Letters())
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"plain", "plain"},
		{int64(4), "4"},
		{true, "true"},
		{[]any{"a", int64(1)}, `["a",1]`},
		{map[string]any{"k": "v"}, `{"k":"v"}`},
		{[]any{"Fruit>Apples", "A & <B>"}, `["Fruit>Apples","A & <B>"]`},
		{[]string{"Food>Fruit"}, `["Food>Fruit"]`},
	}
	for _, tt := range tests {
		got := formatValue(tt.in)
		if got != tt.want {
			t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
