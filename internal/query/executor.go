package query

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

// ErrInterrupted is wrapped by errors from timed-out or cancelled scripts.
var ErrInterrupted = errors.New("execution interrupted")

// Executor executes JavaScript code in a sandboxed goja environment.
type Executor struct {
	env    *Environment
	config Config
}

// NewExecutor creates an executor over env.
func NewExecutor(env *Environment, config Config) *Executor {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.MaxOutputChars <= 0 {
		config.MaxOutputChars = DefaultConfig().MaxOutputChars
	}
	return &Executor{
		env:    env,
		config: config,
	}
}

// Execute runs code in a fresh runtime. It returns the output of print()
// calls and the final expression value.
func (x *Executor) Execute(ctx context.Context, code string) *Result {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	timeoutCtx, cancel := context.WithTimeout(ctx, x.config.Timeout)
	defer cancel()

	go func() {
		<-timeoutCtx.Done()
		vm.Interrupt("execution timeout or cancelled")
	}()

	var printed strings.Builder
	if err := x.setupEnvironment(vm, &printed); err != nil {
		return &Result{Error: fmt.Errorf("failed to setup environment: %w", err)}
	}

	val, err := vm.RunString(code)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return &Result{Output: printed.String(), Error: fmt.Errorf("%w: %v", ErrInterrupted, interrupted.Value())}
		}
		return &Result{Output: printed.String(), Error: fmt.Errorf("execution error: %w", err)}
	}

	res := &Result{Output: x.buildOutput(&printed, val)}
	if val != nil && !goja.IsUndefined(val) && !goja.IsNull(val) {
		res.Value = val.Export()
	}
	if len(res.Output) > x.config.MaxOutputChars {
		res.Output = res.Output[:x.config.MaxOutputChars]
		res.Truncated = true
	}
	return res
}

func (x *Executor) setupEnvironment(vm *goja.Runtime, printOutput *strings.Builder) error {
	globals := map[string]any{
		"index":   x.env.Index,
		"tree":    x.env.Tree,
		"entries": x.env.Entries,
		"paths":   x.env.Paths,
		"letters": x.env.Letters(),
	}
	for name, value := range globals {
		if err := vm.Set(name, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", name, err)
		}
	}

	printFunc := func(call goja.FunctionCall) goja.Value {
		args := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			args[i] = formatArg(arg)
		}
		printOutput.WriteString(strings.Join(args, " "))
		printOutput.WriteString("\n")
		return goja.Undefined()
	}
	if err := vm.Set("print", printFunc); err != nil {
		return fmt.Errorf("failed to set print: %w", err)
	}

	console := vm.NewObject()
	if err := console.Set("log", printFunc); err != nil {
		return fmt.Errorf("failed to set console.log: %w", err)
	}
	if err := vm.Set("console", console); err != nil {
		return fmt.Errorf("failed to set console: %w", err)
	}

	lookup := func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(vm.NewTypeError("lookup requires 1 argument: label"))
		}
		return vm.ToValue(x.env.Lookup(call.Arguments[0].String()))
	}
	if err := vm.Set("lookup", lookup); err != nil {
		return fmt.Errorf("failed to set lookup: %w", err)
	}

	if err := x.setupRegexModule(vm); err != nil {
		return fmt.Errorf("failed to setup regex module: %w", err)
	}

	for name, value := range x.env.Variables {
		if err := vm.Set(name, value); err != nil {
			return fmt.Errorf("failed to set variable %s: %w", name, err)
		}
	}
	return nil
}

// setupRegexModule adds the 're' object with regex helper functions.
func (x *Executor) setupRegexModule(vm *goja.Runtime) error {
	re := vm.NewObject()

	// re.findAll(pattern, text) -> array of matches
	findAll := func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(vm.NewTypeError("findAll requires 2 arguments: pattern, text"))
		}
		matches, err := x.env.RE.FindAll(call.Arguments[0].String(), call.Arguments[1].String())
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(matches)
	}
	if err := re.Set("findAll", findAll); err != nil {
		return err
	}

	// re.test(pattern, text) -> bool
	test := func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(vm.NewTypeError("test requires 2 arguments: pattern, text"))
		}
		ok, err := x.env.RE.Test(call.Arguments[0].String(), call.Arguments[1].String())
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(ok)
	}
	if err := re.Set("test", test); err != nil {
		return err
	}

	return vm.Set("re", re)
}

// buildOutput joins printed output and the final expression value.
func (x *Executor) buildOutput(printOutput *strings.Builder, val goja.Value) string {
	var output strings.Builder
	output.WriteString(printOutput.String())

	if val != nil && !goja.IsUndefined(val) && !goja.IsNull(val) {
		if valStr := formatValue(val.Export()); valStr != "" {
			if output.Len() > 0 && !strings.HasSuffix(output.String(), "\n") {
				output.WriteString("\n")
			}
			output.WriteString(valStr)
		}
	}
	return output.String()
}

func formatArg(arg goja.Value) string {
	switch arg.Export().(type) {
	case map[string]any, []any:
		return formatValue(arg.Export())
	}
	return arg.String()
}

// formatValue renders objects and arrays as JSON and everything else with
// its Go formatting.
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any, []string, [][]string:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return fmt.Sprintf("%v", v)
		}
		return strings.TrimSuffix(buf.String(), "\n")
	default:
		return fmt.Sprintf("%v", v)
	}
}
