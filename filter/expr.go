package filter

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// RecordKey exposes the whole record to expressions, e.g. record["resource_uri"]
const RecordKey = "record"

// dateLayouts are tried in order by parseDate
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// CompilerOption configures a Compiler
type CompilerOption func(*Compiler)

// WithCache enables caching of compiled filters with the specified size
func WithCache(size int) CompilerOption {
	return func(c *Compiler) {
		if size > 0 {
			c.cache = newLRUCache[*Filter](size)
		}
	}
}

// WithCustomFunctions adds helper functions available to every expression
func WithCustomFunctions(funcs map[string]any) CompilerOption {
	return func(c *Compiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// Compiler compiles expr-lang expressions into record filters
type Compiler struct {
	helperFuncs map[string]any
	cache       *lruCache[*Filter]
}

// NewCompiler creates a new expression compiler
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{
		helperFuncs: helperFunctions(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compile compiles an expression that must evaluate to a bool
func (c *Compiler) Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Record fields are only known at run time
	program, err := expr.Compile(expression,
		expr.Env(c.compileEnv()),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	f := &Filter{
		expression:  expression,
		program:     program,
		helperFuncs: c.helperFuncs,
	}

	if c.cache != nil {
		c.cache.Put(expression, f)
	}

	return f, nil
}

// Clear removes all cached filters
func (c *Compiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *Compiler) Size() int {
	if c.cache != nil {
		return c.cache.Len()
	}
	return 0
}

func (c *Compiler) compileEnv() map[string]any {
	env := make(map[string]any, len(c.helperFuncs)+1)
	maps.Copy(env, c.helperFuncs)
	env["hasField"] = func(string) bool { return false }
	return env
}

// Filter is a compiled expression. It is safe for concurrent use.
type Filter struct {
	expression  string
	program     *vm.Program
	helperFuncs map[string]any
}

// Expression returns the original expression
func (f *Filter) Expression() string {
	return f.expression
}

// Evaluate runs the filter against one record. Map records expose their keys
// as variables; any record is also available as `record`.
func (f *Filter) Evaluate(record any) (bool, error) {
	result, err := expr.Run(f.program, f.runtimeEnv(record))
	if err != nil {
		return false, &EvaluationError{Expression: f.expression, Index: -1, Err: err}
	}

	matched, ok := result.(bool)
	if !ok {
		return false, &EvaluationError{
			Expression: f.expression,
			Index:      -1,
			Err:        fmt.Errorf("expected bool, got %T", result),
		}
	}
	return matched, nil
}

// Matches reports whether the record matches. Records that fail to evaluate
// do not match.
func (f *Filter) Matches(record any) bool {
	matched, err := f.Evaluate(record)
	return err == nil && matched
}

func (f *Filter) runtimeEnv(record any) map[string]any {
	fields, _ := record.(map[string]any)

	env := make(map[string]any, len(fields)+len(f.helperFuncs)+2)
	for k, v := range fields {
		env[k] = exprNumbers(v)
	}
	// Helpers shadow record fields of the same name
	maps.Copy(env, f.helperFuncs)
	env[RecordKey] = exprNumbers(record)
	env["hasField"] = func(key string) bool {
		_, ok := fields[key]
		return ok
	}
	return env
}

// helperFunctions returns the static helpers. Names avoid the expr builtins
// (lower, upper, now, ...) and the contains/startsWith/endsWith operators.
func helperFunctions() map[string]any {
	return map[string]any{
		"icontains": func(s, substr any) bool {
			return strings.Contains(strings.ToLower(toString(s)), strings.ToLower(toString(substr)))
		},
		"parseDate": func(v any) time.Time {
			t, _ := parseTime(v)
			return t
		},
		"daysSince": func(v any) int {
			t, ok := parseTime(v)
			if !ok {
				return -1
			}
			return int(time.Since(t).Hours() / 24)
		},
		"daysAgo": func(days int) time.Time {
			return time.Now().AddDate(0, 0, -days)
		},
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}
