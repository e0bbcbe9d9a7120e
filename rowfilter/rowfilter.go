// Package rowfilter evaluates boolean expressions against QuickStats
// result rows, for narrowing fetched data client-side before display.
package rowfilter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Filter is a compiled row predicate.
type Filter struct {
	expression string
	program    *vm.Program
}

// Compile compiles an expression into a reusable filter. Row columns
// are referenced by name; unknown columns evaluate as nil rather than
// failing compilation, since row structure varies per query.
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("empty filter expression")
	}

	program, err := expr.Compile(expression,
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	return &Filter{expression: expression, program: program}, nil
}

// Expression returns the source expression the filter was compiled from.
func (f *Filter) Expression() string {
	return f.expression
}

// Match evaluates the filter against one row.
func (f *Filter) Match(row map[string]any) (bool, error) {
	env := make(map[string]any, len(row)+len(helpers))
	for name, fn := range helpers {
		env[name] = fn
	}
	for column, value := range row {
		env[column] = value
	}

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter: %w", err)
	}

	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("filter expression did not evaluate to a boolean")
	}
	return matched, nil
}

// helpers are available inside every filter expression.
var helpers = map[string]any{
	// num parses QuickStats numeric strings, which arrive with
	// thousands separators, e.g. "141,811". Unparseable values come
	// back as 0 so comparisons stay total.
	"num": func(v any) float64 {
		switch value := v.(type) {
		case float64:
			return value
		case int:
			return float64(value)
		case string:
			n, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(value), ",", ""), 64)
			if err != nil {
				return 0
			}
			return n
		default:
			return 0
		}
	},
}
