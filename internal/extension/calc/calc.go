// Package calc evaluates simple arithmetic expressions.
package calc

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/dop251/goja"

	"botcore/internal/command"
	"botcore/internal/extension"
)

const allowedChars = "0123456789.+-*/%^() "

func init() { extension.Add(unit{}) }

type unit struct{}

func (unit) Name() string { return "calc" }

func (unit) Register(r *command.Registry) error {
	return r.Register(&command.Descriptor{
		Name:        "calc",
		Aliases:     []string{"calculate"},
		Description: "Performs a simple calculation",
		Usage:       "!calc 5+3*2",
		Surfaces:    command.SurfaceText | command.SurfaceSlash,
		Options: []command.Option{
			{Name: "expression", Description: "Arithmetic expression to evaluate", Required: true},
		},
		Handler: run,
	})
}

func run(ctx context.Context, inv *command.Invocation) error {
	expr := inv.Option("expression")
	if expr == "" {
		expr = strings.Join(inv.Args, " ")
	}
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return inv.Respond(ctx, "Give me something to calculate, like `5+3*2`.")
	}

	for _, c := range expr {
		if !strings.ContainsRune(allowedChars, c) {
			return inv.Respond(ctx, "Invalid characters in the expression. Only digits, basic operators (+-*/%^), parentheses, and spaces are allowed.")
		}
	}

	result, err := evaluate(expr)
	if err != nil {
		return inv.Respond(ctx, "Invalid expression syntax. Please check your input.")
	}
	if math.IsInf(result, 0) {
		return inv.Respond(ctx, "*explodes 💥*\n-# (you can't divide by zero)")
	}
	if math.IsNaN(result) {
		return inv.Respond(ctx, "That doesn't come out to a number.")
	}

	return inv.Respond(ctx, fmt.Sprintf("Result: `%s = %s`", expr, formatNumber(result)))
}

// evaluate runs the sanitized expression in a throwaway JS runtime; ^ is
// translated to JS exponentiation first.
func evaluate(expr string) (float64, error) {
	vm := goja.New()
	val, err := vm.RunString(strings.ReplaceAll(expr, "^", "**"))
	if err != nil {
		return 0, err
	}
	return val.ToFloat(), nil
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
