// Package roll implements a dice roller in NdM notation.
package roll

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"botcore/internal/command"
	"botcore/internal/extension"
)

var (
	tokenRe = regexp.MustCompile(`(?i)(\d*d\d+|\d+|[+\-])`)
	diceRe  = regexp.MustCompile(`(?i)^(\d*)d(\d+)$`)
)

const maxDice = 100

func init() { extension.Add(unit{}) }

type unit struct{}

func (unit) Name() string { return "roll" }

func (unit) Register(r *command.Registry) error {
	return r.Register(&command.Descriptor{
		Name:        "roll",
		Aliases:     []string{"dice"},
		Description: "Roll dice like `2d6+3`",
		Usage:       "!roll 2d6+1d4-2",
		Surfaces:    command.SurfaceText | command.SurfaceSlash,
		Options: []command.Option{
			{Name: "formula", Description: "Dice formula, e.g. 2d6+3", Required: true},
		},
		Handler: run,
	})
}

func run(ctx context.Context, inv *command.Invocation) error {
	formula := inv.Option("formula")
	if formula == "" {
		formula = strings.Join(inv.Args, "")
	}
	formula = strings.ReplaceAll(formula, " ", "")
	if formula == "" {
		return inv.Respond(ctx, "Roll what? Try `!roll 2d6+3`.")
	}

	total, detail, err := Roll(formula, rand.Intn)
	if err != nil {
		return inv.Respond(ctx, fmt.Sprintf("Can't parse `%s`: %v. Try something like `2d6+1d4-2`.", formula, err))
	}
	return inv.Respond(ctx, fmt.Sprintf("🎲 %s = **%d**", detail, total))
}

// Roll evaluates a +/- chain of dice and constant terms. intn draws a random
// value in [0, n); tests pass a deterministic function.
func Roll(formula string, intn func(n int) int) (int, string, error) {
	tokens := tokenRe.FindAllString(formula, -1)
	if len(tokens) == 0 || strings.Join(tokens, "") != formula {
		return 0, "", fmt.Errorf("unrecognized token")
	}

	total := 0
	sign := 1
	var detail []string

	for _, tok := range tokens {
		switch tok {
		case "+":
			sign = 1
			detail = append(detail, "+")
			continue
		case "-":
			sign = -1
			detail = append(detail, "-")
			continue
		}

		value, desc, err := evalTerm(tok, intn)
		if err != nil {
			return 0, "", err
		}
		total += sign * value
		detail = append(detail, desc)
		sign = 1
	}

	return total, strings.Join(detail, " "), nil
}

func evalTerm(tok string, intn func(n int) int) (int, string, error) {
	if m := diceRe.FindStringSubmatch(tok); m != nil {
		count := 1
		if m[1] != "" {
			var err error
			count, err = strconv.Atoi(m[1])
			if err != nil || count < 1 {
				return 0, "", fmt.Errorf("bad dice count in %q", tok)
			}
		}
		sides, err := strconv.Atoi(m[2])
		if err != nil || sides < 1 {
			return 0, "", fmt.Errorf("bad die size in %q", tok)
		}
		if count > maxDice {
			return 0, "", fmt.Errorf("at most %d dice per term", maxDice)
		}

		sum := 0
		rolls := make([]string, count)
		for i := 0; i < count; i++ {
			r := intn(sides) + 1
			sum += r
			rolls[i] = strconv.Itoa(r)
		}
		return sum, fmt.Sprintf("%s[%s]", tok, strings.Join(rolls, ",")), nil
	}

	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, "", fmt.Errorf("unrecognized term %q", tok)
	}
	return n, tok, nil
}
