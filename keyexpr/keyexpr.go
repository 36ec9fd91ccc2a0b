// Package keyexpr derives unique index keys from expr-lang expressions, so
// key normalization can live in configuration instead of code.
//
// An expression sees two variables, field and value, and returns the key:
//
//	lower(trim(value))
//	field == "phone" ? replace(value, " ", "") : value
//
// A nil or empty result means the value has no key.
package keyexpr

import (
	"errors"
	"fmt"
	"log/slog"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/andreyvit/mirror"
)

var ErrEmpty = errors.New("keyexpr: empty expression")

// Program is a compiled key expression. It is safe for concurrent use.
type Program struct {
	src     string
	program *exprvm.Program
	logger  *slog.Logger
}

// Compile parses and type-checks src once.
func Compile(src string) (*Program, error) {
	if src == "" {
		return nil, ErrEmpty
	}
	program, err := exprlang.Compile(src,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("keyexpr: %q: %w", src, err)
	}
	return &Program{src: src, program: program, logger: slog.Default()}, nil
}

func MustCompile(src string) *Program {
	p, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return p
}

// WithLogger sets the logger that reports evaluation failures of UniqueKeyFunc.
func (p *Program) WithLogger(logger *slog.Logger) *Program {
	if logger != nil {
		p.logger = logger
	}
	return p
}

func (p *Program) String() string {
	return p.src
}

// Key evaluates the expression for a field's value.
func (p *Program) Key(field string, value any) (string, bool, error) {
	if value == nil {
		return "", false, nil
	}
	result, err := exprlang.Run(p.program, map[string]any{"field": field, "value": value})
	if err != nil {
		return "", false, fmt.Errorf("keyexpr: %q on %s: %w", p.src, field, err)
	}
	var key string
	switch v := result.(type) {
	case nil:
		return "", false, nil
	case string:
		key = v
	default:
		key = fmt.Sprint(v)
	}
	return key, key != "", nil
}

// UniqueKeyFunc adapts the program to mirror. A value the expression fails
// on is logged and has no key.
func (p *Program) UniqueKeyFunc() mirror.UniqueKeyFunc {
	return func(field string, value any) (string, bool) {
		key, ok, err := p.Key(field, value)
		if err != nil {
			p.logger.Warn("keyexpr: evaluation failed", "field", field, slog.Any("err", err))
			return "", false
		}
		return key, ok
	}
}
