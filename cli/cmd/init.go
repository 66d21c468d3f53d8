package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ardnew/riptide/lang"
	"github.com/ardnew/riptide/log"
	"github.com/ardnew/riptide/profile"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the default configuration file.
const defaultConfigIndent = 2

// Init generates a default configuration file with current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	file, err := os.Create(confPath)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}
	defer file.Close()

	err = i.buildProgram(ctx).Format(file, defaultConfigIndent)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(
		ctx,
		"initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// buildProgram constructs a configuration program assigning the current
// value of each flag.
func (i *Init) buildProgram(ctx context.Context) *lang.Program {
	ktx := kongContextFrom(ctx)

	prog := new(lang.Program)

	prefixIgnore := []string{"help", profile.Tag}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		val := flagValue(ktx.FlagValue(flag))
		if val == nil {
			continue
		}

		prog.Statements = append(prog.Statements, &lang.AssignStatement{
			Target: lang.AssignTarget{Kind: lang.TargetLocal, Name: flag.Name},
			Value:  val,
		})
	}

	return prog
}

// flagValue returns the literal for a flag value, or nil if it is unset.
func flagValue(val any) lang.Expr {
	switch v := val.(type) {
	case nil:
		return nil

	case bool:
		return &lang.StringLiteral{Value: strconv.FormatBool(v)}

	case string:
		if v == "" {
			return nil
		}

		return &lang.StringLiteral{Value: v}

	case time.Duration:
		return &lang.StringLiteral{Value: v.String()}

	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		n, err := strconv.ParseFloat(fmt.Sprint(v), 64)
		if err != nil {
			return nil
		}

		return &lang.NumberLiteral{Value: n}

	case float32:
		return &lang.NumberLiteral{Value: float64(v)}

	case float64:
		return &lang.NumberLiteral{Value: v}

	case []string:
		if len(v) == 0 {
			return nil
		}

		list := &lang.ListLiteral{Items: make([]lang.Expr, len(v))}
		for i, s := range v {
			list.Items[i] = &lang.StringLiteral{Value: s}
		}

		return list

	case fmt.Stringer:
		return flagValue(v.String())

	default:
		return flagValue(fmt.Sprint(v))
	}
}
