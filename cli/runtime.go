package cli

import (
	"strconv"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ardnew/riptide/cli/cmd"
	"github.com/ardnew/riptide/interp"
)

// runtimeConfig holds the interpreter limits and the module search path.
type runtimeConfig struct {
	Grace    time.Duration `default:"${graceDefault}"    help:"Time processes are given to exit before they are killed."`
	MaxDepth int           `default:"${maxDepthDefault}" help:"Maximum depth of nested block invocations."`
	Buffer   int           `default:"${bufferDefault}"   help:"Capacity of the pipes between pipeline stages."`
	Lib      []string      `                             help:"Directories searched by import."               placeholder:"DIR" type:"path"`
}

func (*runtimeConfig) vars() kong.Vars {
	return kong.Vars{
		"graceDefault":    interp.DefaultGracePeriod.String(),
		"maxDepthDefault": strconv.Itoa(interp.DefaultMaxDepth),
		"bufferDefault":   strconv.Itoa(interp.DefaultStreamBuffer),
	}
}

func (*runtimeConfig) group() kong.Group {
	var group kong.Group

	group.Key = "runtime"
	group.Title = "Interpreter options"

	return group
}

func (r *runtimeConfig) settings() cmd.Settings {
	return cmd.Settings{
		Grace:    r.Grace,
		MaxDepth: r.MaxDepth,
		Buffer:   r.Buffer,
		Lib:      r.Lib,
	}
}
