package cli

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ardnew/riptide/lang"
)

func TestProgramConfig(t *testing.T) {
	src := strings.Join([]string{
		"log-level = debug",
		"let grace = 5s",
		"max_depth = 2000",
		"lib = [/a '/b c']",
		"@cwd = /ignored",
		"echo ignored",
		"x->y = ignored",
		"nested = [a: 1]",
		"log-level = trace",
	}, "\n")

	prog, err := lang.ParseString(t.Context(), src)
	if err != nil {
		t.Fatal(err)
	}

	want := config{
		"log-level": "trace",
		"grace":     "5s",
		"max_depth": "2000",
		"lib":       []any{"/a", "/b c"},
	}

	if got := programConfig(prog); !reflect.DeepEqual(got, want) {
		t.Errorf("programConfig() = %#v, want %#v", got, want)
	}
}

func TestResolve(t *testing.T) {
	var cli struct {
		LogLevel string        `default:"warn"`
		Grace    time.Duration `default:"2s"`
		MaxDepth int           `default:"10000"`
		Buffer   int           `default:"16"`
		Lib      []string
	}

	loader := resolve(t.Context())

	resolver, err := loader(strings.NewReader("log-level = debug\ngrace = 5s\nmax_depth = 20\nlib = [/a /b]"))
	if err != nil {
		t.Fatal(err)
	}

	parser, err := kong.New(&cli, kong.Resolvers(resolver))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := parser.Parse([]string{"--grace=1m"}); err != nil {
		t.Fatal(err)
	}

	if cli.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cli.LogLevel)
	}

	if cli.Grace != time.Minute {
		t.Errorf("Grace = %v, want the command-line value", cli.Grace)
	}

	if cli.MaxDepth != 20 || cli.Buffer != 16 {
		t.Errorf("MaxDepth = %d, Buffer = %d", cli.MaxDepth, cli.Buffer)
	}

	if !reflect.DeepEqual(cli.Lib, []string{"/a", "/b"}) {
		t.Errorf("Lib = %v", cli.Lib)
	}
}

func TestResolve_InvalidSource(t *testing.T) {
	resolver, err := resolve(t.Context())(strings.NewReader("let = ="))
	if err != nil {
		t.Fatal(err)
	}

	if cfg, ok := resolver.(config); !ok || len(cfg) != 0 {
		t.Errorf("resolver = %#v, want an empty config", resolver)
	}
}

func TestLogConfig_Scan(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		level  logLevel
		pretty bool
		caller bool
	}{
		{
			name:   "defaults untouched",
			args:   []string{"script.rip", "--log-level", "debug"},
			level:  "",
			pretty: true,
		},
		{
			name:   "level with value",
			args:   []string{"--log-level", "trace", "--no-log-pretty"},
			level:  "trace",
			pretty: false,
		},
		{
			name:   "after command name",
			args:   []string{"run", "--log-level=debug", "--log-caller"},
			level:  "debug",
			pretty: true,
			caller: true,
		},
		{
			name:   "explicit booleans",
			args:   []string{"--log-pretty=false", "--no-log-caller=false"},
			pretty: false,
			caller: true,
		},
		{
			name:   "stops at separator",
			args:   []string{"--", "--log-level=error"},
			pretty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := logConfig{Pretty: true}
			f.scan(tt.args)

			if f.Level != tt.level || f.Pretty != tt.pretty || f.Caller != tt.caller {
				t.Errorf("scan() = {%q %v %v}, want {%q %v %v}",
					f.Level, f.Pretty, f.Caller, tt.level, tt.pretty, tt.caller)
			}
		})
	}
}
