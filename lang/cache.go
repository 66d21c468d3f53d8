package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// registry stores parse results keyed by source hash. Programs are immutable
// once parsed, so a cached tree is shared by every caller.
var registry sync.Map

// state tracks the parse of one source.
type state struct {
	once sync.Once
	prog *Program
	err  error
}

// ParseReader reads all of r and parses it into a [Program].
// Results are cached by content, so repeated parses of the same source
// (imported modules, the REPL history) return the same tree.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Program, error) {
	o := makeOptions(opts...)

	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("source", o.name))
	}

	o.logger.TraceContext(ctx, "read input",
		slog.String("source", o.name),
		slog.Int("bytes", len(data)),
	)

	return parseCached(ctx, string(data), opts...)
}

// ParseCached parses src, returning a cached tree if src was parsed before.
func ParseCached(ctx context.Context, src string, opts ...Option) (*Program, error) {
	return parseCached(ctx, src, opts...)
}

func parseCached(ctx context.Context, src string, opts ...Option) (*Program, error) {
	o := makeOptions(opts...)

	hash := xxh3.HashString(src)
	key := strconv.FormatUint(hash, 36)

	value, hit := registry.LoadOrStore(key, new(state))

	entry, ok := value.(*state)
	if !ok {
		registry.Delete(key)

		return ParseString(ctx, src, opts...)
	}

	o.logger.TraceContext(ctx, "cache lookup",
		slog.String("source", o.name),
		slog.String("source_hash", strconv.FormatUint(hash, 16)),
		slog.Bool("cache_hit", hit),
	)

	entry.once.Do(func() {
		entry.prog, entry.err = ParseString(ctx, src, opts...)
	})

	return entry.prog, entry.err
}

// ClearCache discards every cached parse result.
func ClearCache() {
	registry.Clear()
}
