package lyrics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/singalong/internal/library"
	"github.com/llehouerou/singalong/internal/lrclib"
)

var (
	// ErrDownload marks a failure to reach the remote lyrics service.
	ErrDownload = errors.New("lyrics download failed")
	// ErrParse marks a remote response that could not be decoded.
	ErrParse = errors.New("lyrics response invalid")
)

// Remote looks up synced lyrics. *lrclib.Client implements it.
type Remote interface {
	Synced(ctx context.Context, q lrclib.Query) (string, error)
}

var _ Remote = (*lrclib.Client)(nil)

// Source tells where a resolved document came from.
type Source int

const (
	SourceNone Source = iota
	SourceLocalTimed
	SourceLocalPlain
	SourceCache
	SourceRemote
)

func (s Source) String() string {
	switch s {
	case SourceLocalTimed:
		return "local-timed"
	case SourceLocalPlain:
		return "local-plain"
	case SourceCache:
		return "cache"
	case SourceRemote:
		return "remote"
	default:
		return "none"
	}
}

// Result is a resolved document. Doc is never nil; it is empty when nothing
// was found.
type Result struct {
	Doc    *Document
	Source Source
	Path   string
}

func emptyResult() Result {
	return Result{Doc: &Document{}}
}

// Payload is a completed lookup: synced text from the cache or the remote
// service, nothing at all for not-found, or a download or parse error.
type Payload struct {
	Synced string
	Source Source
	Err    error
}

// Resolver finds the lyrics of a track: local timed file, local plain
// file, shared cache, then the remote service. Remote hits are written to
// the layout directory so the next resolution stays local.
type Resolver struct {
	layout Layout
	remote Remote
	cache  Cache
	log    *zap.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCache puts a shared cache in front of the remote service.
func WithCache(c Cache) ResolverOption {
	return func(r *Resolver) { r.cache = c }
}

// WithLogger sets the resolver's logger.
func WithLogger(log *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// NewResolver creates a resolver. remote may be nil for offline use.
func NewResolver(layout Layout, remote Remote, opts ...ResolverOption) *Resolver {
	r := &Resolver{layout: layout, remote: remote, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Layout returns the resolver's file layout.
func (r *Resolver) Layout() Layout {
	return r.layout
}

// Resolve runs the whole cascade synchronously. Not-found is never an
// error: the result is then empty and the track's timed-lyrics path is
// cleared. Download and parse failures are returned alongside the empty
// result.
func (r *Resolver) Resolve(ctx context.Context, t *library.Track) (Result, error) {
	if res, ok := r.ResolveLocal(t); ok {
		return res, nil
	}
	return r.Apply(t, r.Lookup(ctx, t))
}

// ResolveLocal tries the track's timed file, then its plain file. The
// track's own paths are tried before the layout's. ok is false when neither
// yields a line. A timed path that yields nothing is cleared once the plain
// file is used instead.
func (r *Resolver) ResolveLocal(t *library.Track) (Result, bool) {
	f := t.Fields()
	for _, path := range candidates(f.TimedLyricsPath, r.layout.TimedPath(f.Title)) {
		if doc := r.load(path, ParseLRC); !doc.IsEmpty() {
			return Result{Doc: doc, Source: SourceLocalTimed, Path: path}, true
		}
	}
	for _, path := range candidates(f.LyricsPath, r.layout.PlainPath(f.Title)) {
		if doc := r.load(path, ParsePlain); !doc.IsEmpty() {
			if f.TimedLyricsPath != "" {
				r.log.Debug("drop unusable timed lyrics path", zap.String("path", f.TimedLyricsPath))
				t.SetTimedLyricsPath("")
			}
			return Result{Doc: doc, Source: SourceLocalPlain, Path: path}, true
		}
	}
	return Result{}, false
}

// Lookup asks the cache, then the remote service, for t's synced lyrics.
// It is the only step that blocks on the network. Remote hits are written
// through to the cache.
func (r *Resolver) Lookup(ctx context.Context, t *library.Track) Payload {
	q := QueryFor(t)
	if q.Artist == "" || q.Title == "" {
		r.log.Debug("skip lyrics lookup: missing artist or title", zap.String("track", t.String()))
		return Payload{}
	}
	key := CacheKey(q)

	if r.cache != nil {
		synced, ok, err := r.cache.Get(ctx, key)
		switch {
		case err != nil:
			r.log.Warn("lyrics cache get", zap.String("key", key), zap.Error(err))
		case ok:
			return Payload{Synced: synced, Source: SourceCache}
		}
	}

	if r.remote == nil {
		return Payload{}
	}

	synced, err := r.remote.Synced(ctx, q)
	if err != nil {
		return r.lookupFailed(q, err)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, synced); err != nil {
			r.log.Warn("lyrics cache set", zap.String("key", key), zap.Error(err))
		}
	}
	return Payload{Synced: synced, Source: SourceRemote}
}

func (r *Resolver) lookupFailed(q lrclib.Query, err error) Payload {
	fields := []zap.Field{zap.String("artist", q.Artist), zap.String("title", q.Title)}

	var statusErr *lrclib.StatusError
	var parseErr *lrclib.ParseError
	switch {
	case errors.Is(err, lrclib.ErrNotFound):
		r.log.Debug("no remote lyrics", fields...)
		return Payload{}
	case errors.As(err, &statusErr):
		r.log.Warn("lyrics service error", append(fields, zap.Int("status", statusErr.Code))...)
		return Payload{}
	case errors.Is(err, context.Canceled):
		return Payload{Err: err}
	case errors.As(err, &parseErr):
		r.log.Warn("parse remote lyrics", append(fields, zap.Error(err))...)
		return Payload{Err: fmt.Errorf("%w: %w", ErrParse, err)}
	default:
		r.log.Warn("download remote lyrics", append(fields, zap.Error(err))...)
		return Payload{Err: fmt.Errorf("%w: %w", ErrDownload, err)}
	}
}

// Apply finishes a resolution from a completed lookup. Synced text is
// written as t's timed file and t points at it; anything else clears t's
// timed path and yields an empty result.
func (r *Resolver) Apply(t *library.Track, p Payload) (Result, error) {
	if p.Err != nil || p.Synced == "" {
		t.SetTimedLyricsPath("")
		return emptyResult(), p.Err
	}

	var buf bytes.Buffer
	if err := WriteLRC(&buf, HeaderFor(t), p.Synced); err != nil {
		t.SetTimedLyricsPath("")
		return emptyResult(), err
	}
	doc, err := ParseLRC(bytes.NewReader(buf.Bytes()))
	if err != nil || doc.IsEmpty() {
		r.log.Warn("remote lyrics have no timed lines", zap.String("track", t.String()))
		t.SetTimedLyricsPath("")
		return emptyResult(), nil
	}

	res := Result{Doc: doc, Source: p.Source}
	path := r.layout.TimedPath(t.Title())
	if err := writeFile(path, buf.Bytes()); err != nil {
		r.log.Warn("save lyrics", zap.String("path", path), zap.Error(err))
		t.SetTimedLyricsPath("")
		return res, nil
	}
	t.SetTimedLyricsPath(path)
	res.Path = path
	return res, nil
}

// QueryFor builds the remote query of t.
func QueryFor(t *library.Track) lrclib.Query {
	f := t.Fields()
	return lrclib.Query{
		Artist:   f.Artist,
		Title:    f.Title,
		Album:    f.Album,
		Duration: time.Duration(f.Duration) * time.Second,
	}
}

func (r *Resolver) load(path string, parse func(io.Reader) (*Document, error)) *Document {
	file, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.log.Warn("open lyrics file", zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	defer file.Close()

	doc, err := parse(file)
	if err != nil {
		r.log.Warn("read lyrics file", zap.String("path", path), zap.Error(err))
		return nil
	}
	return doc
}

func writeFile(path string, data []byte) error {
	if path == "" {
		return errors.New("no lyrics path for an untitled track")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// candidates returns the non-empty paths in order, without repeats.
func candidates(paths ...string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" || (len(out) > 0 && filepath.Clean(out[0]) == filepath.Clean(p)) {
			continue
		}
		out = append(out, p)
	}
	return out
}
