// Package emit writes a lexicon to its output artifacts: a JSON document and
// three source modules (TypeScript, ES module, CommonJS) that wrap the same
// object.
package emit

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/japaniel/namelex/pkg/lexicon"
)

// EmitStructured writes lex as a JSON document at path.
func EmitStructured(lex *lexicon.Lexicon, path string) error {
	_, err := emit(lex, path, FormatJSON)
	return err
}

// EmitSourceModule writes lex as an importable source module of the given
// flavor. Only the wrapping differs between flavors.
func EmitSourceModule(lex *lexicon.Lexicon, path string, f Format) error {
	_, err := emitModule(lex, path, f)
	return err
}

func emitModule(lex *lexicon.Lexicon, path string, f Format) (int64, error) {
	syntax, ok := modules[f]
	if !ok {
		return 0, &WriteError{Format: f, Path: path, Err: fmt.Errorf("%q is not a source module format", f)}
	}
	return writeArtifact(path, f, func(w io.Writer) error {
		if _, err := io.WriteString(w, header+syntax.prefix); err != nil {
			return err
		}
		if err := lex.WriteJSON(w); err != nil {
			return err
		}
		_, err := io.WriteString(w, syntax.trailer)
		return err
	})
}

// emit writes one artifact of any format and returns its size.
func emit(lex *lexicon.Lexicon, path string, f Format) (int64, error) {
	if f == FormatJSON {
		return writeArtifact(path, f, func(w io.Writer) error {
			if err := lex.WriteJSON(w); err != nil {
				return err
			}
			_, err := io.WriteString(w, "\n")
			return err
		})
	}
	return emitModule(lex, path, f)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// writeArtifact writes to a temporary sibling of path and renames it into
// place, so readers never observe a partial artifact.
func writeArtifact(path string, f Format, write func(io.Writer) error) (int64, error) {
	fail := func(err error) (int64, error) {
		return 0, &WriteError{Format: f, Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fail(err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	bw := bufio.NewWriter(tmp)
	cw := &countingWriter{w: bw}
	if err := write(cw); err != nil {
		tmp.Close()
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fail(err)
	}
	return cw.n, nil
}

// Result is the outcome of writing one artifact.
type Result struct {
	Format   Format
	Path     string
	Bytes    int64
	Duration time.Duration
	Err      error
}

// Emitter writes a set of artifacts into one directory.
type Emitter struct {
	Dir      string
	BaseName string
	Formats  []Format
	// Parallel writes artifacts concurrently. The lexicon is only read.
	Parallel bool
	log      *zap.Logger
}

// NewEmitter creates an Emitter for every format.
func NewEmitter(dir, baseName string, log *zap.Logger) *Emitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Emitter{Dir: dir, BaseName: baseName, Formats: Formats, log: log}
}

// EmitAll writes every configured artifact and returns one Result per format,
// in e.Formats order. A failed artifact never stops the others.
func (e *Emitter) EmitAll(ctx context.Context, lex *lexicon.Lexicon) []Result {
	results := make([]Result, len(e.Formats))
	run := func(i int) {
		f := e.Formats[i]
		path := filepath.Join(e.Dir, f.FileName(e.BaseName))
		res := Result{Format: f, Path: path}
		start := time.Now()
		if err := ctx.Err(); err != nil {
			res.Err = &WriteError{Format: f, Path: path, Err: err}
		} else {
			res.Bytes, res.Err = emit(lex, path, f)
		}
		res.Duration = time.Since(start)
		results[i] = res

		if res.Err != nil {
			e.log.Error("artifact write failed", zap.String("format", string(f)), zap.String("path", path), zap.Error(res.Err))
			return
		}
		e.log.Info("artifact written",
			zap.String("format", string(f)),
			zap.String("path", path),
			zap.Int64("bytes", res.Bytes),
			zap.Duration("duration", res.Duration),
		)
	}

	if !e.Parallel {
		for i := range e.Formats {
			run(i)
		}
		return results
	}

	var g errgroup.Group
	for i := range e.Formats {
		g.Go(func() error {
			run(i)
			return nil
		})
	}
	_ = g.Wait() // failures live in results
	return results
}
