package emit

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/japaniel/namelex/pkg/lexicon"
)

// ReadArtifact decodes an artifact written by this package back into a Lexicon.
func ReadArtifact(path string, f Format) (*lexicon.Lexicon, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if f == FormatJSON {
		return lexicon.Decode(bytes.NewReader(content))
	}

	syntax, ok := modules[f]
	if !ok {
		return nil, fmt.Errorf("unknown artifact format %q", f)
	}
	idx := bytes.Index(content, []byte(syntax.prefix))
	if idx < 0 {
		return nil, fmt.Errorf("%s: missing %q declaration", path, strings.TrimSpace(syntax.prefix))
	}
	if !bytes.HasSuffix(content, []byte(syntax.trailer)) {
		return nil, fmt.Errorf("%s: unexpected module trailer", path)
	}
	lex, err := lexicon.DecodePrefix(bytes.NewReader(content[idx+len(syntax.prefix):]))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lex, nil
}

// Verify decodes the artifacts of every format in dir and checks that they
// encode the same (name, tag) pairs. It returns the decoded JSON lexicon.
func Verify(dir, baseName string, formats []Format) (*lexicon.Lexicon, error) {
	if len(formats) == 0 {
		return nil, fmt.Errorf("no formats to verify")
	}
	var (
		ref     *lexicon.Lexicon
		refFmt  Format
		problem []string
	)
	for _, f := range formats {
		path := filepath.Join(dir, f.FileName(baseName))
		lex, err := ReadArtifact(path, f)
		if err != nil {
			problem = append(problem, fmt.Sprintf("%s: %v", f, err))
			continue
		}
		if ref == nil {
			ref, refFmt = lex, f
			continue
		}
		if !ref.Equal(lex) {
			problem = append(problem, fmt.Sprintf("%s differs from %s (%d vs %d entries)", f, refFmt, lex.Len(), ref.Len()))
		}
	}
	if len(problem) > 0 {
		return nil, fmt.Errorf("artifact verification failed: %s", strings.Join(problem, "; "))
	}
	return ref, nil
}
