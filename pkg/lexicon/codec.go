package lexicon

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// WriteJSON writes the lexicon as a JSON object in insertion order, two-space
// indented, with non-ASCII text and HTML characters left unescaped.
func (l *Lexicon) WriteJSON(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if l.Len() == 0 {
		bw.WriteString("{}")
		return bw.Flush()
	}

	bw.WriteString("{\n")
	for i, k := range l.keys {
		key, err := quote(k)
		if err != nil {
			return err
		}
		bw.WriteString("  ")
		bw.Write(key)
		bw.WriteString(`: "`)
		bw.WriteString(l.tags[k].String())
		bw.WriteByte('"')
		if i < len(l.keys)-1 {
			bw.WriteByte(',')
		}
		bw.WriteByte('\n')
	}
	bw.WriteByte('}')
	return bw.Flush()
}

// MarshalJSON implements json.Marshaler, preserving insertion order.
func (l *Lexicon) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := l.WriteJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func quote(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode reads a single JSON object from r and rejects any trailing data.
func Decode(r io.Reader) (*Lexicon, error) {
	dec := json.NewDecoder(r)
	lex, err := decodeObject(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after lexicon object")
	}
	return lex, nil
}

// DecodePrefix reads the first JSON object from r and ignores what follows,
// for objects embedded in a larger document.
func DecodePrefix(r io.Reader) (*Lexicon, error) {
	return decodeObject(json.NewDecoder(r))
}

func decodeObject(dec *json.Decoder) (*Lexicon, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("read lexicon: expected object, got %v", tok)
	}

	lex := New()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read lexicon key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("read lexicon: expected key, got %v", keyTok)
		}
		var tag Tag
		if err := dec.Decode(&tag); err != nil {
			return nil, fmt.Errorf("read lexicon entry %q: %w", key, err)
		}
		if key == "" {
			return nil, fmt.Errorf("read lexicon: empty key")
		}
		if !lex.Add(key, tag) {
			return nil, fmt.Errorf("read lexicon: duplicate key %q", key)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return lex, nil
}
