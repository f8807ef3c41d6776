package rewind

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadOptions controls how ReadArchive locates the conversations array.
type ReadOptions struct {
	// ArrayField is the JSON field name that contains the conversation array,
	// when the top-level JSON value is an object.
	//
	// If empty, ReadArchive will use the first array-valued field.
	ArrayField string
}

// ReadResult contains basic stats from a read.
type ReadResult struct {
	Conversations int
	Bytes         int64
}

// ReadArchive streams an OpenAI conversations export and calls fn once per conversation,
// in document order.
//
// The input is expected to be either:
// - a top-level JSON array: [ { ...conversation... }, ... ]
// - a top-level JSON object containing an array field (e.g. { "conversations": [ ... ] })
//
// Only one conversation is decoded at a time. Malformed JSON yields an error wrapping
// ErrInvalidArchive; an error returned by fn stops the read and is returned as-is.
func ReadArchive(ctx context.Context, r io.Reader, opts ReadOptions, fn func(Conversation) error) (ReadResult, error) {
	if ctx == nil {
		return ReadResult{}, errors.New("ReadArchive: ctx is nil")
	}
	if r == nil {
		return ReadResult{}, errors.New("ReadArchive: reader is nil")
	}
	if fn == nil {
		return ReadResult{}, errors.New("ReadArchive: fn is nil")
	}

	cr := &countingReader{r: r}
	// The export is typically one huge line; use a larger buffer than default.
	dec := json.NewDecoder(bufio.NewReaderSize(cr, 1<<20))

	tok, err := dec.Token()
	if err != nil {
		return ReadResult{}, invalid("read first token", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return ReadResult{}, invalid(fmt.Sprintf("expected JSON array/object, got %T", tok), nil)
	}

	var res ReadResult
	switch delim {
	case '[':
		if err := readArrayFromOpen(ctx, dec, fn, &res); err != nil {
			return ReadResult{}, err
		}
		if err := expectDelim(dec, ']'); err != nil {
			return ReadResult{}, err
		}
	case '{':
		foundArray := false
		for dec.More() {
			if err := ctx.Err(); err != nil {
				return ReadResult{}, err
			}

			keyTok, err := dec.Token()
			if err != nil {
				return ReadResult{}, invalid("read object key", err)
			}
			key, ok := keyTok.(string)
			if !ok {
				return ReadResult{}, invalid(fmt.Sprintf("expected string key, got %T", keyTok), nil)
			}

			valTok, err := dec.Token()
			if err != nil {
				return ReadResult{}, invalid(fmt.Sprintf("read value token for key %q", key), err)
			}

			isTarget := opts.ArrayField != "" && key == opts.ArrayField
			if !isTarget && opts.ArrayField == "" && !foundArray {
				if d, ok := valTok.(json.Delim); ok && d == '[' {
					isTarget = true
				}
			}

			if isTarget {
				d, ok := valTok.(json.Delim)
				if !ok || d != '[' {
					return ReadResult{}, invalid(fmt.Sprintf("key %q was chosen as array but value isn't an array", key), nil)
				}
				foundArray = true
				if err := readArrayFromOpen(ctx, dec, fn, &res); err != nil {
					return ReadResult{}, err
				}
				if err := expectDelim(dec, ']'); err != nil {
					return ReadResult{}, err
				}
				continue
			}

			if err := skipValue(dec, valTok); err != nil {
				return ReadResult{}, invalid(fmt.Sprintf("skip key %q value", key), err)
			}
		}
		if err := expectDelim(dec, '}'); err != nil {
			return ReadResult{}, err
		}
		if !foundArray {
			return ReadResult{}, invalid("no conversations array found in top-level object", nil)
		}
	default:
		return ReadResult{}, invalid(fmt.Sprintf("unsupported top-level delimiter %q", delim), nil)
	}

	res.Bytes = cr.n
	return res, nil
}

// ReadArchiveFile opens path and streams it through ReadArchive.
func ReadArchiveFile(ctx context.Context, path string, opts ReadOptions, fn func(Conversation) error) (ReadResult, error) {
	if path == "" {
		return ReadResult{}, errors.New("ReadArchiveFile: path is empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return ReadResult{}, fmt.Errorf("ReadArchiveFile: open input: %w", err)
	}
	defer f.Close()
	return ReadArchive(ctx, f, opts, fn)
}

func readArrayFromOpen(ctx context.Context, dec *json.Decoder, fn func(Conversation) error, res *ReadResult) error {
	for dec.More() {
		if err := ctx.Err(); err != nil {
			return err
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return invalid("decode conversation element", err)
		}
		conv, err := DecodeConversation(raw)
		if err != nil {
			return fmt.Errorf("ReadArchive: element %d: %w", res.Conversations, err)
		}
		if err := fn(conv); err != nil {
			return err
		}
		res.Conversations++
	}
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return invalid(fmt.Sprintf("read closing %q", want), err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return invalid(fmt.Sprintf("expected closing %q, got %v", want, tok), nil)
	}
	return nil
}

func skipValue(dec *json.Decoder, first json.Token) error {
	d, ok := first.(json.Delim)
	if !ok {
		// Primitive (string/number/bool/null): already fully consumed.
		return nil
	}

	switch d {
	case '{', '[':
	default:
		return fmt.Errorf("skipValue: unexpected delimiter %q", d)
	}

	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if dd, ok := tok.(json.Delim); ok {
			switch dd {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

func invalid(step string, err error) error {
	if err == nil {
		return fmt.Errorf("ReadArchive: %s: %w", step, ErrInvalidArchive)
	}
	return fmt.Errorf("ReadArchive: %s: %w: %w", step, ErrInvalidArchive, err)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
