package embedding

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Table is an in-memory word vector table.
type Table struct {
	vectors map[string]Vector
	dims    int
}

// LoadVectors reads word vectors in word2vec text format from path.
func LoadVectors(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ReadVectors(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ReadVectors parses word2vec text format: an optional "<count> <dims>"
// header, then one "<word> <v1> ... <vn>" line per word. Every vector must
// have the same length.
func ReadVectors(r io.Reader) (*Table, error) {
	t := &Table{vectors: make(map[string]Vector)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if line == 1 && len(fields) == 2 {
			if _, err := strconv.Atoi(fields[0]); err == nil {
				if _, err := strconv.Atoi(fields[1]); err == nil {
					continue
				}
			}
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: word without vector", line)
		}
		vec := make(Vector, len(fields)-1)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			vec[i] = float32(v)
		}
		if t.dims == 0 {
			t.dims = len(vec)
		} else if len(vec) != t.dims {
			return nil, fmt.Errorf("line %d: %d dimensions, want %d", line, len(vec), t.dims)
		}
		t.vectors[fields[0]] = vec
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// Len is the number of words in the table.
func (t *Table) Len() int { return len(t.vectors) }

// Vector returns the row for word.
func (t *Table) Vector(_ context.Context, word string) (Vector, error) {
	v, ok := t.vectors[word]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", word)
	}
	return v, nil
}

// Dims is the length of every row.
func (t *Table) Dims() int { return t.dims }
