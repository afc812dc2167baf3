package embedding

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadVectors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		words   int
		dims    int
		wantErr bool
	}{
		{"with header", "2 3\nbody 1 0 0\nabdomen 0.8 0.6 0\n", 2, 3, false},
		{"without header", "body 1 0\nnurse 0 1\n\n", 2, 2, false},
		{"ragged", "body 1 0 0\nnurse 0 1\n", 0, 0, true},
		{"not a number", "body 1 x\n", 0, 0, true},
		{"bare word", "body\n", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab, err := ReadVectors(strings.NewReader(tt.in))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if tab.Len() != tt.words || tab.Dims() != tt.dims {
				t.Errorf("got %d words of %d dims, want %d of %d", tab.Len(), tab.Dims(), tt.words, tt.dims)
			}
		})
	}
}

func TestLoadVectors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.txt")
	if err := os.WriteFile(path, []byte("body 1 0\nabdomen 1 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tab, err := LoadVectors(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	v, err := tab.Vector(context.Background(), "abdomen")
	if err != nil || len(v) != 2 {
		t.Fatalf("embed: %v %v", v, err)
	}
	if _, err := tab.Vector(context.Background(), "capability"); err == nil {
		t.Error("expected error for unknown word")
	}
	if _, err := LoadVectors(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
