package sink

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestWriter_OneValuePerLine(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.Append([]float64{1.5, -2, 0.000125}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := w.Append([]float64{42}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	want := []float64{1.5, -2, 0.000125, 42}
	scanner := bufio.NewScanner(&buf)
	i := 0
	for scanner.Scan() {
		if i >= len(want) {
			t.Fatalf("more lines than expected: %q", scanner.Text())
		}
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			t.Fatalf("line %d does not parse: %v", i, err)
		}
		if v != want[i] {
			t.Errorf("line %d: expected %v, got %v", i, want[i], v)
		}
		i++
	}
	if i != len(want) {
		t.Errorf("expected %d lines, got %d", len(want), i)
	}
}

func TestWriter_EmptyBatch(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.Append(nil); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected empty output, got %q", buf.String())
	}
}

func TestCreate_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	w, err := Create(path)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := w.Append([]float64{1, 2, 3}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if string(data) != "1\n2\n3\n" {
		t.Errorf("unexpected file contents: %q", data)
	}
}

func TestCreate_BadPath(t *testing.T) {
	if _, err := Create(filepath.Join(t.TempDir(), "no", "such", "dir", "f.txt")); err == nil {
		t.Error("expected error for unwritable path")
	}
}
