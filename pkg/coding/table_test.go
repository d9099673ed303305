package coding_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/willbeason/coding-reliability/pkg/coding"
)

func writeInput(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing test input: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// Four columns: defaults clip to three rater columns plus the last
	// column as reference.
	path := writeInput(t, "codes.txt", []byte("a\ta\ta\ta\na\tb\ta\ta\nb\tb\tb\tb\na\ta\tb\ta\n"))

	table, err := coding.Load(path, coding.Options{})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got := table.NRaters(); got != 3 {
		t.Errorf("NRaters() = %d, want 3", got)
	}
	if len(table.Rows) != 4 {
		t.Fatalf("len(Rows) = %d, want 4", len(table.Rows))
	}

	want := coding.Row{
		Number:    2,
		Codes:     []string{"a", "b", "a"},
		Reference: "a",
		Comment:   coding.NoComment,
	}
	if diff := cmp.Diff(want, table.Rows[1]); diff != "" {
		t.Errorf("Rows[1] diff (-want +got):\n%s", diff)
	}
	if table.BytesRead == 0 {
		t.Errorf("BytesRead = 0, want input size")
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := coding.Load(filepath.Join(t.TempDir(), "missing.txt"), coding.Options{})
	if !errors.Is(err, coding.ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestLoad_Empty(t *testing.T) {
	path := writeInput(t, "empty.txt", nil)

	_, err := coding.Load(path, coding.Options{})
	if !errors.Is(err, coding.ErrFormat) {
		t.Errorf("Load() error = %v, want ErrFormat", err)
	}
}

func TestLoad_InvalidCategory(t *testing.T) {
	// Fail-fast: the error must name the first offending row, 1-based.
	path := writeInput(t, "codes.txt", []byte("a\ta\ta\nc\tb\tb\nc\tc\tc\n"))

	_, err := coding.Load(path, coding.Options{
		Raters:     []coding.Selector{coding.ByIndex(0), coding.ByIndex(1)},
		Categories: []string{"a", "b"},
	})
	if !errors.Is(err, coding.ErrValidation) {
		t.Fatalf("Load() error = %v, want ErrValidation", err)
	}
	if got := err.Error(); !strings.Contains(got, "row 2") {
		t.Errorf("error %q does not name row 2", got)
	}
}

func TestLoad_InvalidCategoryWithHeader(t *testing.T) {
	// With a header row, the reported row number counts physical file
	// lines: the offending second data record sits on line 3.
	path := writeInput(t, "codes.txt", []byte("first\tsecond\thuman\na\ta\ta\nc\tb\tb\n"))

	_, err := coding.Load(path, coding.Options{
		Header:     true,
		Raters:     []coding.Selector{coding.ByName("first"), coding.ByName("second")},
		Reference:  selectorPtr(coding.ByName("human")),
		Categories: []string{"a", "b"},
	})
	if !errors.Is(err, coding.ErrValidation) {
		t.Fatalf("Load() error = %v, want ErrValidation", err)
	}
	if got := err.Error(); !strings.Contains(got, "row 3") {
		t.Errorf("error %q does not name file line 3", got)
	}
}

func TestLoad_MissingValuesDropped(t *testing.T) {
	path := writeInput(t, "codes.txt", []byte("a\ta\ta\n\tb\tb\nb\tb\tb\n"))

	table, err := coding.Load(path, coding.Options{
		Raters: []coding.Selector{coding.ByIndex(0), coding.ByIndex(1)},
	})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2 after dropping incomplete row", len(table.Rows))
	}
	// Row numbers are positions in the input file, not the filtered table.
	if table.Rows[1].Number != 3 {
		t.Errorf("Rows[1].Number = %d, want 3", table.Rows[1].Number)
	}
}

func TestLoad_AllRowsIncomplete(t *testing.T) {
	path := writeInput(t, "codes.txt", []byte("\ta\ta\na\t\tb\n"))

	_, err := coding.Load(path, coding.Options{
		Raters: []coding.Selector{coding.ByIndex(0), coding.ByIndex(1)},
	})
	if !errors.Is(err, coding.ErrValidation) {
		t.Errorf("Load() error = %v, want ErrValidation", err)
	}
}

func TestLoad_CommentColumn(t *testing.T) {
	// Two raters, reference, plus an unclaimed trailing column: the
	// trailing column is the comment.
	path := writeInput(t, "codes.txt", []byte("a\ta\ta\tlooks fine\nb\ta\tb\tborderline case\n"))

	table, err := coding.Load(path, coding.Options{
		Raters:    []coding.Selector{coding.ByIndex(0), coding.ByIndex(1)},
		Reference: selectorPtr(coding.ByIndex(2)),
	})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := table.Rows[1].Comment; got != "borderline case" {
		t.Errorf("Rows[1].Comment = %q, want %q", got, "borderline case")
	}
}

func TestLoad_GBKFallback(t *testing.T) {
	// 0xD6D0 0xCEC4 is GBK text and not valid UTF-8; loading must fall
	// back to the GBK decoder.
	content := append([]byte("a\ta\ta\t"), 0xD6, 0xD0, 0xCE, 0xC4)
	content = append(content, '\n')
	path := writeInput(t, "codes.txt", content)

	table, err := coding.Load(path, coding.Options{
		Raters:    []coding.Selector{coding.ByIndex(0), coding.ByIndex(1)},
		Reference: selectorPtr(coding.ByIndex(2)),
	})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := table.Rows[0].Comment; got != "中文" {
		t.Errorf("Rows[0].Comment = %q, want decoded GBK text", got)
	}
}

func TestLoad_SelectorOutOfRange(t *testing.T) {
	path := writeInput(t, "codes.txt", []byte("a\ta\n"))

	_, err := coding.Load(path, coding.Options{
		Raters: []coding.Selector{coding.ByIndex(0), coding.ByIndex(7)},
	})
	if !errors.Is(err, coding.ErrConfig) {
		t.Errorf("Load() error = %v, want ErrConfig", err)
	}
}

func TestLoad_NamedSelectors(t *testing.T) {
	path := writeInput(t, "codes.txt", []byte("first\tsecond\thuman\na\tb\ta\n"))

	table, err := coding.Load(path, coding.Options{
		Header:    true,
		Raters:    []coding.Selector{coding.ByName("first"), coding.ByName("second")},
		Reference: selectorPtr(coding.ByName("human")),
	})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := []string{"a", "b"}
	if diff := cmp.Diff(want, table.Rows[0].Codes); diff != "" {
		t.Errorf("Rows[0].Codes diff (-want +got):\n%s", diff)
	}
}

func TestLoad_NamedSelectorWithoutHeader(t *testing.T) {
	path := writeInput(t, "codes.txt", []byte("a\tb\ta\n"))

	_, err := coding.Load(path, coding.Options{
		Raters: []coding.Selector{coding.ByName("first"), coding.ByIndex(1)},
	})
	if !errors.Is(err, coding.ErrConfig) {
		t.Errorf("Load() error = %v, want ErrConfig", err)
	}
}

func TestLoad_BadDelimiter(t *testing.T) {
	path := writeInput(t, "codes.txt", []byte("a\ta\n"))

	_, err := coding.Load(path, coding.Options{Delimiter: "||"})
	if !errors.Is(err, coding.ErrConfig) {
		t.Errorf("Load() error = %v, want ErrConfig", err)
	}
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "trailing newline", in: "/tmp/data.txt\n", want: "/tmp/data.txt"},
		{name: "zero-width space", in: "/tmp/​data.txt", want: "/tmp/data.txt"},
		{name: "redundant separators", in: "/tmp//x/../data.txt", want: "/tmp/data.txt"},
		{name: "surrounding spaces", in: "  /tmp/data.txt  ", want: "/tmp/data.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := coding.CleanPath(tt.in); got != tt.want {
				t.Errorf("CleanPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func selectorPtr(s coding.Selector) *coding.Selector {
	return &s
}
