package coding_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/willbeason/coding-reliability/pkg/coding"
)

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	optionsPath := filepath.Join(dir, "options.yaml")
	optionsYAML := `delimiter: ","
header: true
rater_columns: [first, second]
reference_column: human
categories: [x, y]
`
	if err := os.WriteFile(optionsPath, []byte(optionsYAML), 0o644); err != nil {
		t.Fatalf("writing options file: %v", err)
	}

	opts, err := coding.LoadOptions(optionsPath)
	if err != nil {
		t.Fatalf("LoadOptions() error: %v", err)
	}

	if diff := cmp.Diff([]string{"x", "y"}, opts.Categories); diff != "" {
		t.Errorf("Categories diff (-want +got):\n%s", diff)
	}

	// The loaded options must drive an actual load, including named
	// selectors against the header row.
	inputPath := filepath.Join(dir, "codes.csv")
	if err := os.WriteFile(inputPath, []byte("first,second,human\nx,y,x\n"), 0o644); err != nil {
		t.Fatalf("writing input file: %v", err)
	}

	table, err := coding.Load(inputPath, opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff([]string{"x", "y"}, table.Rows[0].Codes); diff != "" {
		t.Errorf("Rows[0].Codes diff (-want +got):\n%s", diff)
	}
	if got := table.Rows[0].Reference; got != "x" {
		t.Errorf("Rows[0].Reference = %q, want %q", got, "x")
	}
}

func TestLoadOptions_Missing(t *testing.T) {
	_, err := coding.LoadOptions(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, coding.ErrConfig) {
		t.Errorf("LoadOptions() error = %v, want ErrConfig", err)
	}
}

func TestLoadOptions_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	if err := os.WriteFile(path, []byte("rater_columns: {bad"), 0o644); err != nil {
		t.Fatalf("writing options file: %v", err)
	}

	_, err := coding.LoadOptions(path)
	if !errors.Is(err, coding.ErrConfig) {
		t.Errorf("LoadOptions() error = %v, want ErrConfig", err)
	}
}
