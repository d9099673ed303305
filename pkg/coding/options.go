package coding

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfig indicates that the load options reference columns which do not
// exist in the parsed table, or that the options file itself is unusable.
var ErrConfig = errors.New("invalid load options")

const (
	// DefaultRaterCount is the number of leading columns treated as rater
	// columns when none are configured.
	DefaultRaterCount = 5

	// NoComment is the placeholder stored when the table carries no
	// comment column.
	NoComment = "No comment available"
)

// DefaultCategories is the category set used when none is configured.
var DefaultCategories = []string{"a", "b"}

// A Selector identifies one column of the input table, either by ordinal
// position or, when the table has a header row, by column name. Selectors
// are resolved into concrete indices once, at load time.
type Selector struct {
	Index int    `yaml:"index"`
	Name  string `yaml:"name"`

	named bool
}

// ByIndex selects the column at the given zero-based position.
// Negative positions count from the rightmost column, so ByIndex(-1) is the
// last column.
func ByIndex(i int) Selector {
	return Selector{Index: i}
}

// ByName selects the column with the given header label.
// Only valid when Options.Header is set.
func ByName(name string) Selector {
	return Selector{Name: name, named: true}
}

// UnmarshalYAML accepts either a bare integer or a string as a selector.
func (s *Selector) UnmarshalYAML(value *yaml.Node) error {
	var index int
	if err := value.Decode(&index); err == nil {
		*s = ByIndex(index)
		return nil
	}
	var name string
	if err := value.Decode(&name); err != nil {
		return fmt.Errorf("%w: selector must be a column index or name: %w", ErrConfig, err)
	}
	*s = ByName(name)
	return nil
}

// resolve maps the selector to a concrete column index.
func (s Selector) resolve(header []string, columns int) (int, error) {
	if s.named || s.Name != "" {
		if header == nil {
			return 0, fmt.Errorf("%w: selector %q names a column but the table has no header row", ErrConfig, s.Name)
		}
		for i, name := range header {
			if name == s.Name {
				return i, nil
			}
		}
		return 0, fmt.Errorf("%w: column %q not found in header %v", ErrConfig, s.Name, header)
	}

	index := s.Index
	if index < 0 {
		index += columns
	}
	if index < 0 || index >= columns {
		return 0, fmt.Errorf("%w: column index %d out of range (table has %d columns)", ErrConfig, s.Index, columns)
	}
	return index, nil
}

// Options describes how to read and validate one annotation table.
// The zero value selects tab-separated UTF-8 input with the first five
// columns as rater codes, the last column as the human reference, and the
// categories {a, b}.
type Options struct {
	// Delimiter is the field separator. Defaults to tab.
	Delimiter string `yaml:"delimiter"`

	// Encoding is the primary text encoding: "utf-8" (default) or "gbk".
	// UTF-8 input that fails to decode is retried as GBK before giving up.
	Encoding string `yaml:"encoding"`

	// Header indicates the first line is a header row rather than data.
	Header bool `yaml:"header"`

	// Raters selects the rater code columns, in order.
	Raters []Selector `yaml:"rater_columns"`

	// Reference selects the reference (human) code column.
	Reference *Selector `yaml:"reference_column"`

	// Categories is the closed set of valid code values.
	Categories []string `yaml:"categories"`
}

// LoadOptions reads Options from a YAML file.
func LoadOptions(path string) (Options, error) {
	var opts Options
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("%w: reading options file %q: %w", ErrConfig, path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("%w: parsing options file %q: %w", ErrConfig, path, err)
	}
	return opts, nil
}

func (o Options) delimiter() (rune, error) {
	if o.Delimiter == "" {
		return '\t', nil
	}
	runes := []rune(o.Delimiter)
	if len(runes) != 1 {
		return 0, fmt.Errorf("%w: delimiter must be a single character, got %q", ErrConfig, o.Delimiter)
	}
	return runes[0], nil
}

func (o Options) categories() []string {
	if len(o.Categories) == 0 {
		return DefaultCategories
	}
	return o.Categories
}

// raterSelectors returns the configured rater selectors, or the default
// first-five-columns selection clipped to whatever the table actually has
// beyond the reference column.
func (o Options) raterSelectors(columns int) []Selector {
	if len(o.Raters) > 0 {
		return o.Raters
	}
	n := DefaultRaterCount
	if columns-1 < n {
		n = columns - 1
	}
	selectors := make([]Selector, 0, n)
	for i := 0; i < n; i++ {
		selectors = append(selectors, ByIndex(i))
	}
	return selectors
}

func (o Options) referenceSelector() Selector {
	if o.Reference != nil {
		return *o.Reference
	}
	return ByIndex(-1)
}
