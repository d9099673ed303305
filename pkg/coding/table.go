package coding

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"unicode/utf8"

	"github.com/willbeason/bondsmith"
	"golang.org/x/text/encoding/simplifiedchinese"
)

var (
	// ErrNotFound indicates the input path does not resolve to a file.
	ErrNotFound = errors.New("file not found")

	// ErrFormat indicates the input could not be read as a delimited table:
	// undecodable bytes, malformed records, or no data at all.
	ErrFormat = errors.New("unreadable table")

	// ErrValidation indicates the table parsed but its content is unusable:
	// a code outside the valid category set, or no rows left after dropping
	// incomplete ones.
	ErrValidation = errors.New("invalid data")
)

// A Row is one annotated case: the codes assigned by each rater, the
// reference (human) code, and a free-text comment.
type Row struct {
	// Number is the 1-based position of the row among the data records,
	// used to identify disagreement cases in reports.
	Number int

	Codes     []string
	Reference string
	Comment   string
}

// A Table is an ordered set of categorical annotations by several raters
// plus one reference rater. Tables are immutable after Load; each analysis
// run loads its own copy.
type Table struct {
	// Path is the cleaned path the table was loaded from.
	Path string

	// Categories is the valid code set every value was checked against.
	Categories []string

	Rows []Row

	// BytesRead is the size of the decoded input consumed during loading.
	BytesRead int64
}

// NRaters returns the number of rater columns.
func (t *Table) NRaters() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0].Codes)
}

// Load reads, decodes, and validates an annotation table.
//
// The path is cleaned before any filesystem access. Input is decoded as
// UTF-8 first and retried once as GBK when that fails. Rows whose rater or
// reference cells are empty are dropped after validation; every remaining
// value is guaranteed to be in opts.Categories.
func Load(path string, opts Options) (*Table, error) {
	path = CleanPath(path)

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %q does not exist, check the file path", ErrNotFound, path)
	}

	delimiter, err := opts.delimiter()
	if err != nil {
		return nil, err
	}
	if err := checkEncoding(opts.Encoding); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %q: %w", ErrFormat, path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Println(err)
		}
	}()

	countReader := bondsmith.NewCountReader(file)
	raw, err := io.ReadAll(countReader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %q: %w", ErrFormat, path, err)
	}

	decoded, err := decode(raw, opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %q: %w", ErrFormat, path, err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = delimiter
	reader.FieldsPerRecord = 0
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parsing %q: %w", ErrFormat, path, err)
		}
		records = append(records, record)
	}

	var header []string
	headerLines := 0
	if opts.Header && len(records) > 0 {
		header = records[0]
		records = records[1:]
		headerLines = 1
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %q contains no data to analyze", ErrFormat, path)
	}

	columns := len(records[0])

	raterIndices, referenceIndex, commentIndex, err := resolveColumns(opts, header, columns)
	if err != nil {
		return nil, err
	}

	table := &Table{
		Path:       path,
		Categories: opts.categories(),
		BytesRead:  int64(countReader.Count()),
	}

	// Category check is fail-fast: the first offending row aborts the load.
	// Empty cells are not category violations; rows containing them are
	// dropped below.
	for i, record := range records {
		values := make([]string, 0, len(raterIndices)+1)
		for _, idx := range raterIndices {
			values = append(values, record[idx])
		}
		values = append(values, record[referenceIndex])

		for _, value := range values {
			if value == "" {
				continue
			}
			if !slices.Contains(table.Categories, value) {
				// Count from the top of the file so the reported row is a
				// physical line number even when a header is configured.
				return nil, fmt.Errorf("%w: row %d contains values outside categories %v: %v",
					ErrValidation, i+1+headerLines, table.Categories, values)
			}
		}
	}

	for i, record := range records {
		row := Row{
			Number:    i + 1,
			Codes:     make([]string, 0, len(raterIndices)),
			Reference: record[referenceIndex],
			Comment:   NoComment,
		}
		if commentIndex >= 0 {
			row.Comment = record[commentIndex]
		}

		complete := row.Reference != ""
		for _, idx := range raterIndices {
			if record[idx] == "" {
				complete = false
			}
			row.Codes = append(row.Codes, record[idx])
		}
		if !complete {
			continue
		}

		table.Rows = append(table.Rows, row)
	}

	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%w: %q has no complete rows after removing missing values", ErrValidation, path)
	}

	return table, nil
}

// resolveColumns turns the configured selectors into concrete indices and
// identifies the comment column: the highest-index column claimed by neither
// the raters nor the reference. Returns -1 when every column is claimed.
func resolveColumns(opts Options, header []string, columns int) (raters []int, reference, comment int, err error) {
	selectors := opts.raterSelectors(columns)
	raters = make([]int, 0, len(selectors))

	claimed := make(map[int]bool, columns)
	for _, selector := range selectors {
		idx, err := selector.resolve(header, columns)
		if err != nil {
			return nil, 0, 0, err
		}
		raters = append(raters, idx)
		claimed[idx] = true
	}

	reference, err = opts.referenceSelector().resolve(header, columns)
	if err != nil {
		return nil, 0, 0, err
	}
	claimed[reference] = true

	comment = -1
	for i := columns - 1; i >= 0; i-- {
		if !claimed[i] {
			comment = i
			break
		}
	}
	return raters, reference, comment, nil
}

func checkEncoding(encoding string) error {
	switch encoding {
	case "", "utf-8", "utf8", "UTF-8", "gbk", "GBK":
		return nil
	default:
		return fmt.Errorf("%w: unsupported encoding %q (use utf-8 or gbk)", ErrConfig, encoding)
	}
}

// decode returns the input as UTF-8 text. When the primary encoding fails,
// it falls back to GBK once before giving up; annotation tables in the wild
// are sometimes exported with that regional encoding.
func decode(raw []byte, encoding string) ([]byte, error) {
	switch encoding {
	case "gbk", "GBK":
		return simplifiedchinese.GBK.NewDecoder().Bytes(raw)
	default:
		if utf8.Valid(raw) {
			return raw, nil
		}
	}

	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("not valid utf-8, and gbk fallback failed: %w", err)
	}
	return decoded, nil
}
