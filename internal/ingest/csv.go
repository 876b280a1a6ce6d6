package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmptyCSV         = errors.New("CSV file is empty or invalid")
	ErrMalformedCSV     = errors.New("CSV file is malformed")
	ErrNoFeedbackColumn = errors.New("CSV file must contain a column named 'feedback_text', 'feedback', 'text', 'comment', or 'review'")
	ErrNoFeedbackRows   = errors.New("no valid feedback data found in the CSV file")
)

// FeedbackColumns are the accepted header names, matched case-insensitively.
// The first header matching any of them wins.
var FeedbackColumns = []string{"feedback_text", "feedback", "text", "comment", "review"}

// cells read as missing values and dropped, as spreadsheet exports write them
var missingValues = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// Parsed is the feedback column of an uploaded CSV.
type Parsed struct {
	Column string
	Texts  []string
}

// IsCSVFilename reports whether an upload name carries the .csv suffix.
func IsCSVFilename(name string) bool {
	return strings.HasSuffix(name, ".csv")
}

// ReadFeedbackCSV reads the header row, picks the feedback column and
// returns its non-missing cells in row order. Other columns are ignored.
func ReadFeedbackCSV(r io.Reader) (Parsed, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Parsed{}, ErrEmptyCSV
	}
	if err != nil {
		return Parsed{}, readFailure(err, ErrEmptyCSV)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	col := findFeedbackColumn(header)
	if col < 0 {
		return Parsed{}, ErrNoFeedbackColumn
	}

	parsed := Parsed{Column: header[col]}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Parsed{}, readFailure(err, ErrMalformedCSV)
		}
		if col >= len(record) {
			continue
		}
		cell := record[col]
		if _, missing := missingValues[strings.TrimSpace(cell)]; missing {
			continue
		}
		if !utf8.ValidString(cell) {
			line, _ := reader.FieldPos(col)
			return Parsed{}, fmt.Errorf("%w: line %d is not valid UTF-8", ErrMalformedCSV, line)
		}
		parsed.Texts = append(parsed.Texts, cell)
	}

	if len(parsed.Texts) == 0 {
		return Parsed{}, ErrNoFeedbackRows
	}
	return parsed, nil
}

// readFailure reports a csv syntax error as invalid, wrapped in sentinel.
// Errors of the underlying reader, such as an exceeded body limit, are
// passed through wrapped.
func readFailure(err, sentinel error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("%w: %v", sentinel, parseErr)
	}
	return fmt.Errorf("read csv: %w", err)
}

func findFeedbackColumn(header []string) int {
	for i, name := range header {
		lower := strings.ToLower(name)
		for _, want := range FeedbackColumns {
			if lower == want {
				return i
			}
		}
	}
	return -1
}
