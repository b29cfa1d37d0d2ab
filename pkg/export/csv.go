// Package export reads and writes the follower series as CSV with the header
// "Date,Count".
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/HatiCode/followcast/pkg/storage"
)

// ErrMalformed is returned for CSV input that does not match the format.
var ErrMalformed = errors.New("malformed csv")

// ContentType and Filename describe the download produced by WriteCSV.
const (
	ContentType = "text/csv"
	Filename    = "followers_data.csv"
)

var header = []string{"Date", "Count"}

// WriteCSV writes the header followed by one row per sample, in the order
// given.
func WriteCSV(w io.Writer, samples []storage.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range samples {
		if err := cw.Write([]string{s.Key(), strconv.Itoa(s.Count)}); err != nil {
			return fmt.Errorf("write %s: %w", s.Key(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a document produced by WriteCSV. The header is required
// and matched case-insensitively. Samples are returned ascending by date;
// repeated dates are kept so the caller can reject them.
func ReadCSV(r io.Reader) ([]storage.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)
	cr.TrimLeadingSpace = true

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	for i, name := range header {
		if !strings.EqualFold(strings.TrimSpace(first[i]), name) {
			return nil, fmt.Errorf("%w: header must be %q", ErrMalformed, strings.Join(header, ","))
		}
	}

	var samples []storage.Sample
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}

		line, _ := cr.FieldPos(0)
		count, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: count %q is not an integer", ErrMalformed, line, rec[1])
		}
		s, err := storage.NewSample(strings.TrimSpace(rec[0]), count)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformed, line, err)
		}
		samples = append(samples, s)
	}

	slices.SortStableFunc(samples, func(a, b storage.Sample) int {
		return a.Date.Compare(b.Date)
	})
	return samples, nil
}
