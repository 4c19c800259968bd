package gtfs

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
)

var setupCSV sync.Once

// configureCSV tolerates short rows and a leading UTF-8 BOM, both common in
// agency exports.
func configureCSV() {
	setupCSV.Do(func() {
		gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
			r := csv.NewReader(skipBOM(in))
			r.FieldsPerRecord = -1
			r.LazyQuotes = true
			return r
		})
	})
}

func skipBOM(in io.Reader) io.Reader {
	br := bufio.NewReader(in)
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	return br
}

// readTable parses dir/name into rows. A missing file is reported with
// os.ErrNotExist so callers can tell it apart from a parse failure.
func readTable[T any](dir, name string) ([]T, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var rows []T
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return rows, nil
}

// loadTable reads one table into a map keyed by id. Rows without an id are
// skipped; on duplicate ids the last row wins. Any failure yields an empty
// map and a warning: a partial dataset is still usable.
func loadTable[T any](dir, name string, id func(T) string) map[string]T {
	out := map[string]T{}
	rows, err := readTable[T](dir, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn().Str("file", name).Str("dir", dir).Msg("GTFS table not found")
		} else {
			log.Warn().Err(err).Str("file", name).Msg("GTFS table could not be read")
		}
		return out
	}
	for _, row := range rows {
		if key := id(row); key != "" {
			out[key] = row
		}
	}
	return out
}

func loadTables(dir string) *tables {
	configureCSV()
	return &tables{
		routes: loadTable(dir, "routes.txt", func(r Route) string { return r.ID }),
		stops:  loadTable(dir, "stops.txt", func(s Stop) string { return s.ID }),
		trips:  loadTable(dir, "trips.txt", func(t Trip) string { return t.ID }),
	}
}
