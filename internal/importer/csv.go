package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// RowError reports one rejected CSV row; row numbers are 1-based and
// include the header.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// CSVResult carries the rows that parsed and the ones that did not.
// A file where every row fails still parses successfully.
type CSVResult struct {
	Races  []ParsedRace
	Errors []RowError
}

// ErrInvalidFile marks uploads that cannot be parsed at all, as opposed to
// infrastructure failures while storing their rows.
var ErrInvalidFile = errors.New("invalid import file")

var csvHeader = []string{"name", "sport", "date", "distance_km", "finish_time"}

const maxCSVRows = 1000

// ParseCSV reads races from a CSV with header
// name,sport,date,distance_km,finish_time. Bad rows are collected as
// RowErrors instead of aborting the batch.
func ParseCSV(r io.Reader) (*CSVResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %v", ErrInvalidFile, err)
	}
	if !headerMatches(header) {
		return nil, fmt.Errorf("%w: unexpected CSV header, want %s", ErrInvalidFile, strings.Join(csvHeader, ","))
	}

	result := &CSVResult{}
	for row := 2; ; row++ {
		if row > maxCSVRows+1 {
			return nil, fmt.Errorf("%w: CSV exceeds %d rows", ErrInvalidFile, maxCSVRows)
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Reason: err.Error()})
			continue
		}

		race, err := parseCSVRow(record)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Reason: err.Error()})
			continue
		}
		result.Races = append(result.Races, *race)
	}

	return result, nil
}

func headerMatches(header []string) bool {
	if len(header) != len(csvHeader) {
		return false
	}
	for i, col := range header {
		if strings.ToLower(strings.TrimSpace(col)) != csvHeader[i] {
			return false
		}
	}
	return true
}

func parseCSVRow(record []string) (*ParsedRace, error) {
	name := strings.TrimSpace(record[0])
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(record[2]))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", record[2])
	}

	distanceKm, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil || distanceKm <= 0 {
		return nil, fmt.Errorf("invalid distance_km %q", record[3])
	}

	race := &ParsedRace{
		Name:      name,
		Sport:     normalizeSport(record[1]),
		Date:      date,
		DistanceM: distanceKm * 1000,
	}

	if raw := strings.TrimSpace(record[4]); raw != "" {
		finish, err := parseFinishTime(raw)
		if err != nil {
			return nil, err
		}
		race.FinishTime = &finish
	}

	return race, nil
}

// parseFinishTime accepts H:MM:SS or MM:SS.
func parseFinishTime(raw string) (time.Duration, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid finish_time %q, want H:MM:SS", raw)
	}

	var total time.Duration
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid finish_time %q, want H:MM:SS", raw)
		}
		total = total*60 + time.Duration(n)*time.Second
	}
	if total == 0 {
		return 0, fmt.Errorf("finish_time must be positive")
	}
	return total, nil
}
