package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// evalLog appends one CSV row per evaluation. The columns depend on the
// parameter vector, so rows are written with encoding/csv rather than tagged
// structs.
type evalLog struct {
	f *os.File
	w *csv.Writer
}

func newEvalLog(path string, params *ParamVector) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create evaluation log: %w", err)
	}
	l := &evalLog{f: f, w: csv.NewWriter(f)}

	header := []string{"eval", "fitness", "settle_sec", "response"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := l.write(header); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

// Record writes one evaluation and flushes it.
func (l *evalLog) Record(eval int, fitness, settle, response float64, values []float64) error {
	row := []string{
		strconv.Itoa(eval),
		strconv.FormatFloat(fitness, 'f', 6, 64),
		strconv.FormatFloat(settle, 'f', 3, 64),
		strconv.FormatFloat(response, 'f', 3, 64),
	}
	for _, v := range values {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	return l.write(row)
}

func (l *evalLog) write(row []string) error {
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("write evaluation log: %w", err)
	}
	l.w.Flush()
	return l.w.Error()
}

// Close flushes and closes the file.
func (l *evalLog) Close() error {
	l.w.Flush()
	return l.f.Close()
}
