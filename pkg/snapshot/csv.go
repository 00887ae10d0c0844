// pkg/snapshot/csv.go
package snapshot

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/model"
)

// CSVWriter writes the raw records of a run as a CSV file with a header row
type CSVWriter struct {
	path   string
	logger *zap.Logger
}

// NewCSVWriter creates a writer for path
func NewCSVWriter(path string, logger *zap.Logger) *CSVWriter {
	return &CSVWriter{
		path:   path,
		logger: logger.Named("snapshot-csv"),
	}
}

// Path returns the destination file
func (w *CSVWriter) Path() string {
	return w.path
}

// Write replaces the file with the records. The file is written next to its
// destination and renamed, so a failed write leaves the previous snapshot.
func (w *CSVWriter) Write(records []model.RawTrialRecord) (err error) {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = WriteCSV(tmp, records); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot file: %w", err)
	}
	if err = os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}

	w.logger.Info("Wrote snapshot",
		zap.String("path", w.path),
		zap.Int("records", len(records)))
	return nil
}

// WriteCSV encodes records in RawColumns order after a header row
func WriteCSV(out io.Writer, records []model.RawTrialRecord) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(model.RawColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := make([]string, len(model.RawColumns))
	for _, r := range records {
		for i, v := range r.Values() {
			row[i], _ = v.(string)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %s: %w", r.NCTID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// ReadCSV decodes a snapshot written by WriteCSV
func ReadCSV(in io.Reader) ([]model.RawTrialRecord, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = len(model.RawColumns)

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV has no header")
	}

	records := make([]model.RawTrialRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, model.RawTrialRecord{
			NCTID:              row[0],
			BriefTitle:         row[1],
			OfficialTitle:      row[2],
			OverallStatus:      row[3],
			Conditions:         row[4],
			Interventions:      row[5],
			StudyFirstPostDate: row[6],
			LastUpdatePostDate: row[7],
			Phases:             row[8],
			StudyType:          row[9],
			Sex:                row[10],
			MinimumAge:         row[11],
			MaximumAge:         row[12],
		})
	}
	return records, nil
}
