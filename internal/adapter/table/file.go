package table

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/neo-risk-etl/internal/domain"
	"github.com/couchcryptid/neo-risk-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Format is the on-disk encoding of a table file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFor picks the encoding from the file extension. Anything that is not
// .xlsx is written as CSV.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// FileSink writes a whole table to one file. The file is written to a
// temporary sibling and renamed into place, so a failed write leaves any
// previous file untouched.
type FileSink struct {
	path    string
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewFileSink creates a sink for path.
func NewFileSink(path string, metrics *observability.Metrics, logger *slog.Logger) *FileSink {
	return &FileSink{
		path:    path,
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
		logger:  logger,
	}
}

// SetClock swaps the time source for the workbook's report timestamp. Pass nil
// to reset to real time.
func (s *FileSink) SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	s.clock = c
}

// Path returns the destination file.
func (s *FileSink) Path() string { return s.path }

// LoadBatch replaces the file's contents with records.
func (s *FileSink) LoadBatch(ctx context.Context, records []domain.ObjectApproachRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	format := FormatFor(s.path)
	if err := s.encode(tmp, format, records); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename into %s: %w", s.path, err)
	}

	s.metrics.RecordsWritten.WithLabelValues("table").Add(float64(len(records)))
	s.logger.Info("table written", "path", s.path, "format", string(format), "rows", len(records))
	return nil
}

func (s *FileSink) encode(w io.Writer, format Format, records []domain.ObjectApproachRecord) error {
	if format == FormatXLSX {
		return WriteXLSX(w, records, s.clock.Now())
	}
	bw := bufio.NewWriter(w)
	if err := WriteCSV(bw, records); err != nil {
		return err
	}
	return bw.Flush()
}

// FileSource reads a whole CSV table from one file.
type FileSource struct {
	path          string
	skipAnalytics bool
}

// NewFileSource creates a source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// NewBaseFileSource creates a source for path that drops the analytic columns
// on read. The risk step uses it since it recomputes both.
func NewBaseFileSource(path string) *FileSource {
	return &FileSource{path: path, skipAnalytics: true}
}

// ExtractAll reads every record in the file.
func (s *FileSource) ExtractAll(ctx context.Context) ([]domain.ObjectApproachRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if FormatFor(s.path) != FormatCSV {
		return nil, fmt.Errorf("read %s: only CSV tables can be read", s.path)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	read := ReadCSV
	if s.skipAnalytics {
		read = ReadBaseCSV
	}
	records, err := read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return records, nil
}
