package datanorm

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ignite/address-eligibility/internal/audit"
	"github.com/ignite/address-eligibility/internal/domain"
	"github.com/ignite/address-eligibility/internal/pkg/logger"
	"github.com/ignite/address-eligibility/internal/service/addresslist"
	"github.com/ignite/address-eligibility/internal/service/eligibility"
)

// ErrUnknownKind is returned when no list kind was given and the file could
// not be classified.
var ErrUnknownKind = errors.New("cannot determine target list for import")

// EntryCreator is the part of the address list service an import needs.
type EntryCreator interface {
	Create(ctx context.Context, ref string, kind domain.ListKind, in addresslist.EntryInput) (*domain.ListEntry, error)
}

// Importer streams CSV list files into the address list service. Every row
// goes through the same validation, key derivation and uniqueness check as a
// manual create.
type Importer struct {
	lists      EntryCreator
	classifier *Classifier
	sink       audit.Sink
}

func NewImporter(lists EntryCreator, sink audit.Sink) *Importer {
	if sink == nil {
		sink = audit.NopSink{}
	}
	return &Importer{lists: lists, classifier: NewClassifier(), sink: sink}
}

// ImportFromReader reads a CSV stream, maps columns to list fields and
// creates one entry per row. An empty kind is inferred from sourceFile and
// the header. Row level failures are counted, not returned; the error is
// reserved for unreadable input and cancellation.
func (imp *Importer) ImportFromReader(ctx context.Context, ref string, kind domain.ListKind, r io.Reader, sourceFile string) (*ImportResult, error) {
	start := time.Now()
	res := &ImportResult{SourceFile: sourceFile, Kind: kind}

	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return res, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	mapping := MapColumns(header)
	if missing := mapping.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s in header %v", addresslist.ErrInvalidEntry, strings.Join(missing, ", "), header)
	}
	if res.Kind == "" {
		res.Kind = imp.classifier.Classify(sourceFile, mapping)
		if res.Kind == "" {
			return nil, ErrUnknownKind
		}
	}

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(start)
			return res, err
		}
		if err != nil {
			res.TotalRows++
			res.fail(line, err)
			continue
		}
		if isBlank(row) {
			continue
		}
		res.TotalRows++

		rec := NormalizeRow(row, mapping)
		if rec.CapacityRaw != "" {
			res.fail(line, fmt.Errorf("capacity %q is not a number", rec.CapacityRaw))
			continue
		}

		_, err = imp.lists.Create(ctx, ref, res.Kind, addresslist.EntryInput{
			Address1: rec.Address1,
			Address2: rec.Address2,
			City:     rec.City,
			State:    rec.State,
			Zip:      rec.Zip,
			Capacity: rec.Capacity,
		})
		switch {
		case err == nil:
			res.ImportedRows++
		case errors.Is(err, addresslist.ErrDuplicateKey):
			res.DuplicateRows++
		case errors.Is(err, eligibility.ErrUnknownDatabase):
			return nil, err
		default:
			res.fail(line, err)
		}
	}
	res.Duration = time.Since(start)

	logger.Info("datanorm: import complete",
		"database", ref,
		"kind", string(res.Kind),
		"source", sourceFile,
		"total", res.TotalRows,
		"imported", res.ImportedRows,
		"duplicates", res.DuplicateRows,
		"errors", res.ErrorRows,
	)
	ev := audit.NewEvent(audit.EventListImport, ref, map[string]any{
		"kind":       res.Kind,
		"source":     sourceFile,
		"total":      res.TotalRows,
		"imported":   res.ImportedRows,
		"duplicates": res.DuplicateRows,
		"errors":     res.ErrorRows,
	})
	if err := imp.sink.Record(ctx, ev); err != nil {
		logger.Warn("datanorm: audit record failed", "error", err)
	}
	return res, nil
}

func (res *ImportResult) fail(line int, err error) {
	res.ErrorRows++
	if len(res.Errors) < maxRowErrors {
		res.Errors = append(res.Errors, RowError{Row: line, Error: err.Error()})
	}
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// stripBOM wraps a reader to strip a UTF-8 BOM if present.
func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, err := io.ReadFull(r, buf)
	if err != nil || n < 3 {
		return io.MultiReader(strings.NewReader(string(buf[:n])), r)
	}
	if buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf[:n])), r)
}
