package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
	"github.com/MrJamesThe3rd/vykazy/internal/finance"
	"github.com/MrJamesThe3rd/vykazy/internal/importer/csvfile"
)

// Batcher stores parsed records. *finance.Service satisfies it.
type Batcher interface {
	ImportBatch(ctx context.Context, params []finance.CreateParams) (*finance.ImportResult, error)
	Duplicates(params []finance.CreateParams) []*finance.Record
}

// Categorizer fills in missing categories. *matching.Service satisfies it.
type Categorizer interface {
	Fill(params []finance.CreateParams) int
}

type Service struct {
	importers   map[Source]Importer
	records     Batcher
	categorizer Categorizer
}

type Option func(*Service)

// WithCategorizer lets Import suggest categories for uncategorized rows.
func WithCategorizer(c Categorizer) Option {
	return func(s *Service) { s.categorizer = c }
}

func NewService(records Batcher, opts ...Option) *Service {
	s := &Service{
		importers: map[Source]Importer{
			SourceCSV: csvfile.NewParser(),
		},
		records: records,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Parse reads r with the importer registered for source.
func (s *Service) Parse(source Source, r io.Reader) ([]finance.CreateParams, error) {
	importer, ok := s.importers[source]
	if !ok {
		return nil, fmt.Errorf("%w: unknown import source %q", apperr.ErrValidation, source)
	}

	return importer.Parse(r)
}

// Preview parses r, suggests missing categories and marks rows that
// duplicate stored records. Nothing is written.
func (s *Service) Preview(source Source, r io.Reader) (*Preview, error) {
	imp, ok := s.importers[source]
	if !ok {
		return nil, fmt.Errorf("%w: unknown import source %q", apperr.ErrValidation, source)
	}

	preview := &Preview{Layout: string(source)}

	var (
		params []finance.CreateParams
		err    error
	)

	if li, ok := imp.(LayoutImporter); ok {
		preview.Layout, params, err = li.ParseLayout(r)
	} else {
		params, err = imp.Parse(r)
	}

	if err != nil {
		return nil, err
	}

	uncategorized := make([]bool, len(params))
	for i, p := range params {
		uncategorized[i] = p.Category == ""
	}

	if s.categorizer != nil {
		s.categorizer.Fill(params)
	}

	dups := s.records.Duplicates(params)

	preview.Rows = make([]PreviewRow, len(params))
	for i, p := range params {
		preview.Rows[i] = PreviewRow{
			Params:    p,
			Suggested: uncategorized[i] && p.Category != "",
			Existing:  dups[i],
		}
	}

	return preview, nil
}

// Import parses r and hands the records to the finance store. Records that
// look like existing ones are reported as conflicts and nothing is written.
func (s *Service) Import(ctx context.Context, source Source, r io.Reader) (*finance.ImportResult, error) {
	params, err := s.Parse(source, r)
	if err != nil {
		return nil, err
	}

	if s.categorizer != nil {
		if n := s.categorizer.Fill(params); n > 0 {
			slog.DebugContext(ctx, "categories suggested", "count", n)
		}
	}

	result, err := s.records.ImportBatch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("importing %d records: %w", len(params), err)
	}

	return result, nil
}
