package importer

import (
	"io"

	"github.com/MrJamesThe3rd/vykazy/internal/finance"
)

// Source names a family of CSV layouts an Importer understands.
type Source string

const (
	// SourceCSV covers the ledger's own finance export and bank statements
	// with Czech column names.
	SourceCSV Source = "csv"
)

type Importer interface {
	Parse(r io.Reader) ([]finance.CreateParams, error)
}

// LayoutImporter is an Importer that can name the layout it recognised.
type LayoutImporter interface {
	Importer
	ParseLayout(r io.Reader) (string, []finance.CreateParams, error)
}

// PreviewRow is one parsed record together with what the ledger knows about it.
type PreviewRow struct {
	Params finance.CreateParams
	// Suggested is set when the category came from the categorizer rather
	// than the file.
	Suggested bool
	// Existing is the stored record this row duplicates, if any.
	Existing *finance.Record
}

// Preview describes a file before anything is written.
type Preview struct {
	Layout string
	Rows   []PreviewRow
}
