// Package backup exports every collection into one JSON document and restores
// such a document over the current data.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/MrJamesThe3rd/vykazy/internal/apperr"
	"github.com/MrJamesThe3rd/vykazy/internal/debt"
	"github.com/MrJamesThe3rd/vykazy/internal/encoding"
	"github.com/MrJamesThe3rd/vykazy/internal/finance"
	"github.com/MrJamesThe3rd/vykazy/internal/settings"
	"github.com/MrJamesThe3rd/vykazy/internal/storage"
	"github.com/MrJamesThe3rd/vykazy/internal/timefmt"
	"github.com/MrJamesThe3rd/vykazy/internal/worklog"
)

// Version is written into every backup.
const Version = "1.0"

// Reloader is a store that caches a collection in memory.
type Reloader interface {
	Reload(ctx context.Context) error
}

// document mirrors the backup layout. Field order is the on-disk key order.
type document struct {
	WorkLogs          json.RawMessage `json:"workLogs"`
	FinanceRecords    json.RawMessage `json:"financeRecords"`
	TaskCategories    json.RawMessage `json:"taskCategories"`
	ExpenseCategories json.RawMessage `json:"expenseCategories"`
	Debts             json.RawMessage `json:"debts"`
	DebtPayments      json.RawMessage `json:"debtPayments"`
	RentSettings      json.RawMessage `json:"rentSettings"`
	Version           json.RawMessage `json:"version"`
}

func (d *document) field(key storage.Key) *json.RawMessage {
	switch key {
	case storage.KeyWorkLogs:
		return &d.WorkLogs
	case storage.KeyFinanceRecords:
		return &d.FinanceRecords
	case storage.KeyTaskCategories:
		return &d.TaskCategories
	case storage.KeyExpenseCategories:
		return &d.ExpenseCategories
	case storage.KeyDebts:
		return &d.Debts
	case storage.KeyDebtPayments:
		return &d.DebtPayments
	case storage.KeyRentSettings:
		return &d.RentSettings
	}

	return nil
}

type Service struct {
	store     storage.Storage
	reloaders []Reloader
}

// NewService creates a backup service. Every reloader is refreshed after a
// restore or clear.
func NewService(store storage.Storage, reloaders ...Reloader) *Service {
	return &Service{store: store, reloaders: reloaders}
}

// FileName is the suggested name of a backup taken at now.
func FileName(now time.Time) string {
	return "pracovni-vykazy-zaloha-" + timefmt.FileNameDate(now) + ".json"
}

// Export writes all collections as a two-space indented JSON document.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	doc := document{Version: json.RawMessage(strconv.Quote(Version))}
	defaults := storage.Defaults()

	for _, key := range storage.Keys {
		blob, err := s.store.Load(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			blob = defaults[key]
		} else if err != nil {
			return fmt.Errorf("%w: loading %s: %w", apperr.ErrPersistence, key, err)
		}

		if !json.Valid(blob) {
			return fmt.Errorf("%w: stored %s is not valid JSON", apperr.ErrPersistence, key)
		}

		*doc.field(key) = blob
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}

	if _, err := w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}

	return nil
}

// Restore replaces every collection with the contents of a backup. Either all
// collections are written or, on failure, the previous ones are put back.
func (s *Service) Restore(ctx context.Context, r io.Reader) error {
	data, err := encoding.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrFormat, err)
	}

	blobs, err := parse(data)
	if err != nil {
		return err
	}

	if err := s.replace(ctx, blobs); err != nil {
		return err
	}

	return s.reload(ctx)
}

// Clear resets every collection to its first-run contents.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.replace(ctx, storage.Defaults()); err != nil {
		return err
	}

	return s.reload(ctx)
}

func parse(data []byte) (map[storage.Key][]byte, error) {
	var doc document

	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: not a backup document: %w", apperr.ErrFormat, err)
	}

	if !hasVersion(doc.Version) {
		return nil, fmt.Errorf("%w: missing version", apperr.ErrFormat)
	}

	if isNull(doc.WorkLogs) || isNull(doc.FinanceRecords) {
		return nil, fmt.Errorf("%w: missing work logs or finance records", apperr.ErrFormat)
	}

	checks := map[storage.Key]func([]byte) error{
		storage.KeyWorkLogs:          decodes[[]worklog.WorkSession],
		storage.KeyFinanceRecords:    decodes[[]finance.Record],
		storage.KeyTaskCategories:    decodes[[]string],
		storage.KeyExpenseCategories: decodes[[]string],
		storage.KeyDebts:             decodes[[]debt.Debt],
		storage.KeyDebtPayments:      decodes[[]debt.Payment],
		storage.KeyRentSettings:      decodes[settings.Rent],
	}

	blobs := make(map[storage.Key][]byte, len(storage.Keys))

	for _, key := range storage.Keys {
		raw := *doc.field(key)

		if isNull(raw) {
			if key == storage.KeyRentSettings {
				blobs[key] = storage.Defaults()[key]
			} else {
				blobs[key] = []byte("[]")
			}

			continue
		}

		if err := checks[key](raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", apperr.ErrFormat, key, err)
		}

		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", apperr.ErrFormat, key, err)
		}

		blobs[key] = compact.Bytes()
	}

	return blobs, nil
}

func decodes[T any](raw []byte) error {
	var v T
	return json.Unmarshal(raw, &v)
}

// hasVersion accepts any version value except a missing one, null, false,
// an empty string or zero.
func hasVersion(raw json.RawMessage) bool {
	var v any
	if isNull(raw) || json.Unmarshal(raw, &v) != nil {
		return false
	}

	switch v := v.(type) {
	case string:
		return v != ""
	case bool:
		return v
	case float64:
		return v != 0
	}

	return true
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// replace writes blobs for every key. If a write fails the keys written so far
// get their previous blobs back.
func (s *Service) replace(ctx context.Context, blobs map[storage.Key][]byte) error {
	previous := make(map[storage.Key][]byte, len(storage.Keys))

	for _, key := range storage.Keys {
		blob, err := s.store.Load(ctx, key)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: loading %s: %w", apperr.ErrPersistence, key, err)
		}

		previous[key] = blob
	}

	for i, key := range storage.Keys {
		if err := s.store.Save(ctx, key, blobs[key]); err != nil {
			slog.ErrorContext(ctx, "restoring collection", "key", key, "error", err)
			s.rollback(ctx, storage.Keys[:i], previous)

			return fmt.Errorf("%w: saving %s: %w", apperr.ErrPersistence, key, err)
		}
	}

	return nil
}

func (s *Service) rollback(ctx context.Context, keys []storage.Key, previous map[storage.Key][]byte) {
	defaults := storage.Defaults()

	for _, key := range keys {
		blob := previous[key]
		if blob == nil {
			blob = defaults[key]
		}

		if err := s.store.Save(ctx, key, blob); err != nil {
			slog.ErrorContext(ctx, "rolling back collection", "key", key, "error", err)
		}
	}
}

func (s *Service) reload(ctx context.Context) error {
	for _, r := range s.reloaders {
		if err := r.Reload(ctx); err != nil {
			return fmt.Errorf("reloading after restore: %w", err)
		}
	}

	return nil
}
