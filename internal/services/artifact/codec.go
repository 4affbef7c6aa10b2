// Package artifact reads, edits and writes the generated vehicle-list export.
// The wire format is standard CSV: quoted fields may contain the delimiter,
// and a doubled quote inside a quoted field is one literal quote.
package artifact

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"slices"
	"strings"

	"order-processing-backend/internal/models"
)

var (
	ErrIndexOutOfRange = errors.New("record index out of range")
	ErrInvalidVIN      = errors.New("invalid VIN")
	ErrUnknownField    = errors.New("unknown field")
)

var columns = []string{"vin", "year", "make", "model", "trim", "stock", "price", "source"}

// Store is the artifact backend: GET returns CSV text, PUT stores it.
// Put must be idempotent.
type Store interface {
	Get(ctx context.Context, ref string) (string, error)
	Put(ctx context.Context, ref, text string) error
}

// Codec ties the CSV row representation to an artifact Store.
type Codec struct {
	store Store
}

func NewCodec(store Store) *Codec {
	return &Codec{store: store}
}

// Fetch retrieves an artifact and parses it into vehicle records.
func (c *Codec) Fetch(ctx context.Context, ref string) ([]models.VehicleRecord, error) {
	text, err := c.store.Get(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch artifact %s: %w", ref, err)
	}
	return Parse(text)
}

// Save serializes records and stores them under ref.
func (c *Codec) Save(ctx context.Context, ref string, records []models.VehicleRecord) error {
	text, err := Serialize(records)
	if err != nil {
		return err
	}
	if err := c.store.Put(ctx, ref, text); err != nil {
		return fmt.Errorf("save artifact %s: %w", ref, err)
	}
	return nil
}

// Serialize renders records as CSV with a header row. Output always parses
// back to an equal record set.
func Serialize(records []models.VehicleRecord) (string, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)

	if err := w.Write(columns); err != nil {
		return "", err
	}
	for _, r := range records {
		row := []string{r.VIN, r.Year, r.Make, r.Model, r.Trim, r.Stock, r.Price, r.Source}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

// Parse reads CSV text into vehicle records. Rows with a malformed VIN are
// rejected, never silently coerced; their errors are joined into the returned
// error while valid rows still come back.
func Parse(text string) ([]models.VehicleRecord, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse artifact csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	start := 0
	if len(rows[0]) > 0 && strings.EqualFold(rows[0][0], "vin") {
		start = 1
	}

	var (
		records []models.VehicleRecord
		errs    []error
	)
	for i, row := range rows[start:] {
		if len(row) < len(columns) {
			errs = append(errs, fmt.Errorf("row %d: expected %d fields, got %d", i+1, len(columns), len(row)))
			continue
		}
		if !models.ValidVIN(row[0]) {
			errs = append(errs, fmt.Errorf("row %d: %w: %q", i+1, ErrInvalidVIN, row[0]))
			continue
		}
		records = append(records, models.VehicleRecord{
			VIN:    models.NormalizeVIN(row[0]),
			Year:   row[1],
			Make:   row[2],
			Model:  row[3],
			Trim:   row[4],
			Stock:  row[5],
			Price:  row[6],
			Source: row[7],
		})
	}
	return records, errors.Join(errs...)
}

// ApplyEdit returns a copy of records with one field changed. The composite
// "yearMake" field splits on the first space into Year and Make. VIN edits
// are re-validated by the same 17-character rule as initial parse; an invalid
// edit leaves the records unchanged and returns an error.
func ApplyEdit(records []models.VehicleRecord, index int, field, value string) ([]models.VehicleRecord, error) {
	if index < 0 || index >= len(records) {
		return records, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	out := slices.Clone(records)
	rec := out[index]

	switch field {
	case "vin":
		if !models.ValidVIN(value) {
			return records, fmt.Errorf("%w: %q", ErrInvalidVIN, value)
		}
		rec.VIN = models.NormalizeVIN(value)
	case "yearMake":
		year, mk, _ := strings.Cut(strings.TrimSpace(value), " ")
		rec.Year = year
		rec.Make = strings.TrimSpace(mk)
	case "year":
		rec.Year = value
	case "make":
		rec.Make = value
	case "model":
		rec.Model = value
	case "trim":
		rec.Trim = value
	case "stock":
		rec.Stock = value
	case "price":
		rec.Price = value
	case "source":
		rec.Source = value
	default:
		return records, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	out[index] = rec
	return out, nil
}
