package excel

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing csv fixture: %v", err)
	}
	return path
}

// TestReadCSVGroupsByStore drives the happy path: rows grouped per store in
// file order, names and regions captured from each store's first row.
func TestReadCSVGroupsByStore(t *testing.T) {
	path := writeCSV(t, `store_id,store_name,region,quantity,conversions,completed_at
store-a,Alder Street,Portland,1000,41,2025-05-10
store-a,Alder Street,Portland,2000,63,2025-06-10
store-b,Bayside,MIAMI,500,9,2025-06-12
`)

	data, err := NewHistoryReader(path).Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if len(data.Stores) != 2 {
		t.Fatalf("Expected 2 stores, got %d", len(data.Stores))
	}
	if data.Skipped != 0 {
		t.Errorf("Expected no skipped rows, got %d", data.Skipped)
	}

	a := data.Stores[0]
	if string(a.ID) != "store-a" {
		t.Errorf("Expected store-a first in file order, got %s", a.ID)
	}
	if a.Name != "Alder Street" {
		t.Errorf("Expected name from first row, got %q", a.Name)
	}
	if a.Region != "portland" {
		t.Errorf("Expected lowercased region, got %q", a.Region)
	}
	if len(a.Outcomes) != 2 {
		t.Fatalf("Expected 2 outcomes for store-a, got %d", len(a.Outcomes))
	}

	first := a.Outcomes[0]
	if first.Quantity != 1000 || first.Conversions != 41 {
		t.Errorf("Expected quantity 1000 and conversions 41, got %f and %f", first.Quantity, first.Conversions)
	}
	if math.Abs(first.Rate-4.1) > 1e-9 {
		t.Errorf("Expected rate 4.1, got %f", first.Rate)
	}
	want := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	if !first.CompletedAt.Time().Equal(want) {
		t.Errorf("Expected completion %s, got %s", want, first.CompletedAt.Time())
	}

	if data.Stores[1].Region != "miami" {
		t.Errorf("Expected miami, got %q", data.Stores[1].Region)
	}
}

// TestReadSkipsMalformedRows counts rows dropped for each reason the parser
// rejects: empty store id, unparseable quantity, negative conversions,
// non-positive quantity.
func TestReadSkipsMalformedRows(t *testing.T) {
	path := writeCSV(t, `store_id,quantity,conversions
store-a,1000,41
,500,9
store-b,abc,5
store-c,800,-2
store-d,0,3
store-e,700,21
`)

	data, err := NewHistoryReader(path).Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if data.Skipped != 4 {
		t.Errorf("Expected 4 skipped rows, got %d", data.Skipped)
	}
	if len(data.Stores) != 2 {
		t.Fatalf("Expected 2 surviving stores, got %d", len(data.Stores))
	}
	if string(data.Stores[0].ID) != "store-a" || string(data.Stores[1].ID) != "store-e" {
		t.Errorf("Expected store-a and store-e to survive, got %s and %s",
			data.Stores[0].ID, data.Stores[1].ID)
	}
}

// TestReadAcceptsHeaderAliases exercises the alternate column names exports
// commonly use.
func TestReadAcceptsHeaderAliases(t *testing.T) {
	path := writeCSV(t, `Store,Pieces,Converted,Date
store-a,1200,30,05/15/2025
`)

	data, err := NewHistoryReader(path).Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if len(data.Stores) != 1 {
		t.Fatalf("Expected 1 store, got %d", len(data.Stores))
	}
	outcome := data.Stores[0].Outcomes[0]
	if outcome.Quantity != 1200 || outcome.Conversions != 30 {
		t.Errorf("Expected 1200/30, got %f/%f", outcome.Quantity, outcome.Conversions)
	}
	want := time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)
	if !outcome.CompletedAt.Time().Equal(want) {
		t.Errorf("Expected completion %s, got %s", want, outcome.CompletedAt.Time())
	}
}

func TestReadRejectsMissingColumns(t *testing.T) {
	path := writeCSV(t, "store_id,quantity\nstore-a,100\n")

	if _, err := NewHistoryReader(path).Read(); err == nil {
		t.Fatal("Expected error for missing conversions column")
	}
}

func TestReadRejectsHeaderOnlyFile(t *testing.T) {
	path := writeCSV(t, "store_id,quantity,conversions\n")

	if _, err := NewHistoryReader(path).Read(); err == nil {
		t.Fatal("Expected error for file without data rows")
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := NewHistoryReader("/nonexistent/history.xlsx").Read(); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

// TestReadExcelWorkbook round-trips a generated workbook through the reader
func TestReadExcelWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"store_id", "store_name", "region", "quantity", "conversions", "completed_at"},
		{"store-x", "Crosstown", "phoenix", 1500, 48, "2025-07-01"},
		{"store-x", "Crosstown", "phoenix", 3000, 72, "2025-07-20"},
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("building cell reference: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cellRef, &row); err != nil {
			t.Fatalf("writing sheet row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("saving workbook: %v", err)
	}
	f.Close()

	data, err := NewHistoryReader(path).Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if len(data.Stores) != 1 {
		t.Fatalf("Expected 1 store, got %d", len(data.Stores))
	}
	store := data.Stores[0]
	if store.Name != "Crosstown" || store.Region != "phoenix" {
		t.Errorf("Expected Crosstown/phoenix, got %q/%q", store.Name, store.Region)
	}
	if len(store.Outcomes) != 2 {
		t.Fatalf("Expected 2 outcomes, got %d", len(store.Outcomes))
	}
	if store.Outcomes[1].Quantity != 3000 {
		t.Errorf("Expected second campaign quantity 3000, got %f", store.Outcomes[1].Quantity)
	}
}

func TestParseDateLayouts(t *testing.T) {
	cases := map[string]time.Time{
		"2025-05-10":           time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
		"2025-05-10 14:30:00":  time.Date(2025, 5, 10, 14, 30, 0, 0, time.UTC),
		"05/15/2025":           time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC),
		"2025-05-10T09:00:00Z": time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC),
		"not-a-date":           {},
		"":                     {},
	}

	for raw, want := range cases {
		if got := parseDate(raw); !got.Equal(want) {
			t.Errorf("parseDate(%q) = %s, want %s", raw, got, want)
		}
	}
}
