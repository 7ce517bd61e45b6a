package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"droplab/domain/core"
	"droplab/domain/performance"
	"droplab/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Column headers the reader accepts, case-insensitive. store_id, quantity
// and conversions are required; the rest are optional.
var (
	storeIDColumns     = []string{"store_id", "store", "id"}
	storeNameColumns   = []string{"store_name", "name"}
	regionColumns      = []string{"region", "market"}
	quantityColumns    = []string{"quantity", "pieces", "mailed"}
	conversionsColumns = []string{"conversions", "converted"}
	completedAtColumns = []string{"completed_at", "completed", "date"}
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// StoreHistory is one store's imported campaign outcomes
type StoreHistory struct {
	ID       core.StoreID
	Name     string
	Region   string
	Outcomes []performance.CampaignOutcome
}

// HistoryData is the result of importing a spreadsheet of campaign outcomes
type HistoryData struct {
	Stores  []StoreHistory
	Skipped int // malformed rows dropped during parsing
}

// HistoryReader reads historical campaign outcomes from Excel or CSV files
type HistoryReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewHistoryReader creates a reader that handles both Excel and CSV files
func NewHistoryReader(filePath string) *HistoryReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &HistoryReader{filePath: filePath, fileType: fileType}
}

// Read parses the file into per-store campaign history
func (r *HistoryReader) Read() (*HistoryData, error) {
	log.Printf("[HistoryReader] Reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.ImportError(r.filePath, fmt.Errorf("file not found"))
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, errors.ImportError(r.filePath, fmt.Errorf("unsupported file type %s", r.fileType))
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, errors.ImportError(r.filePath, fmt.Errorf("need a header row and at least one data row"))
	}

	return r.processRows(rows)
}

func (r *HistoryReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.ImportError(r.filePath, err)
	}
	defer f.Close()

	// Always use Sheet1
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, errors.ImportError(r.filePath, err)
	}
	return rows, nil
}

func (r *HistoryReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.ImportError(r.filePath, err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.ImportError(r.filePath, err)
	}
	return rows, nil
}

// processRows groups parsed campaign rows by store, preserving the order
// stores first appear in the file.
func (r *HistoryReader) processRows(rows [][]string) (*HistoryData, error) {
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	storeIdx := findColumn(header, storeIDColumns)
	qtyIdx := findColumn(header, quantityColumns)
	convIdx := findColumn(header, conversionsColumns)
	if storeIdx < 0 || qtyIdx < 0 || convIdx < 0 {
		return nil, errors.ImportError(r.filePath, fmt.Errorf("missing required columns store_id/quantity/conversions"))
	}
	nameIdx := findColumn(header, storeNameColumns)
	regionIdx := findColumn(header, regionColumns)
	dateIdx := findColumn(header, completedAtColumns)

	data := &HistoryData{}
	byStore := make(map[core.StoreID]int) // store id -> index into data.Stores

	for _, row := range rows[1:] {
		storeID := core.StoreID(cell(row, storeIdx))
		if storeID.IsEmpty() {
			data.Skipped++
			continue
		}

		quantity, errQty := strconv.ParseFloat(cell(row, qtyIdx), 64)
		conversions, errConv := strconv.ParseFloat(cell(row, convIdx), 64)
		if errQty != nil || errConv != nil || quantity <= 0 || conversions < 0 {
			data.Skipped++
			continue
		}

		completedAt := parseDate(cell(row, dateIdx))

		idx, ok := byStore[storeID]
		if !ok {
			idx = len(data.Stores)
			byStore[storeID] = idx
			data.Stores = append(data.Stores, StoreHistory{
				ID:     storeID,
				Name:   cell(row, nameIdx),
				Region: strings.ToLower(cell(row, regionIdx)),
			})
		}
		data.Stores[idx].Outcomes = append(data.Stores[idx].Outcomes,
			performance.NewOutcome(core.CampaignID(core.NewID()), quantity, conversions, completedAt))
	}

	if data.Skipped > 0 {
		log.Printf("[HistoryReader] Skipped %d malformed rows", data.Skipped)
	}
	log.Printf("[HistoryReader] Imported %d stores from %s", len(data.Stores), r.filePath)
	return data, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func findColumn(header []string, candidates []string) int {
	for _, want := range candidates {
		for i, h := range header {
			if h == want {
				return i
			}
		}
	}
	return -1
}

func parseDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

