package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fenilmodi00/ipo-analytics/models"
	"github.com/fenilmodi00/ipo-analytics/shared"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const loaderServiceName = "dataset-loader"

// DatasetLoader reads the historical IPO file into typed records
type DatasetLoader struct {
	utility *UtilityService
	logger  *logrus.Entry
}

// NewDatasetLoader creates a loader
func NewDatasetLoader(utility *UtilityService) *DatasetLoader {
	return &DatasetLoader{
		utility: utility,
		logger:  logrus.WithField("component", "DatasetLoader"),
	}
}

// Table is a raw header + rows view over a CSV file or the first sheet of a workbook
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable reads a .csv or .xlsx file
func (l *DatasetLoader) ReadTable(path string) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryResource, shared.CodeDatasetRead,
			fmt.Sprintf("dataset file not found at %s", path), loaderServiceName, "read_table", err)
	}

	var (
		table *Table
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		table, err = l.readWorkbook(path)
	default:
		table, err = l.readCSV(path)
	}
	if err != nil {
		return nil, shared.WrapError(err, shared.ErrorCategoryResource, shared.CodeDatasetRead, loaderServiceName, "read_table")
	}

	return table, nil
}

func (l *DatasetLoader) readCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer file.Close()

	return parseCSVTable(file)
}

func parseCSVTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	table := &Table{Header: cleanHeader(header)}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", len(table.Rows)+2, err)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func (l *DatasetLoader) readWorkbook(path string) (*Table, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, errors.New("workbook sheet is empty")
	}

	return &Table{Header: cleanHeader(rows[0]), Rows: rows[1:]}, nil
}

func cleanHeader(header []string) []string {
	cleaned := make([]string, len(header))
	for i, h := range header {
		cleaned[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return cleaned
}

// LoadIPORecords reads, coerces and deduplicates the historical dataset
func (l *DatasetLoader) LoadIPORecords(path string) ([]models.IPORecord, error) {
	table, err := l.ReadTable(path)
	if err != nil {
		return nil, err
	}

	records, err := l.BuildRecords(table)
	if err != nil {
		return nil, err
	}

	l.logger.WithFields(logrus.Fields{
		"path":    path,
		"rows":    len(table.Rows),
		"records": len(records),
	}).Info("Data loaded successfully")

	return records, nil
}

// BuildRecords converts a raw table into records. Numeric and date cells
// that cannot be parsed become missing; rows repeating an earlier ticker
// are dropped.
func (l *DatasetLoader) BuildRecords(table *Table) ([]models.IPORecord, error) {
	index := make(map[string]int, len(table.Header))
	present := make(map[string]bool, len(table.Header))
	for i, name := range table.Header {
		if _, dup := index[name]; !dup {
			index[name] = i
			present[name] = true
		}
	}

	if !present[models.ColumnTicker] {
		return nil, shared.NewServiceError(shared.ErrorCategoryValidation, shared.CodeDatasetRead,
			fmt.Sprintf("dataset has no %q column", models.ColumnTicker), loaderServiceName, "build_records", nil)
	}

	cell := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	text := func(row []string, column string) string {
		v := cell(row, column)
		if l.utility.IsNotAvailable(v) {
			return ""
		}
		return v
	}

	seen := make(map[string]bool, len(table.Rows))
	records := make([]models.IPORecord, 0, len(table.Rows))

	for _, row := range table.Rows {
		ticker := text(row, models.ColumnTicker)
		if seen[ticker] {
			continue
		}
		seen[ticker] = true

		record := models.IPORecord{
			Ticker:       ticker,
			CompanyName:  text(row, models.ColumnCompanyName),
			Sector:       text(row, models.ColumnSector),
			Underwriters: text(row, models.ColumnUnderwriters),

			FinalPrice:    l.utility.ParseNumeric(cell(row, models.ColumnFinalPrice)),
			SharesOffered: l.utility.ParseNumeric(cell(row, models.ColumnSharesOffered)),
			LowPrice:      l.utility.ParseNumeric(cell(row, models.ColumnLowPrice)),
			HighPrice:     l.utility.ParseNumeric(cell(row, models.ColumnHighPrice)),
			ReturnD1:      l.utility.ParseNumeric(cell(row, models.ColumnReturnD1)),
			WarrantRatio:  l.utility.ParseNumeric(cell(row, models.ColumnWarrantRatio)),

			BookBuildingOpening: l.utility.ParseDate(cell(row, models.ColumnBookBuildingOpen)),
			ListingDate:         l.utility.ParseDate(cell(row, models.ColumnListingDate)),
			DistributionDate:    l.utility.ParseDate(cell(row, models.ColumnDistributionDate)),
		}
		record.MarkColumns(present)
		records = append(records, record)
	}

	return records, nil
}

// CountReferenceRows loads the warrant/price reference file. Its content is
// not used by any transform; only the row count is reported.
func (l *DatasetLoader) CountReferenceRows(path string) (int, error) {
	table, err := l.ReadTable(path)
	if err != nil {
		return 0, err
	}
	return len(table.Rows), nil
}
