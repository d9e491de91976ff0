package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fenilmodi00/ipo-analytics/models"
	"github.com/fenilmodi00/ipo-analytics/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleIPOCSV = "\ufeffTicker Code,Company Name,Sector,Final Price (Rp),Number of shares offered,Return D1,Lowest Book Building Price (Rp),Highest Book Building Price (Rp),Listing Date,Warrant per share ratio,Underwriter(s)\n" +
	"AAAA,Alpha Tbk,Technology,1000,1000000,0.25,900,1100,2023-03-07,0.5,\"CC,LG,YP\"\n" +
	"BBBB,Beta Tbk,Energy,150,2000000000,-0.05,140,160,2022-11-14,,MG\n" +
	"AAAA,Alpha Duplicate,Technology,5,5,5,5,5,2020-01-01,,XX\n" +
	"CCCC,Gamma Tbk,,abc,1000,,100,100,not a date,0,\n"

func TestBuildRecordsCoercesAndDeduplicates(t *testing.T) {
	loader := NewDatasetLoader(NewUtilityService())

	table, err := parseCSVTable(strings.NewReader(sampleIPOCSV))
	require.NoError(t, err)
	assert.Equal(t, models.ColumnTicker, table.Header[0], "BOM must be stripped from the first header")

	records, err := loader.BuildRecords(table)
	require.NoError(t, err)
	require.Len(t, records, 3)

	alpha := records[0]
	assert.Equal(t, "AAAA", alpha.Ticker)
	assert.Equal(t, "Alpha Tbk", alpha.CompanyName, "first occurrence wins")
	require.NotNil(t, alpha.FinalPrice)
	assert.Equal(t, 1000.0, *alpha.FinalPrice)
	require.NotNil(t, alpha.ListingDate)
	assert.True(t, time.Date(2023, time.March, 7, 0, 0, 0, 0, time.UTC).Equal(*alpha.ListingDate))
	assert.Equal(t, "CC,LG,YP", alpha.Underwriters)

	beta := records[1]
	assert.Nil(t, beta.WarrantRatio)
	require.NotNil(t, beta.ReturnD1)
	assert.Equal(t, -0.05, *beta.ReturnD1)

	gamma := records[2]
	assert.Nil(t, gamma.FinalPrice, "unparseable numeric becomes missing")
	assert.Nil(t, gamma.ReturnD1)
	assert.Nil(t, gamma.ListingDate, "unparseable date becomes missing")
	assert.Equal(t, "", gamma.Sector)

	assert.True(t, gamma.HasColumn(models.ColumnWarrantRatio))
	assert.False(t, gamma.HasColumn(models.ColumnDistributionDate))
}

func TestBuildRecordsRequiresTickerColumn(t *testing.T) {
	loader := NewDatasetLoader(NewUtilityService())

	table, err := parseCSVTable(strings.NewReader("Company Name,Sector\nAlpha,Tech\n"))
	require.NoError(t, err)

	_, err = loader.BuildRecords(table)
	require.Error(t, err)
	assert.True(t, shared.HasCode(err, shared.CodeDatasetRead))
}

func TestLoadIPORecordsMissingFile(t *testing.T) {
	loader := NewDatasetLoader(NewUtilityService())

	_, err := loader.LoadIPORecords(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, shared.HasCode(err, shared.CodeDatasetRead))
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadIPORecordsFromCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ipo.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleIPOCSV), 0o644))

	loader := NewDatasetLoader(NewUtilityService())
	records, err := loader.LoadIPORecords(path)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	count, err := loader.CountReferenceRows(path)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestLoadIPORecordsFromWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ipo.xlsx")

	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	rows := [][]interface{}{
		{models.ColumnTicker, models.ColumnCompanyName, models.ColumnFinalPrice, models.ColumnReturnD1},
		{"WXYZ", "Workbook Tbk", "250", "0.3"},
		{"VUTS", "Second Tbk", "300", "-0.1"},
	}
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, book.SetSheetRow(sheet, cellName, &row))
	}
	require.NoError(t, book.SaveAs(path))
	require.NoError(t, book.Close())

	loader := NewDatasetLoader(NewUtilityService())
	records, err := loader.LoadIPORecords(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "WXYZ", records[0].Ticker)
	require.NotNil(t, records[0].FinalPrice)
	assert.Equal(t, 250.0, *records[0].FinalPrice)
	assert.False(t, records[0].HasColumn(models.ColumnSector))
}
