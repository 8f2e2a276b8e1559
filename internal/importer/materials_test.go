package importer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheets map[string][][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestParseCostingWorkbook(t *testing.T) {
	buf := buildWorkbook(t, map[string][][]string{
		"Door Cores": {
			{"Door core pricing 2026"},
			{},
			{"Core", "Fire Rating", "Cost", "Sheet Width", "Sheet Height"},
			{"Solid core", "FD30", "£85.00", "1220", "2440"},
			{"Solid core", "FD60", "£120.00", "1220", "2440"},
			{"Hollow core", "", "42.50", "1220", "2440"},
			{"", "", "", "", ""},
		},
		"Ironmongery": {
			{"Item", "Cost"},
			{"Hinges"},
			{"Grade 13 SS", "£12.50"},
			{"Grade 11", "9.80"},
			{"Closers"},
			{"Overhead closer", "£38.00"},
		},
		"Materials": {
			{"Material", "Category", "Unit", "Cost"},
			{"Oak lipping", "Timber", "m", "4.20"},
			{"PVA adhesive", "", "", "6.00"},
			{"no cost row", "Timber", "m", "tbc"},
		},
	})

	costs, err := ParseCostingWorkbook(buf)
	require.NoError(t, err)

	require.Len(t, costs.DoorCores, 3)
	assert.Equal(t, "Solid core", costs.DoorCores[0].CoreType)
	assert.Equal(t, "FD30", costs.DoorCores[0].FireRating)
	assert.Equal(t, 85.0, costs.DoorCores[0].CostPerSheet)
	assert.Equal(t, 1220, costs.DoorCores[0].SheetWidthMM)
	assert.Equal(t, 2440, costs.DoorCores[0].SheetHeightMM)
	assert.Equal(t, "None", costs.DoorCores[2].FireRating, "blank rating defaults to None")

	require.Len(t, costs.Ironmongery, 3)
	assert.Equal(t, "Hinges", costs.Ironmongery[0].Category)
	assert.Equal(t, "Grade 13 SS", costs.Ironmongery[0].Name)
	assert.Equal(t, "Closers", costs.Ironmongery[2].Category, "section rows switch the category")
	assert.Equal(t, 38.0, costs.Ironmongery[2].Cost)

	require.Len(t, costs.Materials, 2, "rows without a parseable cost are skipped")
	assert.Equal(t, "Timber", costs.Materials[0].Category)
	assert.Equal(t, "m", costs.Materials[0].Unit)
	assert.Equal(t, "General", costs.Materials[1].Category, "blank category defaults")
	assert.Equal(t, "each", costs.Materials[1].Unit, "blank unit defaults")
}

func TestParseCostingWorkbookRejectsUnknownLayout(t *testing.T) {
	buf := buildWorkbook(t, map[string][][]string{
		"Timesheet": {
			{"Name", "Hours"},
			{"Alice", "38"},
		},
	})

	_, err := ParseCostingWorkbook(buf)
	assert.Error(t, err)
}

func TestParseCostingWorkbookRejectsGarbage(t *testing.T) {
	_, err := ParseCostingWorkbook(bytes.NewReader([]byte("not an xlsx")))
	assert.Error(t, err)
}

func TestParseMoney(t *testing.T) {
	cases := map[string]struct {
		value float64
		ok    bool
	}{
		"£12.50":    {12.50, true},
		"12.50":     {12.50, true},
		"12,340.00": {12340, true},
		"$5":        {5, true},
		"":          {0, false},
		"tbc":       {0, false},
	}
	for input, want := range cases {
		got, ok := parseMoney(input)
		assert.Equal(t, want.ok, ok, input)
		assert.Equal(t, want.value, got, input)
	}
}
