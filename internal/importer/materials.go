// Package importer parses the door-production costing workbook into
// material cost rows. Sheet names vary between suppliers, so sheets are
// located by keyword and header rows by scanning.
package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"joinworks/internal/database"
)

const headerScanRows = 20

// ParseCostingWorkbook reads an xlsx stream and extracts door cores,
// ironmongery, and general materials.
func ParseCostingWorkbook(r io.Reader) (*database.MaterialCosts, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	costs := &database.MaterialCosts{
		DoorCores:   []database.DoorCore{},
		Ironmongery: []database.IronmongeryItem{},
		Materials:   []database.MaterialItem{},
	}

	if sheet := findSheet(workbook, "core"); sheet != "" {
		cores, err := parseCores(workbook, sheet)
		if err != nil {
			return nil, err
		}
		costs.DoorCores = cores
	}
	if sheet := findSheet(workbook, "ironmongery"); sheet != "" {
		items, err := parseIronmongery(workbook, sheet)
		if err != nil {
			return nil, err
		}
		costs.Ironmongery = items
	}
	if sheet := findSheet(workbook, "material"); sheet != "" {
		items, err := parseMaterials(workbook, sheet)
		if err != nil {
			return nil, err
		}
		costs.Materials = items
	}

	if len(costs.DoorCores)+len(costs.Ironmongery)+len(costs.Materials) == 0 {
		return nil, fmt.Errorf("no recognisable cost sheets in workbook (want sheets named like Cores, Ironmongery, Materials)")
	}
	return costs, nil
}

func findSheet(workbook *excelize.File, keyword string) string {
	for _, name := range workbook.GetSheetList() {
		if strings.Contains(strings.ToLower(name), keyword) {
			return name
		}
	}
	return ""
}

// findHeaderRow scans the first rows for one containing every wanted
// column; returns the row index and a column-name -> index map.
func findHeaderRow(rows [][]string, wanted ...string) (int, map[string]int) {
	for rowIdx, row := range rows {
		if rowIdx >= headerScanRows {
			break
		}
		columns := map[string]int{}
		for colIdx, cell := range row {
			key := strings.ToLower(strings.TrimSpace(cell))
			if key != "" {
				columns[key] = colIdx
			}
		}
		found := true
		for _, want := range wanted {
			if _, ok := columns[want]; !ok {
				found = false
				break
			}
		}
		if found {
			return rowIdx, columns
		}
	}
	return -1, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseMoney accepts "£12.50", "12.50", "12,340.00".
func parseMoney(value string) (float64, bool) {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.TrimPrefix(cleaned, "£")
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseIntCell(value string) int {
	f, ok := parseMoney(value)
	if !ok {
		return 0
	}
	return int(f)
}

func parseCores(workbook *excelize.File, sheet string) ([]database.DoorCore, error) {
	rows, err := workbook.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	headerIdx, columns := findHeaderRow(rows, "core", "cost")
	if headerIdx < 0 {
		return nil, fmt.Errorf("sheet %q has no CORE/COST header row", sheet)
	}

	ratingCol := -1
	if idx, ok := columns["rating"]; ok {
		ratingCol = idx
	} else if idx, ok := columns["fire rating"]; ok {
		ratingCol = idx
	}
	widthCol, heightCol := -1, -1
	if idx, ok := columns["sheet width"]; ok {
		widthCol = idx
	}
	if idx, ok := columns["sheet height"]; ok {
		heightCol = idx
	}

	cores := []database.DoorCore{}
	for _, row := range rows[headerIdx+1:] {
		coreType := cellAt(row, columns["core"])
		if coreType == "" {
			continue
		}
		cost, ok := parseMoney(cellAt(row, columns["cost"]))
		if !ok {
			continue
		}
		core := database.DoorCore{
			CoreType:      coreType,
			FireRating:    cellAt(row, ratingCol),
			CostPerSheet:  cost,
			SheetWidthMM:  parseIntCell(cellAt(row, widthCol)),
			SheetHeightMM: parseIntCell(cellAt(row, heightCol)),
		}
		if core.FireRating == "" {
			core.FireRating = "None"
		}
		cores = append(cores, core)
	}
	return cores, nil
}

func parseIronmongery(workbook *excelize.File, sheet string) ([]database.IronmongeryItem, error) {
	rows, err := workbook.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	headerIdx, columns := findHeaderRow(rows, "item", "cost")
	if headerIdx < 0 {
		return nil, fmt.Errorf("sheet %q has no ITEM/COST header row", sheet)
	}

	categoryCol := -1
	if idx, ok := columns["category"]; ok {
		categoryCol = idx
	}

	items := []database.IronmongeryItem{}
	category := "General"
	for _, row := range rows[headerIdx+1:] {
		name := cellAt(row, columns["item"])
		if name == "" {
			continue
		}
		// Category rows carry a name but no cost and start a new section.
		cost, ok := parseMoney(cellAt(row, columns["cost"]))
		if !ok {
			if categoryCol < 0 {
				category = name
			}
			continue
		}
		if c := cellAt(row, categoryCol); c != "" {
			category = c
		}
		items = append(items, database.IronmongeryItem{
			Category: category,
			Name:     name,
			Cost:     cost,
		})
	}
	return items, nil
}

func parseMaterials(workbook *excelize.File, sheet string) ([]database.MaterialItem, error) {
	rows, err := workbook.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	headerIdx, columns := findHeaderRow(rows, "material", "cost")
	if headerIdx < 0 {
		return nil, fmt.Errorf("sheet %q has no MATERIAL/COST header row", sheet)
	}

	categoryCol, unitCol := -1, -1
	if idx, ok := columns["category"]; ok {
		categoryCol = idx
	}
	if idx, ok := columns["unit"]; ok {
		unitCol = idx
	}

	items := []database.MaterialItem{}
	for _, row := range rows[headerIdx+1:] {
		name := cellAt(row, columns["material"])
		if name == "" {
			continue
		}
		cost, ok := parseMoney(cellAt(row, columns["cost"]))
		if !ok {
			continue
		}
		category := cellAt(row, categoryCol)
		if category == "" {
			category = "General"
		}
		unit := cellAt(row, unitCol)
		if unit == "" {
			unit = "each"
		}
		items = append(items, database.MaterialItem{
			Category: category,
			Name:     name,
			Unit:     unit,
			Cost:     cost,
		})
	}
	return items, nil
}
