// Package importer reads furniture manifests from CSV and Excel files and
// room outlines from DXF drawings. Manifest import supports automatic
// delimiter detection, flexible column mapping, and case-insensitive header
// recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/roomlayout/internal/model"
)

// ImportResult holds the results of a manifest import.
type ImportResult struct {
	Manifest model.Manifest
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Type      int
	Count     int
	ID        int
	Label     int
	Width     int
	Height    int
	Clearance int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"type":      {"type", "furniture", "furniture type", "kind", "category", "item"},
	"count":     {"count", "quantity", "qty", "num", "amount", "pcs", "pieces"},
	"id":        {"id", "identifier", "tag", "ref"},
	"label":     {"label", "name", "description", "desc"},
	"width":     {"width", "w", "length", "len"},
	"height":    {"height", "h", "depth", "d"},
	"clearance": {"clearance", "buffer", "margin", "spacing"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// Returns the mapping and true if a header was detected, or the positional
// mapping (type, count, width, height, clearance) and false if not.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Type: -1, Count: -1, ID: -1, Label: -1, Width: -1, Height: -1, Clearance: -1}
	slots := map[string]*int{
		"type":      &mapping.Type,
		"count":     &mapping.Count,
		"id":        &mapping.ID,
		"label":     &mapping.Label,
		"width":     &mapping.Width,
		"height":    &mapping.Height,
		"clearance": &mapping.Clearance,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias {
					isHeader = true
					if slot := slots[role]; *slot == -1 {
						*slot = i
					}
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{Type: 0, Count: 1, ID: -1, Label: -1, Width: 2, Height: 3, Clearance: 4}, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseOptionalFloat(row []string, idx int, name, rowLabel string) (float64, bool, string) {
	s := getCell(row, idx)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, name, s)
	}
	return v, true, ""
}

// parseRow extracts a manifest entry from a row using the given column mapping.
// Returns the entry, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (model.ManifestItem, string, string) {
	typeStr := getCell(row, mapping.Type)
	if typeStr == "" {
		return model.ManifestItem{}, fmt.Sprintf("%s: Missing furniture type", rowLabel), ""
	}
	ft, err := model.ParseFurnitureType(typeStr)
	if err != nil {
		return model.ManifestItem{}, fmt.Sprintf("%s: Unknown furniture type '%s'", rowLabel, typeStr), ""
	}

	item := model.ManifestItem{
		Type:  ft,
		Count: 1,
		ID:    getCell(row, mapping.ID),
		Label: getCell(row, mapping.Label),
	}

	var warning string
	if countStr := getCell(row, mapping.Count); countStr != "" {
		count, err := strconv.Atoi(countStr)
		if err != nil {
			return model.ManifestItem{}, fmt.Sprintf("%s: Invalid count '%s'", rowLabel, countStr), ""
		}
		if count <= 0 {
			return model.ManifestItem{}, fmt.Sprintf("%s: Count must be positive", rowLabel), ""
		}
		item.Count = count
	} else {
		warning = fmt.Sprintf("%s: No count given, assuming 1", rowLabel)
	}

	width, hasWidth, msg := parseOptionalFloat(row, mapping.Width, "width", rowLabel)
	if msg != "" {
		return model.ManifestItem{}, msg, ""
	}
	height, hasHeight, msg := parseOptionalFloat(row, mapping.Height, "height", rowLabel)
	if msg != "" {
		return model.ManifestItem{}, msg, ""
	}
	if hasWidth != hasHeight {
		return model.ManifestItem{}, fmt.Sprintf("%s: Width and height must be given together", rowLabel), ""
	}
	if hasWidth {
		if width <= 0 || height <= 0 {
			return model.ManifestItem{}, fmt.Sprintf("%s: Width and height must be positive", rowLabel), ""
		}
		item.Width, item.Height = width, height
	}

	clearance, hasClearance, msg := parseOptionalFloat(row, mapping.Clearance, "clearance", rowLabel)
	if msg != "" {
		return model.ManifestItem{}, msg, ""
	}
	if hasClearance {
		if clearance < 0 {
			return model.ManifestItem{}, fmt.Sprintf("%s: Clearance must not be negative", rowLabel), ""
		}
		item.Clearance = model.Float(clearance)
	}

	return item, "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports a furniture manifest from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports a manifest from a CSV reader with a specific
// delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports a manifest from an Excel (.xlsx) file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row into manifest entries.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Manifest: model.Manifest{},
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		if mapping.Type == -1 {
			result.Errors = append(result.Errors, "Required columns not found in header: Type")
			return result
		}
	} else if _, err := model.ParseFurnitureType(getCell(rows[0], 0)); err != nil {
		// an unrecognised header; keep the positional mapping
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		item, errMsg, warning := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}

		result.Manifest = append(result.Manifest, item)
	}

	return result
}
