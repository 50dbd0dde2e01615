package reconciliation

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrNoAddressColumn indicates the customer matrix has no address column.
var ErrNoAddressColumn = errors.New("reconciliation: no address column in the customer file")

// ErrNoDateColumns indicates the customer matrix header carries no dates.
var ErrNoDateColumns = errors.New("reconciliation: no date columns in the customer file header")

// ErrNoDateColumn indicates the database export's date column was not found.
var ErrNoDateColumn = errors.New("reconciliation: could not locate the date column in the export")

// MissingExportColumnsError reports required export columns that were not
// found in the detected header row.
type MissingExportColumnsError struct {
	Columns []string
}

func (e *MissingExportColumnsError) Error() string {
	return fmt.Sprintf("reconciliation: export is missing columns: %s (the address may be labelled 'Сегмент')", strings.Join(e.Columns, ", "))
}

var (
	dayMonthPattern = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})$`)
	clockPattern    = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)
)

var dateLayouts = []string{
	"02.01.2006",
	"2006-01-02",
	"02/01/2006",
	"02.01.06",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"01-02-06",
	"01-02-2006",
	"1/2/06 15:04",
}

// parseDate reads a date cell in any of the spellings the files use.
func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

// headerDate additionally accepts the "1.1" day.month shorthand customers
// put in matrix headers.
func headerDate(value string, defaultYear int) (time.Time, bool) {
	if t, ok := parseDate(value); ok {
		return t, true
	}
	if match := dayMonthPattern.FindStringSubmatch(strings.TrimSpace(value)); match != nil {
		day, _ := strconv.Atoi(match[1])
		month, _ := strconv.Atoi(match[2])
		if day >= 1 && day <= 31 && month >= 1 && month <= 12 {
			return time.Date(defaultYear, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseHoursCell reads an hours cell. Dashes mean "no entry"; clock values
// like 02:30 become fractional hours.
func parseHoursCell(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" || value == "-" || value == "—" {
		return 0, false
	}
	if match := clockPattern.FindStringSubmatch(value); match != nil {
		hours, _ := strconv.Atoi(match[1])
		minutes, _ := strconv.Atoi(match[2])
		return round2(float64(hours) + float64(minutes)/60), true
	}
	parsed, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return round2(parsed), true
}

// ReadSheet loads the first sheet of an xlsx upload as rows of strings.
func ReadSheet(r io.Reader) ([][]string, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("reconciliation: open xlsx: %w", err)
	}
	defer file.Close()

	rows, err := file.GetRows(file.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("reconciliation: read sheet: %w", err)
	}
	return rows, nil
}

// ParseMatrix reads the customer file: one row per store, one header column
// per day, hours in the cells.
func ParseMatrix(rows [][]string, defaultYear int) ([]ParsedRow, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	header := rows[0]

	addrCol := -1
	for pos, raw := range header {
		if strings.Contains(normText(raw), "адрес") {
			addrCol = pos
			break
		}
	}
	if addrCol == -1 {
		return nil, ErrNoAddressColumn
	}

	type dayColumn struct {
		pos  int
		date time.Time
	}
	var dayColumns []dayColumn
	for pos, raw := range header {
		if d, ok := headerDate(raw, defaultYear); ok {
			dayColumns = append(dayColumns, dayColumn{pos: pos, date: d})
		}
	}
	if len(dayColumns) < 10 {
		return nil, ErrNoDateColumns
	}

	var out []ParsedRow
	for _, row := range rows[1:] {
		addrRaw := cell(row, addrCol)
		addrNorm := NormalizeAddress(addrRaw)
		if addrNorm == "" {
			continue
		}
		for _, day := range dayColumns {
			hours, ok := parseHoursCell(cell(row, day.pos))
			if !ok || hours == 0 {
				continue
			}
			out = append(out, ParsedRow{
				Key:     RowKey{Date: day.date, Addr: addrNorm},
				AddrRaw: addrRaw,
				Hours:   hours,
			})
		}
	}
	return out, nil
}

// detectHeaderRow finds the export's header row, which is rarely the first
// one. A row mentioning date + address/segment + hours wins.
func detectHeaderRow(rows [][]string, maxScan int) int {
	if maxScan > len(rows) {
		maxScan = len(rows)
	}
	for pos := 0; pos < maxScan; pos++ {
		joined := normText(strings.Join(rows[pos], " "))
		if strings.Contains(joined, "дата") &&
			(strings.Contains(joined, "сегмент") || strings.Contains(joined, "адрес")) &&
			strings.Contains(joined, "час") {
			return pos
		}
	}

	best, bestScore := 0, -1
	for pos := 0; pos < maxScan; pos++ {
		score := 0
		var hasDate, hasHours, hasAddr bool
		for _, raw := range rows[pos] {
			text := normText(raw)
			if text == "дата" || strings.HasPrefix(text, "дата ") {
				hasDate = true
			}
			if strings.Contains(text, "час") {
				hasHours = true
			}
			if text == "сегмент" || strings.Contains(text, "адрес") {
				hasAddr = true
			}
		}
		if hasDate {
			score++
		}
		if hasHours {
			score++
		}
		if hasAddr {
			score++
		}
		if score > bestScore {
			best, bestScore = pos, score
		}
		if score == 3 {
			return pos
		}
	}
	return best
}

type exportColumns struct {
	date    int
	hours   int
	address int
	city    int
}

func findExportColumns(header []string) exportColumns {
	columns := exportColumns{date: -1, hours: -1, address: -1, city: -1}
	for pos, raw := range header {
		text := normText(raw)
		if text == "" {
			continue
		}
		if columns.date == -1 && (text == "дата" || strings.HasPrefix(text, "дата ") || text == "день" || text == "период") {
			columns.date = pos
		}
		if columns.hours == -1 && (strings.Contains(text, "час") || strings.Contains(text, "отработ") || strings.Contains(text, "hours")) {
			columns.hours = pos
		}
		if columns.address == -1 && (text == "сегмент" || strings.Contains(text, "адрес") || strings.Contains(text, "address")) {
			columns.address = pos
		}
		if columns.city == -1 && text == "город" {
			columns.city = pos
		}
	}
	return columns
}

// ParseRowwise reads the database export: one row per entry with date,
// optional city, address (often labelled "Сегмент"), and hours.
func ParseRowwise(rows [][]string) ([]ParsedRow, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	headerPos := detectHeaderRow(rows, 250)
	columns := findExportColumns(rows[headerPos])

	if columns.date == -1 {
		// header did not name the date column; probe cell contents
		sampleEnd := headerPos + 120
		if sampleEnd > len(rows) {
			sampleEnd = len(rows)
		}
		bestCol, bestHits := -1, 0
		for pos := range rows[headerPos] {
			hits := 0
			for _, row := range rows[headerPos+1 : sampleEnd] {
				if _, ok := parseDate(cell(row, pos)); ok {
					hits++
				}
			}
			if hits > bestHits {
				bestCol, bestHits = pos, hits
			}
		}
		if bestCol == -1 || bestHits < 3 {
			return nil, ErrNoDateColumn
		}
		columns.date = bestCol
	}

	var missing []string
	if columns.hours == -1 {
		missing = append(missing, "часы")
	}
	if columns.address == -1 {
		missing = append(missing, "адрес")
	}
	if len(missing) > 0 {
		return nil, &MissingExportColumnsError{Columns: missing}
	}

	var out []ParsedRow
	for _, row := range rows[headerPos+1:] {
		date, ok := parseDate(cell(row, columns.date))
		if !ok {
			continue
		}
		hours, ok := parseHoursCell(cell(row, columns.hours))
		if !ok || hours == 0 {
			continue
		}

		addrPart := cell(row, columns.address)
		cityPart := ""
		if columns.city != -1 {
			cityPart = cell(row, columns.city)
		}

		// normalize the joined spelling so the key matches the matrix file
		fullRaw := addrPart
		if cityPart != "" && !strings.Contains(normText(addrPart), normText(cityPart)) {
			fullRaw = strings.TrimSuffix(cityPart+", "+addrPart, ", ")
		}
		fullNorm := NormalizeAddress(fullRaw)
		if fullNorm == "" {
			continue
		}

		out = append(out, ParsedRow{
			Key:     RowKey{Date: date, Addr: fullNorm},
			AddrRaw: strings.TrimSpace(fullRaw),
			Hours:   hours,
		})
	}
	return out, nil
}

// Parse auto-detects the file shape: a header full of dates means the
// customer matrix, anything else is treated as the database export.
func Parse(rows [][]string, defaultYear int) ([]ParsedRow, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	dateLike := 0
	for _, raw := range rows[0] {
		if _, ok := headerDate(raw, defaultYear); ok {
			dateLike++
		}
	}
	if dateLike >= 10 {
		return ParseMatrix(rows, defaultYear)
	}
	return ParseRowwise(rows)
}

func cell(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}
