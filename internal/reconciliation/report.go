package reconciliation

import (
	"fmt"
	"math"
	"sort"

	"github.com/xuri/excelize/v2"
)

// criticalDiffHours marks the per-store delta managers must act on.
const criticalDiffHours = 1.0

// BuildReport renders the manager-facing xlsx: a Report sheet with one row
// per store and a Differences sheet detailed per (date, address) key.
func BuildReport(customerRows, databaseRows []ParsedRow) ([]byte, error) {
	customerRows, databaseRows = applySafeAddressMerge(customerRows, databaseRows)

	customerByAddr := aggregateByAddr(customerRows)
	databaseByAddr := aggregateByAddr(databaseRows)

	displayAddr := map[string]string{}
	for _, row := range customerRows {
		if _, ok := displayAddr[row.Key.Addr]; !ok {
			displayAddr[row.Key.Addr] = row.AddrRaw
		}
	}
	for _, row := range databaseRows {
		if _, ok := displayAddr[row.Key.Addr]; !ok {
			displayAddr[row.Key.Addr] = row.AddrRaw
		}
	}

	type reportRow struct {
		display  string
		customer float64
		database float64
		diff     float64
	}

	// group address variants a second time on the display level, keeping the
	// shortest spelling for the manager
	grouped := map[string]*reportRow{}
	addrs := map[string]struct{}{}
	for addr := range customerByAddr {
		addrs[addr] = struct{}{}
	}
	for addr := range databaseByAddr {
		addrs[addr] = struct{}{}
	}
	for addr := range addrs {
		display := displayAddr[addr]
		if display == "" {
			display = addr
		}
		key := baseAddr(addr)
		row, ok := grouped[key]
		if !ok {
			row = &reportRow{display: display}
			grouped[key] = row
		} else if len(display) < len(row.display) {
			row.display = display
		}
		row.customer = round2(row.customer + customerByAddr[addr])
		row.database = round2(row.database + databaseByAddr[addr])
	}

	rows := make([]reportRow, 0, len(grouped))
	for _, row := range grouped {
		row.diff = round2(row.customer - row.database)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		di, dj := math.Abs(rows[i].diff), math.Abs(rows[j].diff)
		if di != dj {
			return di > dj
		}
		return rows[i].display > rows[j].display
	})

	file := excelize.NewFile()
	defer file.Close()

	const reportSheet = "Report"
	if err := file.SetSheetName(file.GetSheetName(0), reportSheet); err != nil {
		return nil, fmt.Errorf("reconciliation: rename sheet: %w", err)
	}

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6E6E6"}},
	})
	if err != nil {
		return nil, fmt.Errorf("reconciliation: header style: %w", err)
	}
	okStyle, err := file.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"C6EFCE"}},
	})
	if err != nil {
		return nil, fmt.Errorf("reconciliation: fill style: %w", err)
	}
	criticalStyle, err := file.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFC7CE"}},
	})
	if err != nil {
		return nil, fmt.Errorf("reconciliation: fill style: %w", err)
	}

	if err := file.SetSheetRow(reportSheet, "A1", &[]any{"адреса", "заказчик", "база", "расхождения"}); err != nil {
		return nil, fmt.Errorf("reconciliation: write header: %w", err)
	}
	if err := file.SetCellStyle(reportSheet, "A1", "D1", headerStyle); err != nil {
		return nil, fmt.Errorf("reconciliation: style header: %w", err)
	}

	for pos, row := range rows {
		cell := fmt.Sprintf("A%d", pos+2)
		if err := file.SetSheetRow(reportSheet, cell, &[]any{row.display, row.customer, row.database, row.diff}); err != nil {
			return nil, fmt.Errorf("reconciliation: write row: %w", err)
		}
		style := okStyle
		if math.Abs(row.diff) >= criticalDiffHours {
			style = criticalStyle
		}
		if err := file.SetCellStyle(reportSheet, fmt.Sprintf("B%d", pos+2), fmt.Sprintf("D%d", pos+2), style); err != nil {
			return nil, fmt.Errorf("reconciliation: style row: %w", err)
		}
	}
	if err := file.SetColWidth(reportSheet, "A", "A", 48); err != nil {
		return nil, fmt.Errorf("reconciliation: column width: %w", err)
	}

	const diffSheet = "Differences"
	if _, err := file.NewSheet(diffSheet); err != nil {
		return nil, fmt.Errorf("reconciliation: add sheet: %w", err)
	}
	if err := file.SetSheetRow(diffSheet, "A1", &[]any{"дата", "адрес", "заказчик", "база", "разница"}); err != nil {
		return nil, fmt.Errorf("reconciliation: write header: %w", err)
	}
	if err := file.SetCellStyle(diffSheet, "A1", "E1", headerStyle); err != nil {
		return nil, fmt.Errorf("reconciliation: style header: %w", err)
	}

	result := Compare(customerRows, databaseRows)
	line := 2
	writeDiff := func(entry KeyHours) error {
		cell := fmt.Sprintf("A%d", line)
		diff := round2(entry.Customer - entry.Database)
		err := file.SetSheetRow(diffSheet, cell, &[]any{
			entry.Key.Date.Format("02.01.2006"),
			entry.Key.Addr,
			entry.Customer,
			entry.Database,
			diff,
		})
		line++
		return err
	}
	for _, entry := range result.HourDiffs {
		if err := writeDiff(entry); err != nil {
			return nil, fmt.Errorf("reconciliation: write diff row: %w", err)
		}
	}
	for _, entry := range result.OnlyCustomer {
		if err := writeDiff(entry); err != nil {
			return nil, fmt.Errorf("reconciliation: write diff row: %w", err)
		}
	}
	for _, entry := range result.OnlyDatabase {
		if err := writeDiff(entry); err != nil {
			return nil, fmt.Errorf("reconciliation: write diff row: %w", err)
		}
	}
	if err := file.SetColWidth(diffSheet, "B", "B", 48); err != nil {
		return nil, fmt.Errorf("reconciliation: column width: %w", err)
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("reconciliation: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func aggregateByAddr(rows []ParsedRow) map[string]float64 {
	out := map[string]float64{}
	for _, row := range rows {
		out[row.Key.Addr] = round2(out[row.Key.Addr] + row.Hours)
	}
	return out
}
