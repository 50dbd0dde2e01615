package reconciliation

import (
	"fmt"
	"sort"
	"strings"
)

// maxListed caps how many keys each summary section prints.
const maxListed = 50

// KeyHours pairs one comparison key with the hour totals on both sides.
type KeyHours struct {
	Key      RowKey
	Customer float64
	Database float64
}

// Result is the outcome of one comparison.
type Result struct {
	CustomerRows int
	DatabaseRows int
	CustomerKeys int
	DatabaseKeys int

	OnlyCustomer []KeyHours
	OnlyDatabase []KeyHours
	HourDiffs    []KeyHours
}

// Compare matches both files on (date, normalized address) and reports keys
// present on one side only plus keys whose hour totals disagree.
func Compare(customerRows, databaseRows []ParsedRow) Result {
	customerRows, databaseRows = applySafeAddressMerge(customerRows, databaseRows)

	customer := aggregateByKey(customerRows)
	database := aggregateByKey(databaseRows)

	result := Result{
		CustomerRows: len(customerRows),
		DatabaseRows: len(databaseRows),
		CustomerKeys: len(customer),
		DatabaseKeys: len(database),
	}

	for key, hours := range customer {
		if _, ok := database[key]; !ok {
			result.OnlyCustomer = append(result.OnlyCustomer, KeyHours{Key: key, Customer: hours})
		}
	}
	for key, hours := range database {
		if _, ok := customer[key]; !ok {
			result.OnlyDatabase = append(result.OnlyDatabase, KeyHours{Key: key, Database: hours})
		}
	}
	for key, customerHours := range customer {
		if databaseHours, ok := database[key]; ok && customerHours != databaseHours {
			result.HourDiffs = append(result.HourDiffs, KeyHours{
				Key:      key,
				Customer: customerHours,
				Database: databaseHours,
			})
		}
	}

	sortKeyHours(result.OnlyCustomer)
	sortKeyHours(result.OnlyDatabase)
	sortKeyHours(result.HourDiffs)
	return result
}

// Summary renders the comparison as the plain-text digest managers read
// first.
func (r Result) Summary() string {
	var b strings.Builder
	b.WriteString("РЕЗУЛЬТАТ СВЕРКИ\n\n")
	fmt.Fprintf(&b, "Строк (после очистки): заказчик=%d, база=%d\n", r.CustomerRows, r.DatabaseRows)
	fmt.Fprintf(&b, "Уникальных ключей (дата+адрес): заказчик=%d, база=%d\n\n", r.CustomerKeys, r.DatabaseKeys)
	fmt.Fprintf(&b, "Есть у заказчика, нет в базе: %d\n", len(r.OnlyCustomer))
	fmt.Fprintf(&b, "Есть в базе, нет у заказчика: %d\n", len(r.OnlyDatabase))
	fmt.Fprintf(&b, "Несовпадение часов при одинаковом ключе: %d\n\n", len(r.HourDiffs))

	formatKey := func(k RowKey) string {
		return fmt.Sprintf("%s | %s", k.Date.Format("02.01.2006"), k.Addr)
	}

	if len(r.OnlyCustomer) > 0 {
		fmt.Fprintf(&b, "ТОЛЬКО У ЗАКАЗЧИКА (первые %d):\n", maxListed)
		for _, entry := range capList(r.OnlyCustomer) {
			fmt.Fprintf(&b, "  - %s | часы=%.2f\n", formatKey(entry.Key), entry.Customer)
		}
		b.WriteString("\n")
	}
	if len(r.OnlyDatabase) > 0 {
		fmt.Fprintf(&b, "ТОЛЬКО В БАЗЕ (первые %d):\n", maxListed)
		for _, entry := range capList(r.OnlyDatabase) {
			fmt.Fprintf(&b, "  - %s | часы=%.2f\n", formatKey(entry.Key), entry.Database)
		}
		b.WriteString("\n")
	}
	if len(r.HourDiffs) > 0 {
		fmt.Fprintf(&b, "РАЗНЫЕ ЧАСЫ (первые %d):\n", maxListed)
		for _, entry := range capList(r.HourDiffs) {
			fmt.Fprintf(&b, "  - %s | заказчик=%.2f | база=%.2f\n", formatKey(entry.Key), entry.Customer, entry.Database)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func capList(entries []KeyHours) []KeyHours {
	if len(entries) > maxListed {
		return entries[:maxListed]
	}
	return entries
}

func aggregateByKey(rows []ParsedRow) map[RowKey]float64 {
	out := map[RowKey]float64{}
	for _, row := range rows {
		out[row.Key] = round2(out[row.Key] + row.Hours)
	}
	return out
}

func sortKeyHours(entries []KeyHours) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Key.Date.Equal(entries[j].Key.Date) {
			return entries[i].Key.Date.Before(entries[j].Key.Date)
		}
		return entries[i].Key.Addr < entries[j].Key.Addr
	})
}

// applySafeAddressMerge glues two address spellings onto one key, but only
// when it cannot misfire: exactly two variants share a base, one variant is
// the base itself, and the variants live on opposite sides of the
// comparison.
func applySafeAddressMerge(customerRows, databaseRows []ParsedRow) ([]ParsedRow, []ParsedRow) {
	customerAddrs := map[string]struct{}{}
	for _, row := range customerRows {
		customerAddrs[row.Key.Addr] = struct{}{}
	}
	databaseAddrs := map[string]struct{}{}
	for _, row := range databaseRows {
		databaseAddrs[row.Key.Addr] = struct{}{}
	}

	variants := map[string][]string{}
	seen := map[string]struct{}{}
	record := func(addr string) {
		if _, ok := seen[addr]; ok {
			return
		}
		seen[addr] = struct{}{}
		base := baseAddr(addr)
		variants[base] = append(variants[base], addr)
	}
	for addr := range customerAddrs {
		record(addr)
	}
	for addr := range databaseAddrs {
		record(addr)
	}

	mapping := map[string]string{}
	for base, addrs := range variants {
		if len(addrs) != 2 {
			continue
		}
		var other string
		switch {
		case addrs[0] == base:
			other = addrs[1]
		case addrs[1] == base:
			other = addrs[0]
		default:
			continue
		}
		if baseAddr(other) != base || !baseSuffixRe.MatchString(other) {
			continue
		}

		_, baseInCustomer := customerAddrs[base]
		_, otherInCustomer := customerAddrs[other]
		_, baseInDatabase := databaseAddrs[base]
		_, otherInDatabase := databaseAddrs[other]

		separated := (otherInCustomer && baseInDatabase && !baseInCustomer && !otherInDatabase) ||
			(baseInCustomer && otherInDatabase && !otherInCustomer && !baseInDatabase)
		if !separated {
			continue
		}
		mapping[other] = base
	}
	if len(mapping) == 0 {
		return customerRows, databaseRows
	}

	remap := func(rows []ParsedRow) []ParsedRow {
		out := make([]ParsedRow, len(rows))
		for pos, row := range rows {
			if base, ok := mapping[row.Key.Addr]; ok {
				row.Key.Addr = base
			}
			out[pos] = row
		}
		return out
	}
	return remap(customerRows), remap(databaseRows)
}
