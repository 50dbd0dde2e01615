package reconciliation

import (
	"strings"
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestCompareAggregatesAndDiffs(t *testing.T) {
	lenina := "тюмень, ул ленина, 39"
	mira := "тюмень, ул мира, 10"
	pobedy := "тюмень, пр-кт победы, 16а"

	customer := []ParsedRow{
		{Key: RowKey{Date: day(1), Addr: lenina}, AddrRaw: "Тюмень, ул Ленина 39", Hours: 4},
		{Key: RowKey{Date: day(1), Addr: lenina}, AddrRaw: "Тюмень, ул Ленина 39", Hours: 4},
		{Key: RowKey{Date: day(1), Addr: mira}, AddrRaw: "Тюмень, ул Мира 10", Hours: 8},
		{Key: RowKey{Date: day(2), Addr: pobedy}, AddrRaw: "Тюмень, пр-кт Победы 16а", Hours: 6},
	}
	database := []ParsedRow{
		{Key: RowKey{Date: day(1), Addr: lenina}, AddrRaw: "ул Ленина 39", Hours: 8},
		{Key: RowKey{Date: day(1), Addr: mira}, AddrRaw: "ул Мира 10", Hours: 7.5},
		{Key: RowKey{Date: day(3), Addr: mira}, AddrRaw: "ул Мира 10", Hours: 8},
	}

	result := Compare(customer, database)

	if len(result.OnlyCustomer) != 1 || result.OnlyCustomer[0].Key.Addr != pobedy {
		t.Fatalf("OnlyCustomer = %+v", result.OnlyCustomer)
	}
	if len(result.OnlyDatabase) != 1 || !result.OnlyDatabase[0].Key.Date.Equal(day(3)) {
		t.Fatalf("OnlyDatabase = %+v", result.OnlyDatabase)
	}
	if len(result.HourDiffs) != 1 {
		t.Fatalf("HourDiffs = %+v", result.HourDiffs)
	}
	diff := result.HourDiffs[0]
	if diff.Key.Addr != mira || diff.Customer != 8 || diff.Database != 7.5 {
		t.Fatalf("HourDiffs[0] = %+v", diff)
	}
	if result.CustomerKeys != 3 || result.DatabaseKeys != 3 {
		t.Fatalf("keys = %d/%d, want 3/3 (duplicate rows aggregate)", result.CustomerKeys, result.DatabaseKeys)
	}
}

func TestCompareSafeAddressMerge(t *testing.T) {
	base := "тюмень, ул ленина, 39"
	variant := base + "/3"

	customer := []ParsedRow{
		{Key: RowKey{Date: day(1), Addr: variant}, AddrRaw: "Тюмень, ул Ленина 39/3", Hours: 8},
	}
	database := []ParsedRow{
		{Key: RowKey{Date: day(1), Addr: base}, AddrRaw: "ул Ленина 39", Hours: 8},
	}

	result := Compare(customer, database)
	if len(result.OnlyCustomer) != 0 || len(result.OnlyDatabase) != 0 || len(result.HourDiffs) != 0 {
		t.Fatalf("variants not merged: %+v", result)
	}
}

func TestCompareMergeSkipsAmbiguousVariants(t *testing.T) {
	base := "тюмень, ул ленина, 39"
	variant := base + "/3"

	// both spellings on the customer side: merging could hide a real store
	customer := []ParsedRow{
		{Key: RowKey{Date: day(1), Addr: base}, Hours: 4},
		{Key: RowKey{Date: day(1), Addr: variant}, Hours: 4},
	}
	database := []ParsedRow{
		{Key: RowKey{Date: day(1), Addr: base}, Hours: 4},
	}

	result := Compare(customer, database)
	if len(result.OnlyCustomer) != 1 {
		t.Fatalf("OnlyCustomer = %+v, want the unmerged variant", result.OnlyCustomer)
	}
}

func TestResultSummary(t *testing.T) {
	customer := []ParsedRow{
		{Key: RowKey{Date: day(1), Addr: "тюмень, ул ленина, 39"}, Hours: 8},
	}
	result := Compare(customer, nil)
	summary := result.Summary()

	if !strings.HasPrefix(summary, "РЕЗУЛЬТАТ СВЕРКИ") {
		t.Fatalf("summary = %q", summary)
	}
	if !strings.Contains(summary, "Есть у заказчика, нет в базе: 1") {
		t.Fatalf("summary missing only-customer count:\n%s", summary)
	}
	if !strings.Contains(summary, "01.03.2025 | тюмень, ул ленина, 39") {
		t.Fatalf("summary missing key line:\n%s", summary)
	}
}

func TestBuildReport(t *testing.T) {
	customer := []ParsedRow{
		{Key: RowKey{Date: day(1), Addr: "тюмень, ул ленина, 39"}, AddrRaw: "Тюмень, ул Ленина 39", Hours: 8},
	}
	database := []ParsedRow{
		{Key: RowKey{Date: day(1), Addr: "тюмень, ул ленина, 39"}, AddrRaw: "ул Ленина 39", Hours: 6},
	}

	report, err := BuildReport(customer, database)
	if err != nil {
		t.Fatalf("BuildReport() error = %v", err)
	}
	if len(report) == 0 {
		t.Fatal("BuildReport() returned empty workbook")
	}
}
