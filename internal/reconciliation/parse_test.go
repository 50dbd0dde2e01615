package reconciliation

import (
	"errors"
	"testing"
	"time"
)

func matrixHeader() []string {
	return []string{
		"Адрес объекта",
		"1.3", "2.3", "3.3", "4.3", "5.3", "6.3", "7.3", "8.3", "9.3", "10.3",
	}
}

func TestParseMatrix(t *testing.T) {
	rows := [][]string{
		matrixHeader(),
		{"Тюмень, ул Ленина 39", "8", "", "4,5", "-", "02:30"},
		{"", "8"},
	}

	parsed, err := ParseMatrix(rows, 2025)
	if err != nil {
		t.Fatalf("ParseMatrix() error = %v", err)
	}
	if len(parsed) != 3 {
		t.Fatalf("ParseMatrix() = %d rows, want 3", len(parsed))
	}

	wantAddr := "тюмень, ул ленина, 39"
	for _, row := range parsed {
		if row.Key.Addr != wantAddr {
			t.Fatalf("Addr = %q, want %q", row.Key.Addr, wantAddr)
		}
	}
	if !parsed[0].Key.Date.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date = %v", parsed[0].Key.Date)
	}
	if parsed[1].Hours != 4.5 {
		t.Fatalf("hours = %v, want 4.5", parsed[1].Hours)
	}
	if parsed[2].Hours != 2.5 {
		t.Fatalf("clock hours = %v, want 2.5", parsed[2].Hours)
	}
}

func TestParseMatrixMissingColumns(t *testing.T) {
	if _, err := ParseMatrix([][]string{{"Объект", "1.3"}}, 2025); !errors.Is(err, ErrNoAddressColumn) {
		t.Fatalf("error = %v, want ErrNoAddressColumn", err)
	}
	if _, err := ParseMatrix([][]string{{"Адрес", "1.3", "2.3"}}, 2025); !errors.Is(err, ErrNoDateColumns) {
		t.Fatalf("error = %v, want ErrNoDateColumns", err)
	}
}

func TestParseRowwise(t *testing.T) {
	rows := [][]string{
		{"Отчет по сменам"},
		{},
		{"Дата", "Город", "Сегмент", "Кол-во часов"},
		{"05.03.2025", "Тюмень", "ул Ленина 39", "8"},
		{"05.03.2025", "Тюмень", "Тюмень, ул Мира 10", "3,5"},
		{"итого", "", "", "11,5"},
	}

	parsed, err := ParseRowwise(rows)
	if err != nil {
		t.Fatalf("ParseRowwise() error = %v", err)
	}
	if len(parsed) != 2 {
		t.Fatalf("ParseRowwise() = %d rows, want 2", len(parsed))
	}
	if parsed[0].Key.Addr != "тюмень, ул ленина, 39" {
		t.Fatalf("joined addr = %q", parsed[0].Key.Addr)
	}
	// the segment already names the city; it must not be doubled
	if parsed[1].Key.Addr != "тюмень, ул мира, 10" {
		t.Fatalf("addr = %q", parsed[1].Key.Addr)
	}
	if !parsed[0].Key.Date.Equal(time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date = %v", parsed[0].Key.Date)
	}
}

func TestParseRowwiseProbesDateColumn(t *testing.T) {
	rows := [][]string{
		{"", "Адрес", "Часы"},
		{"01.03.2025", "Тюмень, ул Ленина 39", "8"},
		{"02.03.2025", "Тюмень, ул Ленина 39", "8"},
		{"03.03.2025", "Тюмень, ул Ленина 39", "8"},
	}
	parsed, err := ParseRowwise(rows)
	if err != nil {
		t.Fatalf("ParseRowwise() error = %v", err)
	}
	if len(parsed) != 3 {
		t.Fatalf("rows = %d, want 3", len(parsed))
	}
}

func TestParseRowwiseMissingColumns(t *testing.T) {
	rows := [][]string{
		{"Дата", "Комментарий"},
		{"01.03.2025", "x"},
	}
	_, err := ParseRowwise(rows)
	var missing *MissingExportColumnsError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want MissingExportColumnsError", err)
	}
	if len(missing.Columns) != 2 {
		t.Fatalf("Columns = %v", missing.Columns)
	}
}

func TestParseAutoDetect(t *testing.T) {
	matrix := [][]string{
		matrixHeader(),
		{"Тюмень, ул Ленина 39", "8"},
	}
	parsed, err := Parse(matrix, 2025)
	if err != nil {
		t.Fatalf("Parse(matrix) error = %v", err)
	}
	if len(parsed) != 1 || parsed[0].Key.Addr != "тюмень, ул ленина, 39" {
		t.Fatalf("Parse(matrix) = %+v", parsed)
	}

	export := [][]string{
		{"Дата", "Сегмент", "Часы"},
		{"05.03.2025", "Тюмень, ул Ленина 39", "8"},
	}
	parsed, err = Parse(export, 2025)
	if err != nil {
		t.Fatalf("Parse(export) error = %v", err)
	}
	if len(parsed) != 1 || parsed[0].Hours != 8 {
		t.Fatalf("Parse(export) = %+v", parsed)
	}
}

func TestParseHoursCell(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"8", 8, true},
		{"4,5", 4.5, true},
		{"02:30", 2.5, true},
		{"10:15", 10.25, true},
		{"", 0, false},
		{"-", 0, false},
		{"—", 0, false},
		{"итого", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseHoursCell(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("parseHoursCell(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestHeaderDate(t *testing.T) {
	got, ok := headerDate("1.3", 2025)
	if !ok || !got.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("headerDate(1.3) = %v, %v", got, ok)
	}
	got, ok = headerDate("15.03.2025", 2024)
	if !ok || got.Year() != 2025 {
		t.Fatalf("headerDate(full date) = %v, %v", got, ok)
	}
	if _, ok := headerDate("адрес", 2025); ok {
		t.Fatal("headerDate accepted a non-date")
	}
}
