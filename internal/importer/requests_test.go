package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-crm/internal/stores"
)

func newRequestEnv(t *testing.T) (*RequestImporter, stores.Service) {
	t.Helper()
	storeRepo := stores.NewMemoryStoreRepository()
	svc := stores.NewService(
		storeRepo,
		stores.NewMemoryEmployeeRepository(storeRepo),
		stores.NewMemoryShiftRepository(),
	)
	return NewRequestImporter(svc), svc
}

func TestRequestImporter_ImportXLSX(t *testing.T) {
	importer, svc := newRequestEnv(t)

	header := []any{"Адрес объекта", "Вид оказываемых услуг", "Часы"}
	file := buildXLSX(t, [][]any{
		header,
		{"Тюмень, ул Ленина 5", "Мерчандайзинг", "10,5"},
		{"Тюмень, ул Ленина 5", "Мерчандайзинг", "10,5"},
		{"Тюмень, ул Ленина 5", "Мерчандайзинг", "4"},
		{"Тюмень, ул Мира 12", "Клининг", "8"},
		{"Тюмень, ул Гагарина 3", "Доставка", "2"},
	})

	report, err := importer.ImportXLSX(context.Background(), file, stores.ServiceMerchandising)
	if err != nil {
		t.Fatalf("ImportXLSX() error = %v", err)
	}
	if report.CreatedStores != 2 {
		t.Fatalf("CreatedStores = %d, want 2", report.CreatedStores)
	}
	if report.CreatedLines != 3 {
		t.Fatalf("CreatedLines = %d, want 3 (duplicate row counted once)", report.CreatedLines)
	}
	if report.SkippedBad != 1 {
		t.Fatalf("SkippedBad = %d, want 1", report.SkippedBad)
	}

	all, err := svc.ListStores(context.Background())
	if err != nil {
		t.Fatalf("ListStores() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListStores() = %d stores, want 2", len(all))
	}
	byAddress := map[string]float64{}
	for _, store := range all {
		byAddress[store.Address] = store.CurrentHoursMerch
	}
	if byAddress["ул Ленина 5"] != 14.5 {
		t.Fatalf("hours for Ленина = %v, want 14.5 (duplicate excluded)", byAddress["ул Ленина 5"])
	}
	if byAddress["ул Мира 12"] != 0 {
		t.Fatalf("hours for Мира = %v, want 0 for a cleaning row in a merch import", byAddress["ул Мира 12"])
	}
}

func TestRequestImporter_ImportXLSXResetsAbsentStores(t *testing.T) {
	importer, svc := newRequestEnv(t)

	first := buildXLSX(t, [][]any{
		{"Адрес объекта", "Вид оказываемых услуг", "Часы"},
		{"Тюмень, ул Ленина 5", "Мерчандайзинг", "10"},
	})
	if _, err := importer.ImportXLSX(context.Background(), first, stores.ServiceMerchandising); err != nil {
		t.Fatalf("ImportXLSX() error = %v", err)
	}

	second := buildXLSX(t, [][]any{
		{"Адрес объекта", "Вид оказываемых услуг", "Часы"},
		{"Тюмень, ул Мира 12", "Мерчандайзинг", "6"},
	})
	if _, err := importer.ImportXLSX(context.Background(), second, stores.ServiceMerchandising); err != nil {
		t.Fatalf("ImportXLSX() error = %v", err)
	}

	all, err := svc.ListStores(context.Background())
	if err != nil {
		t.Fatalf("ListStores() error = %v", err)
	}
	byAddress := map[string]float64{}
	for _, store := range all {
		byAddress[store.Address] = store.CurrentHoursMerch
	}
	if byAddress["ул Ленина 5"] != 0 {
		t.Fatalf("hours for Ленина = %v, want reset to 0", byAddress["ул Ленина 5"])
	}
	if byAddress["ул Мира 12"] != 6 {
		t.Fatalf("hours for Мира = %v, want 6", byAddress["ул Мира 12"])
	}
}

func TestRequestImporter_MissingColumns(t *testing.T) {
	importer, _ := newRequestEnv(t)

	file := buildXLSX(t, [][]any{
		{"Адрес объекта", "Комментарий"},
		{"Тюмень, ул Ленина 5", "x"},
	})

	_, err := importer.ImportXLSX(context.Background(), file, stores.ServiceMerchandising)
	var missing *MissingColumnsError
	if !errors.As(err, &missing) {
		t.Fatalf("ImportXLSX() error = %v, want MissingColumnsError", err)
	}
	if len(missing.Columns) != 2 {
		t.Fatalf("missing columns = %v", missing.Columns)
	}
}

func TestSplitAddress(t *testing.T) {
	cases := []struct {
		raw         string
		wantCity    string
		wantAddress string
	}{
		{"Тюмень, ул Ленина 5", "Тюмень", "ул Ленина 5"},
		{"Тюмень,  ул Мира 12, подъезд 2", "Тюмень", "ул Мира 12, подъезд 2"},
		{"ул Без Города 1", "Не указан", "ул Без Города 1"},
	}
	for _, tc := range cases {
		city, address := splitAddress(tc.raw)
		if city != tc.wantCity || address != tc.wantAddress {
			t.Fatalf("splitAddress(%q) = %q, %q, want %q, %q", tc.raw, city, address, tc.wantCity, tc.wantAddress)
		}
	}
}

func TestParseHours(t *testing.T) {
	if got, err := parseHours("12,75"); err != nil || got != 12.75 {
		t.Fatalf("parseHours(12,75) = %v, %v", got, err)
	}
	if got, err := parseHours(" 8 "); err != nil || got != 8 {
		t.Fatalf("parseHours(8) = %v, %v", got, err)
	}
	if _, err := parseHours(""); err == nil {
		t.Fatal("parseHours(\"\") succeeded")
	}
	if _, err := parseHours("-1"); !errors.Is(err, stores.ErrHoursInvalid) {
		t.Fatalf("parseHours(-1) error = %v, want ErrHoursInvalid", err)
	}
}

func TestNormalizeServiceType(t *testing.T) {
	cases := []struct {
		value string
		want  stores.ServiceType
	}{
		{"Мерчандайзинг", stores.ServiceMerchandising},
		{"выкладка товара", stores.ServiceMerchandising},
		{"Клининг", stores.ServiceCleaning},
		{"уборка помещений", stores.ServiceCleaning},
	}
	for _, tc := range cases {
		got, err := normalizeServiceType(tc.value)
		if err != nil || got != tc.want {
			t.Fatalf("normalizeServiceType(%q) = %q, %v, want %q", tc.value, got, err, tc.want)
		}
	}
	if _, err := normalizeServiceType("Доставка"); !errors.Is(err, ErrServiceColumnInvalid) {
		t.Fatalf("normalizeServiceType(Доставка) error = %v, want ErrServiceColumnInvalid", err)
	}
}
