package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goliatone/go-crm/internal/logging"
	"github.com/goliatone/go-crm/internal/stores"
	"github.com/goliatone/go-crm/pkg/interfaces"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ErrServiceColumnInvalid indicates a row's service column could not be
// mapped to merch or cleaning.
var ErrServiceColumnInvalid = errors.New("importer: unrecognized service type")

// RequestReport summarizes one staffing-request import run.
type RequestReport struct {
	CreatedStores int `json:"created_stores"`
	CreatedLines  int `json:"created_lines"`
	SkippedBad    int `json:"skipped_bad"`
}

// RequestImporter loads the customer's staffing request spreadsheet: one row
// per store with the service type and the requested hours. Stores are
// upserted by address, and current hours are replaced wholesale so stores
// absent from the file drop to zero.
type RequestImporter struct {
	service stores.Service
	logger  interfaces.Logger
}

// RequestImporterOption mutates the importer configuration.
type RequestImporterOption func(*RequestImporter)

// WithRequestLogger wires the module logger.
func WithRequestLogger(logger interfaces.Logger) RequestImporterOption {
	return func(i *RequestImporter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewRequestImporter wires a request importer over the store service.
func NewRequestImporter(service stores.Service, opts ...RequestImporterOption) *RequestImporter {
	importer := &RequestImporter{service: service, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(importer)
		}
	}
	return importer
}

// ImportXLSX processes one staffing request file for the given service type.
// Hours accumulate per store across rows, duplicate rows (same address,
// service, and hours) count once.
func (i *RequestImporter) ImportXLSX(ctx context.Context, r io.Reader, serviceType stores.ServiceType) (RequestReport, error) {
	var report RequestReport

	if !serviceType.Valid() {
		return report, stores.ErrServiceTypeInvalid
	}

	file, err := excelize.OpenReader(r)
	if err != nil {
		return report, fmt.Errorf("importer: open xlsx: %w", err)
	}
	defer file.Close()

	sheet := file.GetSheetName(0)
	rows, err := file.GetRows(sheet)
	if err != nil {
		return report, fmt.Errorf("importer: read sheet %s: %w", sheet, err)
	}
	if len(rows) <= 1 {
		return report, ErrEmptyFile
	}

	addressCol, serviceCol, hoursCol, err := findRequestColumns(rows[0])
	if err != nil {
		return report, err
	}

	hoursByStore := map[uuid.UUID]float64{}
	storeIDs := map[uuid.UUID]struct{}{}
	seenRows := map[string]struct{}{}

	for _, row := range rows[1:] {
		addressRaw := cellAt(row, addressCol)
		if addressRaw == "" {
			continue
		}

		rowService, err := normalizeServiceType(cellAt(row, serviceCol))
		if err != nil {
			report.SkippedBad++
			continue
		}
		hours, err := parseHours(cellAt(row, hoursCol))
		if err != nil {
			report.SkippedBad++
			continue
		}

		city, address := splitAddress(addressRaw)
		store, created, err := i.service.UpsertStoreByAddress(ctx, city, address, addressRaw)
		if err != nil {
			return report, err
		}
		if created {
			report.CreatedStores++
		}
		storeIDs[store.ID] = struct{}{}

		hash := rowHash(addressRaw, string(rowService), hours)
		if _, dup := seenRows[hash]; dup {
			continue
		}
		seenRows[hash] = struct{}{}
		report.CreatedLines++

		if rowService == serviceType {
			hoursByStore[store.ID] += hours
		}
	}

	currentHours := map[uuid.UUID]float64{}
	for id := range storeIDs {
		currentHours[id] = hoursByStore[id]
	}
	if err := i.service.SetCurrentHours(ctx, serviceType, currentHours); err != nil {
		return report, err
	}

	i.logger.Info("staffing request imported",
		"service", string(serviceType),
		"created_stores", report.CreatedStores,
		"created_lines", report.CreatedLines,
		"skipped_bad", report.SkippedBad,
	)
	return report, nil
}

// findRequestColumns locates the three request columns by header substring.
// Customer files vary in exact wording but keep the keywords.
func findRequestColumns(header []string) (address, service, hours int, err error) {
	address, service, hours = -1, -1, -1
	for pos, raw := range header {
		lower := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case address == -1 && strings.Contains(lower, "адрес объекта"):
			address = pos
		case service == -1 && strings.Contains(lower, "услуг"):
			service = pos
		case hours == -1 && strings.Contains(lower, "час"):
			hours = pos
		}
	}

	var missing []string
	if address == -1 {
		missing = append(missing, "Адрес объекта")
	}
	if service == -1 {
		missing = append(missing, "Вид оказываемых услуг")
	}
	if hours == -1 {
		missing = append(missing, "Часы")
	}
	if len(missing) > 0 {
		return 0, 0, 0, &MissingColumnsError{Columns: missing}
	}
	return address, service, hours, nil
}

func cellAt(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

// splitAddress separates "Город, улица дом" into its city and address parts.
// Addresses without a comma keep the whole string as the address.
func splitAddress(raw string) (city, address string) {
	city, address, found := strings.Cut(raw, ",")
	if !found {
		return defaultCity, strings.TrimSpace(raw)
	}
	city = strings.TrimSpace(city)
	address = strings.TrimSpace(address)
	if city == "" {
		city = defaultCity
	}
	if address == "" {
		address = city
	}
	return city, address
}

func normalizeServiceType(value string) (stores.ServiceType, error) {
	lower := strings.ToLower(strings.TrimSpace(value))
	switch {
	case strings.Contains(lower, "мерч") || strings.Contains(lower, "выклад") || strings.Contains(lower, "merch"):
		return stores.ServiceMerchandising, nil
	case strings.Contains(lower, "клин") || strings.Contains(lower, "убор") || strings.Contains(lower, "clean"):
		return stores.ServiceCleaning, nil
	}
	return "", ErrServiceColumnInvalid
}

func parseHours(value string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return 0, fmt.Errorf("importer: empty hours cell")
	}
	hours, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("importer: parse hours %q: %w", value, err)
	}
	if hours < 0 {
		return 0, stores.ErrHoursInvalid
	}
	return hours, nil
}

func rowHash(addressRaw, service string, hours float64) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%.2f", addressRaw, service, hours))
	return hex.EncodeToString(sum[:])
}
