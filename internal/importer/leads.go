// Package importer loads leads and staffing requests from spreadsheet
// uploads. Files arrive in two shapes: the in-house xlsx template with a
// fixed header row, and messy CSV exports scraped from job boards where only
// the advert URL is reliable.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-crm/internal/leads"
	"github.com/goliatone/go-crm/internal/logging"
	"github.com/goliatone/go-crm/pkg/interfaces"
	"github.com/xuri/excelize/v2"
)

// ErrEmptyFile indicates the upload had no data rows.
var ErrEmptyFile = errors.New("importer: file has no data rows")

// MissingColumnsError reports template columns absent from the upload.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("importer: file is missing columns: %s", strings.Join(e.Columns, ", "))
}

// LeadReport summarizes one lead import run.
type LeadReport struct {
	Created    int `json:"created"`
	SkippedDup int `json:"skipped_dup"`
	SkippedBad int `json:"skipped_bad"`
}

// leadColumnAliases maps header spellings seen in the wild onto template
// column names.
var leadColumnAliases = map[string]string{
	"company_name": "company_name",
	"Компания":     "company_name",
	"Employer":     "company_name",
	"Организация":  "company_name",

	"vacancy":           "vacancy",
	"Vacancy":           "vacancy",
	"Вакансия":          "vacancy",
	"Название вакансии": "vacancy",
	"Title":             "vacancy",
	"Заголовок":         "vacancy",
	"Название":          "vacancy",

	"ad_url":                "ad_url",
	"URL":                   "ad_url",
	"Url":                   "ad_url",
	"Link":                  "ad_url",
	"href":                  "ad_url",
	"Ссылка":                "ad_url",
	"Ссылка на вакансию":    "ad_url",
	"Ссылка на объявление":  "ad_url",

	"city":           "city",
	"Город":          "city",
	"Region":         "city",
	"Регион":         "city",
	"Location":       "city",
	"Местоположение": "city",
	"Адрес":          "city",

	"email":            "email",
	"Email":            "email",
	"E-mail":           "email",
	"Почта":            "email",
	"Контактный email": "email",

	"phone":              "phone",
	"Phone":              "phone",
	"Телефон":            "phone",
	"Контактный телефон": "phone",

	"comment":     "comment",
	"Описание":    "comment",
	"Description": "comment",
	"Текст":       "comment",

	"work_types": "work_types",
	"Тип работ":  "work_types",

	"staff_count": "staff_count",
	"Кол-во":      "staff_count",
	"Количество":  "staff_count",
}

var adURLPattern = regexp.MustCompile(`https?://(?:www\.)?(?:avito\.ru|hh\.ru)/\S+`)

const (
	defaultCity     = "Не указан"
	defaultWorkType = "Линейный персонал"

	maxAdURLLen = 200
	maxNameLen  = 255
	maxCityLen  = 100
	maxPhoneLen = 50
)

// LeadImporter turns spreadsheet rows into leads through the lead service,
// so each row gets the same dedup, validation, and manager distribution as a
// manually entered lead.
type LeadImporter struct {
	service leads.Service
	logger  interfaces.Logger
}

// LeadImporterOption mutates the importer configuration.
type LeadImporterOption func(*LeadImporter)

// WithLeadLogger wires the module logger.
func WithLeadLogger(logger interfaces.Logger) LeadImporterOption {
	return func(i *LeadImporter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewLeadImporter wires a lead importer over the lead service.
func NewLeadImporter(service leads.Service, opts ...LeadImporterOption) *LeadImporter {
	importer := &LeadImporter{service: service, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(importer)
		}
	}
	return importer
}

// ImportXLSX loads leads from the in-house xlsx template. The first sheet's
// first row must carry the template columns.
func (i *LeadImporter) ImportXLSX(ctx context.Context, r io.Reader) (LeadReport, error) {
	var report LeadReport

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

	headers := rows[0]
	index := map[string]int{}
	for pos, header := range headers {
		index[strings.TrimSpace(header)] = pos
	}

	required := []string{"company_name", "source", "ad_url", "city", "email", "work_types", "staff_count", "comment"}
	var missing []string
	for _, column := range required {
		if _, ok := index[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return report, &MissingColumnsError{Columns: missing}
	}

	for _, row := range rows[1:] {
		cell := func(column string) string {
			pos := index[column]
			if pos >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[pos])
		}

		source := normalizeSource(cell("source"))
		company := cell("company_name")
		adURL := truncate(cell("ad_url"), maxAdURLLen)
		city := cell("city")

		if source == "" || company == "" || adURL == "" || city == "" || !validURL(adURL) {
			report.SkippedBad++
			continue
		}

		workTypes := splitWorkTypes(cell("work_types"))
		if len(workTypes) == 0 {
			workTypes = []string{defaultWorkType}
		}

		var staffCount *int
		if raw := cell("staff_count"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				staffCount = &n
			}
		}

		i.createLead(ctx, &report, leads.CreateLeadInput{
			CompanyName: truncate(company, maxNameLen),
			Vacancy:     truncate(company, maxNameLen),
			Source:      source,
			AdURL:       adURL,
			City:        truncate(city, maxCityLen),
			Email:       cell("email"),
			WorkTypes:   workTypes,
			StaffCount:  staffCount,
			Comment:     cell("comment"),
		})
	}

	return report, nil
}

// ReadCSV decodes a CSV upload, sniffing the delimiter from the header line.
// Scraped exports use ';' about as often as ','.
func ReadCSV(r io.Reader) ([][]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("importer: read csv: %w", err)
	}
	text := strings.TrimPrefix(string(raw), "\uFEFF")

	delimiter := ';'
	if head, _, found := strings.Cut(text, "\n"); found || head != "" {
		if strings.Count(head, ",") > strings.Count(head, ";") {
			delimiter = ','
		}
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("importer: parse csv: %w", err)
	}
	return records, nil
}

// ImportCSV loads leads from a CSV export. Structured files are read through
// the column alias map; scraped DOM exports fall back to URL sniffing with
// the longest text cell as the vacancy.
func (i *LeadImporter) ImportCSV(ctx context.Context, records [][]string) (LeadReport, error) {
	var report LeadReport

	if len(records) <= 1 {
		return report, ErrEmptyFile
	}

	index := map[string]int{}
	for pos, header := range records[0] {
		if mapped, ok := leadColumnAliases[strings.TrimSpace(header)]; ok {
			index[mapped] = pos
		}
	}
	_, hasURL := index["ad_url"]
	_, hasVacancy := index["vacancy"]
	_, hasCompany := index["company_name"]
	structured := hasURL && (hasVacancy || hasCompany)

	for _, row := range records[1:] {
		if len(row) == 0 {
			continue
		}

		var input leads.CreateLeadInput
		if structured {
			cell := func(column string) string {
				pos, ok := index[column]
				if !ok || pos >= len(row) {
					return ""
				}
				return strings.TrimSpace(row[pos])
			}

			adURL := cell("ad_url")
			vacancy := cell("vacancy")
			if vacancy == "" {
				vacancy = cell("company_name")
			}
			source := detectSourceFromURL(adURL)
			city := cell("city")
			if city == "" && source == leads.SourceAvito {
				city = cityFromAvitoURL(adURL)
			}
			comment := cell("comment")
			if comment == "" {
				comment = importComment(source)
			}

			input = leads.CreateLeadInput{
				CompanyName: cell("company_name"),
				Vacancy:     vacancy,
				Source:      source,
				AdURL:       adURL,
				City:        city,
				Email:       cell("email"),
				Phone:       cell("phone"),
				Comment:     comment,
			}
		} else {
			adURL := ""
			for _, cell := range row {
				if match := adURLPattern.FindString(cell); match != "" {
					adURL = match
					break
				}
			}
			if adURL == "" {
				report.SkippedBad++
				continue
			}

			source := detectSourceFromURL(adURL)
			vacancy := longestText(row)
			if len([]rune(vacancy)) < 3 {
				if guessed := GuessWorkTypes(strings.Join(row, " ")); len(guessed) > 0 {
					vacancy = guessed[0]
				} else {
					vacancy = defaultWorkType
				}
			}

			city := defaultCity
			if source == leads.SourceAvito {
				city = cityFromAvitoURL(adURL)
			}

			input = leads.CreateLeadInput{
				CompanyName: vacancy,
				Vacancy:     vacancy,
				Source:      source,
				AdURL:       adURL,
				City:        city,
				Comment:     importComment(source),
			}
		}

		if input.AdURL == "" || input.Vacancy == "" || !validURL(input.AdURL) {
			report.SkippedBad++
			continue
		}

		input.AdURL = truncate(input.AdURL, maxAdURLLen)
		input.Vacancy = truncate(input.Vacancy, maxNameLen)
		if input.CompanyName == "" {
			input.CompanyName = input.Vacancy
		}
		input.CompanyName = truncate(input.CompanyName, maxNameLen)
		if input.City == "" {
			input.City = defaultCity
		}
		input.City = truncate(input.City, maxCityLen)
		input.Phone = truncate(input.Phone, maxPhoneLen)
		if len(input.WorkTypes) == 0 {
			input.WorkTypes = GuessWorkTypes(input.Vacancy)
			if len(input.WorkTypes) == 0 {
				input.WorkTypes = []string{defaultWorkType}
			}
		}

		i.createLead(ctx, &report, input)
	}

	return report, nil
}

func (i *LeadImporter) createLead(ctx context.Context, report *LeadReport, input leads.CreateLeadInput) {
	_, err := i.service.CreateLead(ctx, input)
	switch {
	case err == nil:
		report.Created++
	case errors.Is(err, leads.ErrDuplicateAdURL):
		report.SkippedDup++
	default:
		report.SkippedBad++
		i.logger.Debug("lead row rejected", "ad_url", input.AdURL, "error", err)
	}
}

// normalizeSource maps free-form source spellings onto the canonical ids.
// Unknown sources return the empty string.
func normalizeSource(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "hh", "hh.ru", "headhunter":
		return leads.SourceHH
	case "avito", "авито":
		return leads.SourceAvito
	}
	return ""
}

func detectSourceFromURL(adURL string) string {
	lower := strings.ToLower(adURL)
	if strings.Contains(lower, "hh.ru") {
		return leads.SourceHH
	}
	return leads.SourceAvito
}

func importComment(source string) string {
	if source == leads.SourceHH {
		return "Импортировано автоматически из HH.ru"
	}
	return "Импортировано автоматически из Avito"
}

func splitWorkTypes(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GuessWorkTypes infers work types from keywords in the vacancy text.
func GuessWorkTypes(text string) []string {
	lower := strings.ToLower(strings.TrimSpace(text))
	var out []string
	add := func(name string) {
		for _, existing := range out {
			if existing == name {
				return
			}
		}
		out = append(out, name)
	}

	if strings.Contains(lower, "груз") {
		add("Грузчик")
	}
	if strings.Contains(lower, "убор") || strings.Contains(lower, "клининг") {
		add("Уборщик")
	}
	if strings.Contains(lower, "торгов") || strings.Contains(lower, "ртк") ||
		strings.Contains(lower, "ртз") || strings.Contains(lower, "выклад") {
		add("Работник торгового зала")
	}
	if strings.Contains(lower, "комплект") {
		add("Комплектовщик")
	}
	if strings.Contains(lower, "фасов") {
		add("Фасовщик")
	}
	if strings.Contains(lower, "сбор") {
		add("Сборщик")
	}
	return out
}

// cityFromAvitoURL reads the city from an Avito path. The first segment may
// be a region, in which case the second segment holds the city.
func cityFromAvitoURL(adURL string) string {
	parsed, err := url.Parse(adURL)
	if err != nil {
		return defaultCity
	}
	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return defaultCity
	}
	segments := strings.Split(path, "/")

	humanize := func(s string) string {
		return titleCase(strings.NewReplacer("_", " ", "-", " ").Replace(s))
	}

	first := strings.ToLower(segments[0])
	if len(segments) >= 2 &&
		(strings.Contains(first, "oblast") || strings.Contains(first, "kray") || strings.Contains(first, "respublika")) {
		return humanize(segments[1])
	}
	return humanize(segments[0])
}

func longestText(row []string) string {
	best := ""
	for _, cell := range row {
		text := strings.Join(strings.Fields(cell), " ")
		if len([]rune(text)) > 5 && len(text) > len(best) {
			best = text
		}
	}
	return best
}

func validURL(raw string) bool {
	parsed, err := url.Parse(raw)
	return err == nil && parsed.Scheme != "" && parsed.Host != ""
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for pos, word := range words {
		runes := []rune(word)
		if len(runes) == 0 {
			continue
		}
		words[pos] = strings.ToUpper(string(runes[0])) + strings.ToLower(string(runes[1:]))
	}
	return strings.Join(words, " ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
