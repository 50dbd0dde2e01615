package leads

import (
	"time"

	"github.com/google/uuid"
)

// DefaultKPStaleAfter is how long a sent KP may sit unanswered before the
// follow-up filter surfaces the lead.
const DefaultKPStaleAfter = 3 * 24 * time.Hour

// FilterOption is one selectable value of a list filter.
type FilterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FilterDefinition describes one list filter: the query parameter it reads
// and the choices the admin UI renders.
type FilterDefinition struct {
	Parameter string         `json:"parameter"`
	Title     string         `json:"title"`
	Options   []FilterOption `json:"options"`
}

// FilterQuery is the raw filter selection as it arrives from the list URL.
type FilterQuery struct {
	Status     string
	Source     string
	City       string
	ManagerID  string
	ReadyKP    string
	EmailState string
	NoPhone    string
	AvitoToday string
	KPNoReply  string
	Reminders  string
}

// FilterDefinitions lists the lead filters in display order.
func FilterDefinitions() []FilterDefinition {
	statusOptions := make([]FilterOption, 0, len(Statuses()))
	for _, status := range Statuses() {
		statusOptions = append(statusOptions, FilterOption{Value: string(status), Label: string(status)})
	}

	return []FilterDefinition{
		{
			Parameter: "status",
			Title:     "Статус",
			Options:   statusOptions,
		},
		{
			Parameter: "ready_kp",
			Title:     "Готовы к КП",
			Options: []FilterOption{
				{Value: "1", Label: "Есть email + статус Новый"},
			},
		},
		{
			Parameter: "email_state",
			Title:     "Email",
			Options: []FilterOption{
				{Value: "with", Label: "Показать с email"},
				{Value: "without", Label: "Показать без email"},
			},
		},
		{
			Parameter: "no_phone",
			Title:     "Нет телефона",
			Options: []FilterOption{
				{Value: "1", Label: "Без телефона"},
			},
		},
		{
			Parameter: "avito_today",
			Title:     "Avito — сегодня",
			Options: []FilterOption{
				{Value: "today", Label: "Лиды Avito за сегодня"},
			},
		},
		{
			Parameter: "kp_no_reply",
			Title:     "КП без ответа",
			Options: []FilterOption{
				{Value: "3days", Label: "КП → нет ответа 3 дня"},
			},
		},
		{
			Parameter: "lead_reminders",
			Title:     "Заметки/напоминания",
			Options: []FilterOption{
				{Value: "today", Label: "Есть напоминание на сегодня"},
				{Value: "overdue", Label: "Есть просроченное напоминание"},
			},
		},
	}
}

// BuildListOptions translates a filter selection into repository options
// using the default stale-KP window. Unknown or malformed values leave their
// dimension unconstrained.
func BuildListOptions(query FilterQuery, now time.Time) ListOptions {
	return BuildListOptionsWithWindow(query, now, DefaultKPStaleAfter)
}

// BuildListOptionsWithWindow is BuildListOptions with a configurable window
// for the ignored-KP filter.
func BuildListOptionsWithWindow(query FilterQuery, now time.Time, kpStaleAfter time.Duration) ListOptions {
	opts := ListOptions{Now: now}

	if status := Status(query.Status); status.Valid() {
		opts.Status = status
	}
	opts.Source = query.Source
	opts.City = query.City
	if id, err := uuid.Parse(query.ManagerID); err == nil {
		opts.ManagerID = &id
	}
	if query.ReadyKP == "1" {
		opts.ReadyForKP = true
	}
	switch EmailState(query.EmailState) {
	case EmailWith:
		opts.Email = EmailWith
	case EmailWithout:
		opts.Email = EmailWithout
	}
	if query.NoPhone == "1" {
		opts.NoPhone = true
	}
	if query.AvitoToday == "today" {
		opts.SourceToday = SourceAvito
	}
	if query.KPNoReply == "3days" {
		if kpStaleAfter <= 0 {
			kpStaleAfter = DefaultKPStaleAfter
		}
		border := now.Add(-kpStaleAfter)
		opts.KPSentBefore = &border
	}
	switch ReminderState(query.Reminders) {
	case ReminderToday:
		opts.Reminders = ReminderToday
	case ReminderOverdue:
		opts.Reminders = ReminderOverdue
	}

	return opts
}

// SourceSuggestions lists the lead sources offered in the admin form's
// datalist. Free-form values remain allowed.
func SourceSuggestions() []string {
	return []string{
		"HH.ru",
		"Avito",
		"Сайт",
		"VK",
		"Telegram",
		"2ГИС",
		"Рекомендация",
		"Холодный обзвон",
		"Email-рассылка",
	}
}
