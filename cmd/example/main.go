package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"time"

	crm "github.com/goliatone/go-crm"
	"github.com/goliatone/go-crm/internal/leads"
	"github.com/goliatone/go-crm/internal/stores"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

const migrationsDir = "data/sql/migrations"

func main() {
	ctx := context.Background()

	dsn := os.Getenv("CRM_SQLITE_DSN")
	if dsn == "" {
		dsn = "file:crm.db?cache=shared&_fk=1"
	}
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}
	defer sqlDB.Close()

	bunDB := bun.NewDB(sqlDB, sqlitedialect.New())
	bunDB.SetMaxOpenConns(1)

	if err := applyMigrations(ctx, bunDB); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	cfg := crm.DefaultConfig()
	cfg.Features.Imports = true
	cfg.Features.Reconciliation = true
	cfg.Features.Logger = true
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "pretty"
	cfg.Logging.Level = "debug"

	module, err := crm.New(cfg,
		crm.WithDB(bunDB),
		crm.WithMailer(crm.MailerFunc(func(_ context.Context, msg leads.Message) error {
			fmt.Printf("KP email -> %s: %s\n", msg.To, msg.Subject)
			return nil
		})),
	)
	if err != nil {
		log.Fatalf("initialise crm: %v", err)
	}

	if err := seedDemoData(ctx, module); err != nil {
		log.Fatalf("seed demo data: %v", err)
	}

	mux := http.NewServeMux()
	if err := module.AdminAPI().Register(mux); err != nil {
		log.Fatalf("register admin api: %v", err)
	}

	addr := os.Getenv("CRM_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("admin API listening on %s (try GET %s/leads)", addr, cfg.Navigation.AdminBasePath)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

func applyMigrations(ctx context.Context, db *bun.DB) error {
	entries, err := crm.GetMigrationsFS().ReadDir(migrationsDir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := crm.GetMigrationsFS().ReadFile(migrationsDir + "/" + name)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, string(script)); err != nil {
			return fmt.Errorf("run %s: %w", name, err)
		}
	}
	return nil
}

func seedDemoData(ctx context.Context, module *crm.Module) error {
	managers := module.Container().ManagerRepository()
	if _, err := managers.Create(ctx, &leads.Manager{
		ID:       uuid.New(),
		FullName: "Анна Смирнова",
		Email:    "anna@crm.example",
		IsActive: true,
	}); err != nil {
		log.Printf("seed manager skipped: %v", err)
	}

	lead, err := module.Leads().CreateLead(ctx, leads.CreateLeadInput{
		CompanyName: "Монетка",
		Source:      "Avito",
		AdURL:       fmt.Sprintf("https://avito.ru/vacancy/%d", time.Now().UnixNano()),
		City:        "Тюмень",
		Email:       "hr@monetka.example",
		Comment:     "Нужны мерчандайзеры на сеть",
	})
	if err != nil {
		return fmt.Errorf("seed lead: %w", err)
	}
	log.Printf("seeded lead %s (%s)", lead.CompanyName, lead.ID)

	store, _, err := module.Stores().UpsertStoreByAddress(ctx, "Тюмень", "ул Ленина, 39", "Тюмень, ул. Ленина, д. 39")
	if err != nil {
		return fmt.Errorf("seed store: %w", err)
	}

	employee, err := module.Stores().CreateEmployee(ctx, stores.CreateEmployeeInput{
		FullName:  "Иван Петров",
		Email:     "ivan@crm.example",
		Positions: []stores.Position{stores.PositionHallWorker},
	})
	if err != nil {
		log.Printf("seed employee skipped: %v", err)
		return nil
	}

	if _, err := module.Stores().AssignShift(ctx, stores.AssignShiftInput{
		StoreID:     store.ID,
		Date:        time.Now().AddDate(0, 0, 1).Truncate(24 * time.Hour),
		ServiceType: stores.ServiceMerchandising,
		EmployeeID:  &employee.ID,
		Hours:       8,
	}); err != nil {
		return fmt.Errorf("seed shift: %w", err)
	}

	return nil
}
