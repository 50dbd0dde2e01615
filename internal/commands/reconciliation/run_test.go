package reconciliationcmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-crm/internal/reconciliation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type stubReconciliationService struct {
	inputs []reconciliation.RunInput
	record *reconciliation.Reconciliation
	err    error
}

func (s *stubReconciliationService) Run(_ context.Context, input reconciliation.RunInput) (*reconciliation.Reconciliation, error) {
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

func (s *stubReconciliationService) Get(context.Context, uuid.UUID) (*reconciliation.Reconciliation, error) {
	return nil, &reconciliation.NotFoundError{Key: "stub"}
}

func (s *stubReconciliationService) List(context.Context) ([]*reconciliation.Reconciliation, error) {
	return nil, nil
}

func writeTempFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("placeholder"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestRunCommandValidation(t *testing.T) {
	if err := (RunCommand{}).Validate(); err == nil {
		t.Fatal("expected error for missing paths")
	}
	if err := (RunCommand{CustomerPath: "a.xlsx"}).Validate(); err == nil {
		t.Fatal("expected error for missing database path")
	}
	if err := (RunCommand{CustomerPath: "a.xlsx", DatabasePath: "b.xlsx"}).Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestRunHandlerPassesFileNames(t *testing.T) {
	service := &stubReconciliationService{
		record: &reconciliation.Reconciliation{ID: uuid.New(), Status: reconciliation.StatusDone},
	}
	handler := NewRunHandler(service, nil)

	msg := RunCommand{
		CustomerPath: writeTempFile(t, "customer.xlsx"),
		DatabasePath: writeTempFile(t, "database.xlsx"),
	}
	if err := handler.Execute(context.Background(), msg); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(service.inputs) != 1 {
		t.Fatalf("inputs = %d, want 1", len(service.inputs))
	}
	input := service.inputs[0]
	if input.CustomerFileName != "customer.xlsx" || input.DatabaseFileName != "database.xlsx" {
		t.Fatalf("file names = %q / %q", input.CustomerFileName, input.DatabaseFileName)
	}
}

func TestRunHandlerFailsOnMissingFile(t *testing.T) {
	service := &stubReconciliationService{}
	handler := NewRunHandler(service, nil)

	err := handler.Execute(context.Background(), RunCommand{
		CustomerPath: filepath.Join(t.TempDir(), "absent.xlsx"),
		DatabasePath: filepath.Join(t.TempDir(), "absent.xlsx"),
	})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if len(service.inputs) != 0 {
		t.Fatal("service must not run when inputs are unreadable")
	}
}
