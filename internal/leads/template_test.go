package leads

import (
	"strings"
	"testing"
)

func TestRenderTemplate(t *testing.T) {
	lead := &SalesLead{
		Vacancy:     "Cleaner",
		City:        "Kazan",
		CompanyName: "Acme Retail",
		Email:       "lead@example.com",
	}
	ctx := RenderContext(lead, "Ivan Orlov")

	got := RenderTemplate("{{vacancy}} in {{ city }} for {{company}}, contact {{manager}}", ctx)
	want := "Cleaner in Kazan for Acme Retail, contact Ivan Orlov"
	if got != want {
		t.Fatalf("RenderTemplate() = %q, want %q", got, want)
	}

	if got := RenderTemplate("missing {{nonsense}} here", ctx); got != "missing  here" {
		t.Fatalf("RenderTemplate() unknown placeholder = %q", got)
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("# Offer\n\nStaffing for **Acme**.")
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "<strong>Acme</strong>") {
		t.Fatalf("RenderHTML() = %q", html)
	}
}

func TestParseTemplate(t *testing.T) {
	source := []byte(`---
name: Spring campaign
subject: Staffing for {{company}}
active: false
text_body: Plain fallback for {{vacancy}}.
---
# Offer

We can staff **{{vacancy}}** in {{city}}.
`)

	template, err := ParseTemplate(source)
	if err != nil {
		t.Fatalf("ParseTemplate() error = %v", err)
	}
	if template.Name != "Spring campaign" {
		t.Fatalf("Name = %q", template.Name)
	}
	if template.Subject != "Staffing for {{company}}" {
		t.Fatalf("Subject = %q", template.Subject)
	}
	if template.IsActive {
		t.Fatal("IsActive = true, want false from frontmatter")
	}
	if template.TextBody != "Plain fallback for {{vacancy}}." {
		t.Fatalf("TextBody = %q", template.TextBody)
	}
	if !strings.Contains(template.Markdown, "**{{vacancy}}**") {
		t.Fatalf("Markdown = %q", template.Markdown)
	}
}

func TestParseTemplateDefaults(t *testing.T) {
	template, err := ParseTemplate([]byte("Just a body with no frontmatter.\n"))
	if err != nil {
		t.Fatalf("ParseTemplate() error = %v", err)
	}
	if template.Name != "Default template" {
		t.Fatalf("Name = %q, want default", template.Name)
	}
	if !template.IsActive {
		t.Fatal("IsActive = false, want default true")
	}
}
