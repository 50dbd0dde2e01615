package leads

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-z_]+)\s*\}\}`)

// RenderContext builds the placeholder map a KP template is expanded with.
func RenderContext(lead *SalesLead, managerName string) map[string]string {
	if lead == nil {
		lead = &SalesLead{}
	}
	return map[string]string{
		"vacancy": lead.Vacancy,
		"city":    lead.City,
		"company": lead.CompanyName,
		"manager": managerName,
		"email":   lead.Email,
		"phone":   lead.Phone,
		"ad_url":  lead.AdURL,
		"source":  lead.Source,
	}
}

// RenderTemplate expands {{placeholder}} markers against the context map.
// Unknown placeholders collapse to the empty string.
func RenderTemplate(text string, ctx map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		return ctx[name]
	})
}

var kpMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// RenderHTML converts the template markdown into the HTML email alternative.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := kpMarkdown.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render kp markdown: %w", err)
	}
	return buf.String(), nil
}

type templateEnvelope struct {
	Name     string `yaml:"name"`
	Subject  string `yaml:"subject"`
	IsActive *bool  `yaml:"active"`
	TextBody string `yaml:"text_body"`
}

// ParseTemplate reads a KP template authored as a markdown document with
// frontmatter metadata. The markdown body becomes the HTML source.
func ParseTemplate(source []byte) (*KpTemplate, error) {
	var meta templateEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return nil, fmt.Errorf("parse kp template: %w", err)
	}

	template := &KpTemplate{
		Name:     meta.Name,
		Subject:  meta.Subject,
		TextBody: meta.TextBody,
		Markdown: string(body),
		IsActive: true,
	}
	if meta.IsActive != nil {
		template.IsActive = *meta.IsActive
	}
	if template.Name == "" {
		template.Name = "Default template"
	}
	return template, nil
}

// LoadTemplateFile reads and parses a KP template from disk.
func LoadTemplateFile(path string) (*KpTemplate, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kp template %s: %w", path, err)
	}
	return ParseTemplate(source)
}
