package mailer

import (
	"bytes"
	"embed"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
)

// Template names.
const (
	TemplateDocGen  = "doc-gen"
	TemplateWelcome = "welcome"
)

//go:embed templates/*.md
var templateFS embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Templates lists the available template names.
func Templates() []string {
	entries, _ := templateFS.ReadDir("templates")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".md"))
	}
	sort.Strings(names)
	return names
}

// Render substitutes {{key}} placeholders in the named Markdown template and
// converts the result to an HTML document.
func Render(name string, data map[string]string) (string, error) {
	src, err := templateFS.ReadFile("templates/" + name + ".md")
	if err != nil {
		return "", errors.ValidationError("unknown email template").
			WithContext("template", name).
			Build()
	}

	text := string(src)
	for k, v := range data {
		text = strings.ReplaceAll(text, "{{"+k+"}}", v)
	}

	var body bytes.Buffer
	if err := md.Convert([]byte(text), &body); err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "failed to render email template").
			WithContext("template", name).
			Build()
	}

	var doc strings.Builder
	doc.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"></head><body>\n")
	doc.Write(body.Bytes())
	doc.WriteString("</body></html>\n")
	return doc.String(), nil
}
