package printing

import (
	"fmt"
	"html"
	"os"
	"strings"
	"time"
)

const defaultTemplate = `<!DOCTYPE html>
<html lang="pl">
<head>
<meta charset="utf-8">
<title>Kwit wagowy {{bill_number}}</title>
<style>
body { font-family: Arial, sans-serif; font-size: 12px; margin: 16mm; }
h1 { font-size: 18px; margin: 12px 0; }
table { border-collapse: collapse; width: 100%; }
td { padding: 4px 6px; border-bottom: 1px solid #ccc; }
td.label { width: 30%; font-weight: bold; }
.images img { max-width: 48%; margin: 4px; }
</style>
</head>
<body>
<header>
<strong>{{company_name}}</strong><br>
{{company_address}}<br>
{{company_tax_id}} {{company_phone}}
</header>
<h1>Kwit wagowy nr {{bill_number}}</h1>
<table>
<tr><td class="label">Pojazd</td><td>{{vehicle}}</td></tr>
<tr><td class="label">Klient</td><td>{{customer}}</td></tr>
<tr><td class="label">Materiał</td><td>{{material}}</td></tr>
<tr><td class="label">Opłata</td><td>{{charge}}</td></tr>
<tr><td class="label">Brutto</td><td>{{gross_weight}} <small>{{gross_at}}</small></td></tr>
<tr><td class="label">Tara</td><td>{{tare_weight}} <small>{{tare_at}}</small></td></tr>
<tr><td class="label">Netto</td><td><strong>{{net_weight}}</strong></td></tr>
</table>
<div class="images">{{images}}</div>
<footer><small>{{company_footer}} Wydrukowano: {{printed_at}}</small></footer>
</body>
</html>
`

// TemplateMarkup fills a placeholder template with bill fields. Both
// {{key}} and {key} placeholders are recognised.
type TemplateMarkup struct {
	Template string
}

// LoadTemplateMarkup reads a custom template from path, or uses the built-in
// one when path is empty.
func LoadTemplateMarkup(path string) (TemplateMarkup, error) {
	if strings.TrimSpace(path) == "" {
		return TemplateMarkup{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return TemplateMarkup{}, fmt.Errorf("reading receipt template: %w", err)
	}

	return TemplateMarkup{Template: string(data)}, nil
}

func (m TemplateMarkup) Render(req Request, printedAt time.Time) (string, error) {
	tpl := m.Template
	if strings.TrimSpace(tpl) == "" {
		tpl = defaultTemplate
	}

	return RenderTemplate(tpl, markupValues(req, printedAt)), nil
}

func markupValues(req Request, printedAt time.Time) map[string]string {
	b, c := req.Bill, req.Company

	values := map[string]string{
		"bill_id":         b.ID,
		"bill_number":     billNumber(b),
		"vehicle":         b.Vehicle,
		"customer":        b.Customer,
		"material":        b.Material,
		"charge":          "",
		"gross_weight":    formatWeight(b.GrossWeight),
		"gross_at":        formatTime(b.GrossAt),
		"tare_weight":     formatWeight(b.TareWeight),
		"tare_at":         formatTime(b.TareAt),
		"net_weight":      formatWeight(b.NetWeight),
		"company_name":    c.Name,
		"company_address": c.Address,
		"company_tax_id":  c.TaxID,
		"company_phone":   c.Phone,
		"company_footer":  c.Footer,
		"printed_at":      printedAt.Format(timeLayout),
	}
	if b.Charge > 0 {
		values["charge"] = fmt.Sprintf("%.2f", b.Charge)
	}

	for k, v := range values {
		values[k] = html.EscapeString(v)
	}

	var images strings.Builder
	for _, img := range b.Images {
		if !safeImageSource(img.Src) {
			continue
		}
		fmt.Fprintf(&images, `<img src="%s" alt="%s">`, html.EscapeString(img.Src), html.EscapeString(img.Label))
	}
	values["images"] = images.String()

	return values
}

// RenderTemplate substitutes {{key}} and {key} placeholders in template.
func RenderTemplate(template string, values map[string]string) string {
	rendered := template
	for key, value := range values {
		rendered = strings.ReplaceAll(rendered, "{{"+key+"}}", value)
		rendered = strings.ReplaceAll(rendered, "{"+key+"}", value)
	}

	return rendered
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

func safeImageSource(src string) bool {
	src = strings.ToLower(strings.TrimSpace(src))
	return strings.HasPrefix(src, "data:image/") || strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "http://")
}
