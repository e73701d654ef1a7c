package printing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	got := RenderTemplate("{{vehicle}} / {vehicle} / {{missing}}", map[string]string{"vehicle": "EL 1"})

	assert.Equal(t, "EL 1 / EL 1 / {{missing}}", got)
}

func TestTemplateMarkup_DefaultTemplate(t *testing.T) {
	req := sampleRequest(ModeHTML)
	req.Bill.Customer = `<script>alert("x")</script>`
	req.Bill.Images = append(req.Bill.Images, Image{Label: "tył", Src: "javascript:alert(1)"})

	doc, err := TemplateMarkup{}.Render(req, fixedNow)

	require.NoError(t, err)
	assert.Contains(t, doc, "Kwit wagowy nr 42/2026")
	assert.Contains(t, doc, "39170 kg")
	assert.Contains(t, doc, "24970 kg")
	assert.Contains(t, doc, "2026-03-14 09:30")
	assert.Contains(t, doc, `<img src="data:image/jpeg;base64,`+cameraPayload+`"`)
	assert.NotContains(t, doc, "javascript:")
	assert.NotContains(t, doc, "<script>")
	assert.Contains(t, doc, "&lt;script&gt;")
	assert.NotContains(t, doc, "{{")
}

func TestLoadTemplateMarkup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kwit.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>{vehicle} {net_weight}</p>"), 0o600))

	m, err := LoadTemplateMarkup(path)
	require.NoError(t, err)

	doc, err := m.Render(sampleRequest(ModeHTML), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "<p>EL 12345 24970 kg</p>", doc)

	_, err = LoadTemplateMarkup(filepath.Join(t.TempDir(), "missing.html"))
	assert.Error(t, err)

	m, err = LoadTemplateMarkup("")
	require.NoError(t, err)
	assert.Empty(t, m.Template)
}
