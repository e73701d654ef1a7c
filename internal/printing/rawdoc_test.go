package printing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildRawDocument(t *testing.T) {
	req := sampleRequest(ModeIP)

	doc := string(BuildRawDocument(req.Bill, req.Company, fixedNow))

	assert.True(t, strings.HasPrefix(doc, pjlUEL+"@PJL JOB NAME=\"KWIT 42/2026\"\r\n"))
	assert.True(t, strings.HasSuffix(doc, pjlUEL+"@PJL EOJ\r\n"+pjlUEL))
	assert.Contains(t, doc, pclReset+pclA4+pclPortrait+pclCourier)
	assert.Contains(t, doc, formFeed+pclReset)

	for _, want := range []string{
		"Zwirownia Leczyca",
		"NIP: 1234567890",
		"KWIT WAGOWY NR 42/2026",
		"EL 12345",
		"Budimex",
		"Piasek",
		"120.50",
		"39170 kg  (2026-03-14 08:30)",
		"14200 kg  (2026-03-14 09:20)",
		"24970 kg",
		"2026-03-14 09:30",
	} {
		assert.Contains(t, doc, want)
	}

	assert.NotContains(t, doc, cameraPayload)
	assert.NotContains(t, doc, "Ż")
}

func TestBuildRawDocument_StripsControlCharacters(t *testing.T) {
	bill := Bill{ID: "7", Vehicle: "AB\x1bE123\r\nX"}

	doc := string(BuildRawDocument(bill, Company{}, time.Now()))

	assert.Contains(t, doc, "ABE123X")
	assert.Equal(t, 3, strings.Count(doc, pjlUEL))
	assert.Equal(t, 2, strings.Count(doc, pclReset), "only the framing resets remain")
}

func TestBuildRawDocument_MissingFieldsPrintDash(t *testing.T) {
	doc := string(BuildRawDocument(Bill{ID: "9"}, Company{}, time.Now()))

	assert.Contains(t, doc, "Pojazd:        -")
	assert.NotContains(t, doc, "Oplata")
	assert.Contains(t, doc, "KWIT WAGOWY NR 9")
}
