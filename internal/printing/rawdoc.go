package printing

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

const (
	pjlUEL      = "\x1b%-12345X"
	pclReset    = "\x1bE"
	pclA4       = "\x1b&l26A"
	pclPortrait = "\x1b&l0O"
	pclCourier  = "\x1b(s0p12h10v0s0b3T"
	formFeed    = "\f"

	rawLineWidth = 64
	timeLayout   = "2006-01-02 15:04"
)

var asciiFold = strings.NewReplacer(
	"ą", "a", "ć", "c", "ę", "e", "ł", "l", "ń", "n", "ó", "o", "ś", "s", "ź", "z", "ż", "z",
	"Ą", "A", "Ć", "C", "Ę", "E", "Ł", "L", "Ń", "N", "Ó", "O", "Ś", "S", "Ź", "Z", "Ż", "Z",
)

// BuildRawDocument produces the plain-text PCL/PJL receipt used when no PDF
// can be rendered. Camera images are never part of it.
func BuildRawDocument(bill Bill, company Company, printedAt time.Time) []byte {
	var body bytes.Buffer

	line := func(s string) {
		body.WriteString(rawText(s))
		body.WriteString("\r\n")
	}
	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		line(fmt.Sprintf("%-14s %s", label+":", value))
	}

	if company.Name != "" {
		line(company.Name)
	}
	if company.Address != "" {
		line(company.Address)
	}
	if company.TaxID != "" {
		line("NIP: " + company.TaxID)
	}
	if company.Phone != "" {
		line("Tel: " + company.Phone)
	}
	line(strings.Repeat("=", rawLineWidth))

	title := "KWIT WAGOWY"
	if num := billNumber(bill); num != "" {
		title += " NR " + num
	}
	line(title)
	line("")

	field("Pojazd", bill.Vehicle)
	field("Klient", bill.Customer)
	field("Material", bill.Material)
	if bill.Charge > 0 {
		field("Oplata", fmt.Sprintf("%.2f", bill.Charge))
	}
	line(strings.Repeat("-", rawLineWidth))
	field("Brutto", weightWithTime(bill.GrossWeight, bill.GrossAt))
	field("Tara", weightWithTime(bill.TareWeight, bill.TareAt))
	field("Netto", formatWeight(bill.NetWeight))
	line(strings.Repeat("-", rawLineWidth))
	field("Wydrukowano", printedAt.Format(timeLayout))
	if company.Footer != "" {
		line("")
		line(company.Footer)
	}

	var doc bytes.Buffer
	doc.WriteString(pjlUEL)
	jobName := strings.ReplaceAll(rawText(strings.TrimSpace("KWIT "+billNumber(bill))), `"`, "'")
	fmt.Fprintf(&doc, "@PJL JOB NAME=\"%s\"\r\n", jobName)
	doc.WriteString("@PJL ENTER LANGUAGE=PCL\r\n")
	doc.WriteString(pclReset)
	doc.WriteString(pclA4)
	doc.WriteString(pclPortrait)
	doc.WriteString(pclCourier)
	doc.Write(body.Bytes())
	doc.WriteString(formFeed)
	doc.WriteString(pclReset)
	doc.WriteString(pjlUEL)
	doc.WriteString("@PJL EOJ\r\n")
	doc.WriteString(pjlUEL)

	return doc.Bytes()
}

func billNumber(bill Bill) string {
	if bill.Number != "" {
		return bill.Number
	}
	return bill.ID
}

func weightWithTime(weight float64, at *time.Time) string {
	s := formatWeight(weight)
	if at != nil && !at.IsZero() {
		s += "  (" + at.Format(timeLayout) + ")"
	}
	return s
}

func formatWeight(weight float64) string {
	return fmt.Sprintf("%.0f kg", weight)
}

// rawText folds Polish letters to ASCII and drops control characters so
// user-supplied fields cannot inject escape sequences.
func rawText(s string) string {
	s = asciiFold.Replace(s)
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r > 0x7e {
			return -1
		}
		return r
	}, s)
}
