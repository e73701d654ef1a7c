package printing

import (
	"strings"
	"time"
)

type Mode string

const (
	ModeHTML  Mode = "html"
	ModeLocal Mode = "local"
	ModeIP    Mode = "ip"
	ModePDF   Mode = "pdf"
)

func ParseMode(s string) (Mode, bool) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeHTML, ModeLocal, ModeIP, ModePDF:
		return m, true
	default:
		return "", false
	}
}

// Methods name the path that actually produced the output. They can differ
// from the requested mode when a fallback ran.
const (
	MethodHTML     = "html"
	MethodLocal    = "local"
	MethodLocalRaw = "local_raw"
	MethodIPPDF    = "ip_pdf"
	MethodIPRaw    = "ip_raw"
	MethodPDF      = "pdf"
)

type Target struct {
	Name string `json:"name,omitempty"`
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

type Company struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	TaxID   string `json:"taxId,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Footer  string `json:"footer,omitempty"`
}

// Image is a camera snapshot attached to a bill, usually a data URI.
type Image struct {
	Label string `json:"label,omitempty"`
	Src   string `json:"src"`
}

type Bill struct {
	ID          string     `json:"id"`
	Number      string     `json:"number,omitempty"`
	Vehicle     string     `json:"vehicle"`
	Customer    string     `json:"customer,omitempty"`
	Material    string     `json:"material,omitempty"`
	Charge      float64    `json:"charge,omitempty"`
	GrossWeight float64    `json:"grossWeight"`
	GrossAt     *time.Time `json:"grossAt,omitempty"`
	TareWeight  float64    `json:"tareWeight"`
	TareAt      *time.Time `json:"tareAt,omitempty"`
	NetWeight   float64    `json:"netWeight"`
	Images      []Image    `json:"images,omitempty"`
}

type Request struct {
	Mode    Mode    `json:"mode"`
	Target  Target  `json:"target"`
	Copies  int     `json:"copies,omitempty"`
	Company Company `json:"companySettings"`
	Bill    Bill    `json:"bill"`
}

type Result struct {
	Success    bool       `json:"success"`
	Method     string     `json:"method"`
	JobID      string     `json:"jobId,omitempty"`
	Detail     string     `json:"detail,omitempty"`
	Error      string     `json:"error,omitempty"`
	ErrorKind  string     `json:"errorKind,omitempty"`
	HTML       string     `json:"html,omitempty"`
	CopiesSent int        `json:"copiesSent,omitempty"`
	PrintedAt  *time.Time `json:"printedAt,omitempty"`
}

type Reachability struct {
	Reachable bool   `json:"reachable"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Error     string `json:"error,omitempty"`
}
