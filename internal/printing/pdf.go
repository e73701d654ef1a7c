package printing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const DefaultRenderTimeout = 30 * time.Second

// ChromeEngine renders PDFs with headless Chrome or Chromium, falling back to
// wkhtmltopdf. Binaries are looked up on every render so installing one
// while the agent runs takes effect without a restart.
type ChromeEngine struct {
	Timeout time.Duration
	// LookPath and candidates are replaceable in tests.
	LookPath   func(string) (string, error)
	Candidates func() []string
}

func NewChromeEngine(timeout time.Duration) *ChromeEngine {
	return &ChromeEngine{Timeout: timeout}
}

func (e *ChromeEngine) RenderPDF(ctx context.Context, html string, scratch Scratch) ([]byte, error) {
	chrome := e.findChrome()
	wkhtml := e.lookPath("wkhtmltopdf")
	if chrome == "" && wkhtml == "" {
		return nil, fmt.Errorf("%w: nie znaleziono Chrome, Chromium ani wkhtmltopdf", ErrRenderEngineUnavailable)
	}

	htmlPath := scratch.Path(".html")
	pdfPath := scratch.Path(".pdf")
	if err := os.WriteFile(htmlPath, []byte(html), 0o600); err != nil {
		return nil, fmt.Errorf("%w: zapis pliku HTML: %w", ErrRenderEngineFailed, err)
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error
	if chrome != "" {
		err := e.convertWithChrome(ctx, chrome, htmlPath, pdfPath)
		if err == nil {
			return readPDF(pdfPath)
		}
		errs = append(errs, err)
	}
	if wkhtml != "" {
		err := e.convertWithWkhtmltopdf(ctx, wkhtml, htmlPath, pdfPath)
		if err == nil {
			return readPDF(pdfPath)
		}
		errs = append(errs, err)
	}

	return nil, fmt.Errorf("%w: %w", ErrRenderEngineFailed, errors.Join(errs...))
}

func (e *ChromeEngine) convertWithChrome(ctx context.Context, chrome, htmlPath, pdfPath string) error {
	absHTML, _ := filepath.Abs(htmlPath)
	absPDF, _ := filepath.Abs(pdfPath)

	cmd := exec.CommandContext(ctx, chrome,
		"--headless",
		"--disable-gpu",
		"--no-pdf-header-footer",
		"--print-to-pdf="+absPDF,
		"file://"+filepath.ToSlash(absHTML),
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("chrome: %w: %s", err, strings.TrimSpace(string(out)))
	}

	return nil
}

func (e *ChromeEngine) convertWithWkhtmltopdf(ctx context.Context, wkhtml, htmlPath, pdfPath string) error {
	cmd := exec.CommandContext(ctx, wkhtml, "--quiet", "--enable-local-file-access", htmlPath, pdfPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("wkhtmltopdf: %w: %s", err, strings.TrimSpace(string(out)))
	}

	return nil
}

func (e *ChromeEngine) findChrome() string {
	candidates := chromeCandidates
	if e.Candidates != nil {
		candidates = e.Candidates
	}

	for _, c := range candidates() {
		if filepath.IsAbs(c) {
			if _, err := os.Stat(c); err == nil {
				return c
			}
			continue
		}
		if p := e.lookPath(c); p != "" {
			return p
		}
	}

	return ""
}

func (e *ChromeEngine) lookPath(name string) string {
	lookPath := exec.LookPath
	if e.LookPath != nil {
		lookPath = e.LookPath
	}

	p, err := lookPath(name)
	if err != nil {
		return ""
	}
	return p
}

func chromeCandidates() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
			"chrome.exe",
		}
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
	default:
		return []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"}
	}
}

func readPDF(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: odczyt PDF: %w", ErrRenderEngineFailed, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: pusty plik PDF", ErrRenderEngineFailed)
	}

	return data, nil
}
