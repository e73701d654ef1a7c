//go:build windows

package printing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

const (
	DefaultQueueTimeout = 2 * time.Minute

	devicesKeyPath = `Software\Microsoft\Windows NT\CurrentVersion\Devices`
	windowsKeyPath = `Software\Microsoft\Windows NT\CurrentVersion\Windows`
)

var (
	winspool             = windows.NewLazySystemDLL("winspool.drv")
	procOpenPrinter      = winspool.NewProc("OpenPrinterW")
	procClosePrinter     = winspool.NewProc("ClosePrinter")
	procStartDocPrinter  = winspool.NewProc("StartDocPrinterW")
	procEndDocPrinter    = winspool.NewProc("EndDocPrinter")
	procStartPagePrinter = winspool.NewProc("StartPagePrinter")
	procEndPagePrinter   = winspool.NewProc("EndPagePrinter")
	procWritePrinter     = winspool.NewProc("WritePrinter")
)

// docInfo1 mirrors DOC_INFO_1W.
type docInfo1 struct {
	docName    *uint16
	outputFile *uint16
	datatype   *uint16
}

// SystemQueue prints through the Windows spooler. Raw documents go straight
// to winspool; HTML and PDF are handed to SumatraPDF when it sits next to the
// executable, otherwise to the shell's PrintTo verb.
type SystemQueue struct {
	Timeout time.Duration
}

func NewSystemQueue(timeout time.Duration) *SystemQueue {
	return &SystemQueue{Timeout: timeout}
}

func (q *SystemQueue) Print(ctx context.Context, job Job) error {
	if len(job.Data) == 0 {
		return fmt.Errorf("%w: pusty dokument", ErrLocalQueue)
	}

	printer := strings.TrimSpace(job.Printer)
	if printer == "" {
		name, err := defaultPrinter()
		if err != nil {
			return fmt.Errorf("%w: brak drukarki domyślnej: %w", ErrLocalQueue, err)
		}
		printer = name
	}

	copies := job.Copies
	if copies < 1 {
		copies = 1
	}

	if job.Format == FormatRaw {
		for i := 0; i < copies; i++ {
			if err := writeRaw(printer, job.Title, job.Data); err != nil {
				return fmt.Errorf("%w: %w", ErrLocalQueue, err)
			}
		}
		return nil
	}

	path := job.Scratch.Path(job.Format.Ext())
	if err := os.WriteFile(path, job.Data, 0o600); err != nil {
		return fmt.Errorf("%w: zapis pliku wydruku: %w", ErrLocalQueue, err)
	}

	ctx, cancel := context.WithTimeout(ctx, q.timeout())
	defer cancel()

	for i := 0; i < copies; i++ {
		if err := q.printFile(ctx, job.Format, path, printer); err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: wydruk przekroczył limit czasu %s", ErrLocalQueue, q.timeout())
			}
			return fmt.Errorf("%w: %w", ErrLocalQueue, err)
		}
	}

	return nil
}

func (q *SystemQueue) printFile(ctx context.Context, format Format, path, printer string) error {
	if format == FormatPDF {
		if sumatra := sumatraPath(); sumatra != "" {
			if err := exec.CommandContext(ctx, sumatra, "-print-to", printer, "-silent", path).Run(); err == nil {
				return nil
			}
		}
	}

	script := fmt.Sprintf(
		"$ErrorActionPreference='Stop'; Start-Process -FilePath '%s' -Verb PrintTo -ArgumentList '\"%s\"' -WindowStyle Hidden -Wait",
		psQuote(path), psQuote(printer),
	)
	out, err := exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-Command", script).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("błąd windows spooler: %s", msg)
	}

	return nil
}

func (q *SystemQueue) Printers(ctx context.Context) ([]string, error) {
	printers, err := registryPrinters()
	if err == nil {
		return printers, nil
	}

	ctx, cancel := context.WithTimeout(ctx, q.timeout())
	defer cancel()

	out, psErr := exec.CommandContext(ctx, "powershell", "-NoProfile", "-Command", "Get-Printer | Select-Object -ExpandProperty Name").Output()
	if psErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrLocalQueue, errors.Join(err, psErr))
	}

	printers = []string{}
	for _, line := range strings.Split(string(out), "\n") {
		if s := strings.TrimSpace(line); s != "" {
			printers = append(printers, s)
		}
	}
	return printers, nil
}

func (q *SystemQueue) timeout() time.Duration {
	if q.Timeout <= 0 {
		return DefaultQueueTimeout
	}
	return q.Timeout
}

func registryPrinters() ([]string, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, devicesKeyPath, registry.QUERY_VALUE)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = k.Close()
	}()

	names, err := k.ReadValueNames(0)
	if err != nil {
		return nil, err
	}

	return names, nil
}

// defaultPrinter reads the "Device" value, formatted "name,winspool,port".
func defaultPrinter() (string, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, windowsKeyPath, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = k.Close()
	}()

	device, _, err := k.GetStringValue("Device")
	if err != nil {
		return "", err
	}

	name, _, _ := strings.Cut(device, ",")
	if strings.TrimSpace(name) == "" {
		return "", registry.ErrNotExist
	}
	return name, nil
}

func writeRaw(printer, title string, data []byte) error {
	printerName, err := windows.UTF16PtrFromString(printer)
	if err != nil {
		return err
	}
	if title == "" {
		title = "ScaleBridge"
	}
	docName, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	datatype, _ := windows.UTF16PtrFromString("RAW")

	var h windows.Handle
	r, _, callErr := procOpenPrinter.Call(uintptr(unsafe.Pointer(printerName)), uintptr(unsafe.Pointer(&h)), 0)
	if r == 0 {
		return fmt.Errorf("OpenPrinter %q: %w", printer, callErr)
	}
	defer func() {
		_, _, _ = procClosePrinter.Call(uintptr(h))
	}()

	info := docInfo1{docName: docName, datatype: datatype}
	r, _, callErr = procStartDocPrinter.Call(uintptr(h), 1, uintptr(unsafe.Pointer(&info)))
	if r == 0 {
		return fmt.Errorf("StartDocPrinter: %w", callErr)
	}
	defer func() {
		_, _, _ = procEndDocPrinter.Call(uintptr(h))
	}()

	r, _, callErr = procStartPagePrinter.Call(uintptr(h))
	if r == 0 {
		return fmt.Errorf("StartPagePrinter: %w", callErr)
	}
	defer func() {
		_, _, _ = procEndPagePrinter.Call(uintptr(h))
	}()

	var written uint32
	r, _, callErr = procWritePrinter.Call(uintptr(h), uintptr(unsafe.Pointer(&data[0])), uintptr(len(data)), uintptr(unsafe.Pointer(&written)))
	if r == 0 {
		return fmt.Errorf("WritePrinter: %w", callErr)
	}
	if int(written) != len(data) {
		return fmt.Errorf("WritePrinter: zapisano %d z %d bajtów", written, len(data))
	}

	return nil
}

func sumatraPath() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}

	p := filepath.Join(filepath.Dir(exe), "SumatraPDF.exe")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func psQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
