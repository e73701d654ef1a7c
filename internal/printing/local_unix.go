//go:build !windows

package printing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const DefaultQueueTimeout = time.Minute

// SystemQueue prints through CUPS with lp and lists destinations with lpstat.
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

	path := job.Scratch.Path(job.Format.Ext())
	if err := os.WriteFile(path, job.Data, 0o600); err != nil {
		return fmt.Errorf("%w: zapis pliku wydruku: %w", ErrLocalQueue, err)
	}

	ctx, cancel := context.WithTimeout(ctx, q.timeout())
	defer cancel()

	out, err := exec.CommandContext(ctx, "lp", lpArgs(job, path)...).CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: lp przekroczył limit czasu %s", ErrLocalQueue, q.timeout())
		}
		return fmt.Errorf("%w: lp: %w: %s", ErrLocalQueue, err, strings.TrimSpace(string(out)))
	}

	return nil
}

func lpArgs(job Job, path string) []string {
	var args []string
	if job.Printer != "" {
		args = append(args, "-d", job.Printer)
	}
	if job.Copies > 1 {
		args = append(args, "-n", strconv.Itoa(job.Copies))
	}
	if job.Title != "" {
		args = append(args, "-t", job.Title)
	}
	switch job.Format {
	case FormatRaw:
		args = append(args, "-o", "raw")
	case FormatHTML:
		args = append(args, "-o", "document-format=text/html")
	}

	return append(args, path)
}

func (q *SystemQueue) Printers(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout())
	defer cancel()

	out, err := exec.CommandContext(ctx, "lpstat", "-a").Output()
	if err != nil {
		// lpstat exits non-zero when no destinations are configured.
		if strings.Contains(strings.ToLower(string(out)), "no destinations") {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: lpstat: %w", ErrLocalQueue, err)
	}

	return parseLpstat(string(out)), nil
}

func parseLpstat(out string) []string {
	printers := []string{}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		printers = append(printers, fields[0])
	}
	return printers
}

func (q *SystemQueue) timeout() time.Duration {
	if q.Timeout <= 0 {
		return DefaultQueueTimeout
	}
	return q.Timeout
}
