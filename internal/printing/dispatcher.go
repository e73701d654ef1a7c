package printing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const MaxCopies = 20

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

type Options struct {
	DefaultMode   Mode
	DefaultTarget Target
	DefaultCopies int
	// TempDir is where per-job scratch directories are created; empty means
	// os.TempDir().
	TempDir  string
	Now      func() time.Time
	NewJobID func() string
}

// Dispatcher routes a print request to the backend its mode selects and
// applies that backend's fallback. It never panics or returns a Go error:
// every outcome is described by the Result.
type Dispatcher struct {
	markup Markup
	engine PDFEngine
	queue  LocalQueue
	raw    RawSender
	chain  RenderChain
	logger zerolog.Logger
	opts   Options
}

func NewDispatcher(markup Markup, engine PDFEngine, queue LocalQueue, raw RawSender, logger zerolog.Logger, opts Options) *Dispatcher {
	if opts.DefaultMode == "" {
		opts.DefaultMode = ModeHTML
	}
	if opts.DefaultCopies <= 0 {
		opts.DefaultCopies = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewJobID == nil {
		opts.NewJobID = uuid.NewString
	}
	if raw == nil {
		raw = RawWriter{}
	}

	return &Dispatcher{
		markup: markup,
		engine: engine,
		queue:  queue,
		raw:    raw,
		chain:  RenderChain{Engine: engine},
		logger: logger,
		opts:   opts,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Result {
	jobID := d.opts.NewJobID()

	req, err := d.normalize(req)
	logger := d.logger.With().
		Str("job_id", jobID).
		Str("mode", string(req.Mode)).
		Str("bill_id", req.Bill.ID).
		Logger()

	if err != nil {
		logger.Warn().Err(err).Msg("Odrzucono zlecenie wydruku")
		return failed(Result{Method: string(req.Mode), JobID: jobID}, err)
	}

	printedAt := d.opts.Now()
	doc, docErr := d.renderMarkup(req, printedAt)

	if req.Mode == ModeHTML {
		if docErr != nil {
			return failed(Result{Method: MethodHTML, JobID: jobID}, docErr)
		}
		return succeeded(Result{Method: MethodHTML, JobID: jobID, HTML: doc, Detail: "Dokument przygotowany do wydruku w przeglądarce"})
	}

	scratch, cleanup, err := d.newScratch(req.Bill, printedAt, jobID)
	if err != nil {
		logger.Error().Err(err).Msg("Nie udało się utworzyć katalogu tymczasowego")
		return failed(Result{Method: string(req.Mode), JobID: jobID}, err)
	}
	defer cleanup()

	var res Result
	switch req.Mode {
	case ModeLocal:
		res = d.printLocal(ctx, logger, req, doc, docErr, printedAt, scratch)
	case ModeIP:
		res = d.printIP(ctx, logger, req, doc, docErr, printedAt, scratch)
	case ModePDF:
		res = d.printPDF(ctx, logger, req, doc, docErr, scratch)
	}
	res.JobID = jobID

	if res.Success {
		res.PrintedAt = &printedAt
		logger.Info().Str("method", res.Method).Int("copies", res.CopiesSent).Msg("Wydruk zakończony")
	} else {
		logger.Warn().Str("method", res.Method).Str("error_kind", res.ErrorKind).Str("error", res.Error).Msg("Wydruk nieudany")
	}

	return res
}

// Printers lists the printers installed on this machine.
func (d *Dispatcher) Printers(ctx context.Context) ([]string, error) {
	if d.queue == nil {
		return nil, fmt.Errorf("%w: brak kolejki wydruku", ErrLocalQueue)
	}
	return d.queue.Printers(ctx)
}

func (d *Dispatcher) TestConnectivity(ctx context.Context, host string, port int) Reachability {
	if port <= 0 {
		port = DefaultRawPort
	}
	return d.raw.Probe(ctx, host, port)
}

func (d *Dispatcher) printLocal(ctx context.Context, logger zerolog.Logger, req Request, doc string, docErr error, printedAt time.Time, scratch Scratch) Result {
	if d.queue == nil {
		return failed(Result{Method: MethodLocal}, fmt.Errorf("%w: brak kolejki wydruku", ErrLocalQueue))
	}

	primaryErr := docErr
	if primaryErr == nil {
		primaryErr = d.queue.Print(ctx, Job{
			Printer: req.Target.Name,
			Title:   jobTitle(req.Bill),
			Format:  FormatHTML,
			Data:    []byte(doc),
			Copies:  req.Copies,
			Scratch: scratch,
		})
		if primaryErr == nil {
			return succeeded(Result{Method: MethodLocal, CopiesSent: req.Copies, Detail: "Wysłano do drukarki lokalnej"})
		}
		primaryErr = asQueueError(primaryErr)
	}

	logger.Warn().Err(primaryErr).Msg("Wydruk lokalny nieudany, wysyłam dokument tekstowy PCL")

	fallbackErr := d.queue.Print(ctx, Job{
		Printer: req.Target.Name,
		Title:   jobTitle(req.Bill),
		Format:  FormatRaw,
		Data:    BuildRawDocument(req.Bill, req.Company, printedAt),
		Copies:  req.Copies,
		Scratch: scratch,
	})
	if fallbackErr != nil {
		return failed(Result{Method: MethodLocalRaw}, errors.Join(primaryErr, asQueueError(fallbackErr)))
	}

	return succeeded(Result{
		Method:     MethodLocalRaw,
		CopiesSent: req.Copies,
		Detail:     "Wydrukowano dokument tekstowy (bez zdjęć): " + primaryErr.Error(),
	})
}

func (d *Dispatcher) printIP(ctx context.Context, logger zerolog.Logger, req Request, doc string, docErr error, printedAt time.Time, scratch Scratch) Result {
	var rendered Rendered
	if docErr != nil {
		rendered = Rendered{
			Data:       BuildRawDocument(req.Bill, req.Company, printedAt),
			Path:       RenderPathRaw,
			PrimaryErr: docErr,
		}
	} else {
		rendered = d.chain.Render(ctx, doc, req, printedAt, scratch)
	}

	method := MethodIPPDF
	if rendered.Path == RenderPathRaw {
		method = MethodIPRaw
		logger.Warn().Err(rendered.PrimaryErr).Msg("Brak PDF, drukuję dokument tekstowy PCL bez zdjęć")
	}

	for i := 0; i < req.Copies; i++ {
		if err := d.raw.Send(ctx, req.Target.Host, req.Target.Port, rendered.Data); err != nil {
			return failed(Result{Method: method, CopiesSent: i}, fmt.Errorf("kopia %d z %d: %w", i+1, req.Copies, err))
		}
	}

	detail := fmt.Sprintf("Wysłano %d kop. na %s:%d", req.Copies, req.Target.Host, req.Target.Port)
	if rendered.PrimaryErr != nil {
		detail += " (tryb tekstowy: " + rendered.PrimaryErr.Error() + ")"
	}

	return succeeded(Result{Method: method, CopiesSent: req.Copies, Detail: detail})
}

func (d *Dispatcher) printPDF(ctx context.Context, logger zerolog.Logger, req Request, doc string, docErr error, scratch Scratch) Result {
	if docErr != nil {
		return failed(Result{Method: MethodPDF}, docErr)
	}
	if d.engine == nil {
		return failed(Result{Method: MethodPDF}, ErrRenderEngineUnavailable)
	}
	if d.queue == nil {
		return failed(Result{Method: MethodPDF}, fmt.Errorf("%w: brak kolejki wydruku", ErrLocalQueue))
	}

	pdf, err := d.engine.RenderPDF(ctx, doc, scratch)
	if err != nil {
		if !errors.Is(err, ErrRenderEngineUnavailable) && !errors.Is(err, ErrRenderEngineFailed) {
			err = fmt.Errorf("%w: %w", ErrRenderEngineFailed, err)
		}
		return failed(Result{Method: MethodPDF}, err)
	}

	logger.Debug().Int("bytes", len(pdf)).Msg("PDF wygenerowany")

	err = d.queue.Print(ctx, Job{
		Printer: req.Target.Name,
		Title:   jobTitle(req.Bill),
		Format:  FormatPDF,
		Data:    pdf,
		Copies:  req.Copies,
		Scratch: scratch,
	})
	if err != nil {
		return failed(Result{Method: MethodPDF}, asQueueError(err))
	}

	return succeeded(Result{Method: MethodPDF, CopiesSent: req.Copies, Detail: "Wysłano PDF do drukarki lokalnej"})
}

func (d *Dispatcher) renderMarkup(req Request, printedAt time.Time) (string, error) {
	if d.markup == nil {
		return "", fmt.Errorf("%w: brak szablonu dokumentu", ErrRenderEngineUnavailable)
	}

	doc, err := d.markup.Render(req, printedAt)
	if err != nil {
		return "", fmt.Errorf("%w: szablon dokumentu: %w", ErrRenderEngineFailed, err)
	}

	return doc, nil
}

func (d *Dispatcher) normalize(req Request) (Request, error) {
	if req.Mode == "" {
		req.Mode = d.opts.DefaultMode
	}
	mode, ok := ParseMode(string(req.Mode))
	if !ok {
		return req, fmt.Errorf("%w: nieznany tryb wydruku %q", ErrInvalidRequest, req.Mode)
	}
	req.Mode = mode

	if req.Copies <= 0 {
		req.Copies = d.opts.DefaultCopies
	}
	if req.Copies > MaxCopies {
		return req, fmt.Errorf("%w: za dużo kopii (%d, maks. %d)", ErrInvalidRequest, req.Copies, MaxCopies)
	}

	if req.Target.Name == "" {
		req.Target.Name = d.opts.DefaultTarget.Name
	}
	if req.Target.Host == "" {
		req.Target.Host = d.opts.DefaultTarget.Host
		if req.Target.Port == 0 {
			req.Target.Port = d.opts.DefaultTarget.Port
		}
	}
	if req.Target.Port <= 0 {
		req.Target.Port = DefaultRawPort
	}

	if req.Mode == ModeIP {
		if _, err := rawAddr(req.Target.Host, req.Target.Port); err != nil {
			return req, err
		}
	}

	return req, nil
}

// newScratch creates a scratch directory unique to this job. The returned
// cleanup removes it together with everything collaborators wrote there.
func (d *Dispatcher) newScratch(bill Bill, at time.Time, jobID string) (Scratch, func(), error) {
	name := fmt.Sprintf("scalebridge-%s-%d-%s", safeName(billNumber(bill)), at.UnixMilli(), shortID(jobID))

	dir, err := os.MkdirTemp(d.opts.TempDir, name+"-")
	if err != nil {
		return Scratch{}, nil, fmt.Errorf("creating scratch dir: %w", err)
	}

	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			d.logger.Warn().Err(err).Str("dir", dir).Msg("Nie udało się usunąć plików tymczasowych")
		}
	}

	return Scratch{Dir: dir, Name: name}, cleanup, nil
}

func asQueueError(err error) error {
	if errors.Is(err, ErrLocalQueue) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrLocalQueue, err)
}

func succeeded(res Result) Result {
	res.Success = true
	return res
}

func failed(res Result, err error) Result {
	res.Success = false
	res.Error = err.Error()
	res.ErrorKind = Kind(err)
	return res
}

func jobTitle(bill Bill) string {
	if num := billNumber(bill); num != "" {
		return "Kwit " + num
	}
	return "Kwit wagowy"
}

func safeName(s string) string {
	s = unsafeNameChars.ReplaceAllString(s, "_")
	if s == "" || s == "_" {
		return "bill"
	}
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
