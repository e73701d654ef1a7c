package tray

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/NowakAdmin/ScaleBridge/internal/agent"
	"github.com/NowakAdmin/ScaleBridge/internal/autostart"
	"github.com/NowakAdmin/ScaleBridge/internal/config"
	"github.com/NowakAdmin/ScaleBridge/internal/scale"
	"github.com/NowakAdmin/ScaleBridge/internal/update"
	"github.com/NowakAdmin/ScaleBridge/internal/version"
)

const appName = "ScaleBridge"

type App struct {
	cfg    *config.Config
	agent  *agent.Agent
	logger zerolog.Logger
}

func New(cfg *config.Config, agentInstance *agent.Agent, logger zerolog.Logger) *App {
	return &App{
		cfg:    cfg,
		agent:  agentInstance,
		logger: logger,
	}
}

func (a *App) Run() {
	systray.Run(a.onReady, a.onExit)
}

func (a *App) onReady() {
	systray.SetIcon(generateIcon(16))
	systray.SetTitle("ScaleBridge")
	systray.SetTooltip("ScaleBridge - waga i drukarki")

	status := systray.AddMenuItem(statusLine(false, a.agent.ScaleStatus()), "Stan połączenia z wagą")
	status.Disable()

	start := systray.AddMenuItem("Uruchom", "Uruchom agenta")
	stop := systray.AddMenuItem("Zatrzymaj", "Zatrzymaj agenta")

	autostartItem := systray.AddMenuItemCheckbox("Autostart", "Uruchamiaj przy logowaniu", false)
	enabled, err := autostart.IsEnabled(appName)
	if err == nil && enabled {
		autostartItem.Check()
	}

	updateItem := systray.AddMenuItem("Sprawdź aktualizacje", "Sprawdź nowszą wersję")
	versionItem := systray.AddMenuItem("Wersja: "+version.Version, "Wersja agenta")
	versionItem.Disable()

	systray.AddSeparator()
	quit := systray.AddMenuItem("Zamknij", "Zamknij ScaleBridge")

	ctx := context.Background()
	checker := update.Checker{Repo: a.cfg.Update.GitHubRepo, Current: version.Version}

	interval := time.Duration(a.cfg.Update.CheckIntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	updateTicker := time.NewTicker(interval)

	var feed *statusFeed
	startAgent := func() {
		if err := a.agent.Start(ctx); err != nil {
			a.logger.Error().Err(err).Msg("Błąd startu agenta")
			status.SetTitle(statusLine(false, a.agent.ScaleStatus()))
			start.Enable()
			stop.Disable()
			return
		}

		feed = newStatusFeed()
		a.agent.Subscribe(feed)
		status.SetTitle(statusLine(true, a.agent.ScaleStatus()))
		start.Disable()
		stop.Enable()
	}
	stopAgent := func() {
		a.agent.Stop()
		feed = nil
		status.SetTitle(statusLine(false, a.agent.ScaleStatus()))
		start.Enable()
		stop.Disable()
	}

	startAgent()

	go func() {
		defer updateTicker.Stop()

		for {
			var updates <-chan scale.Status
			if feed != nil {
				updates = feed.updates
			}

			select {
			case st := <-updates:
				status.SetTitle(statusLine(a.agent.IsRunning(), st))

			case <-start.ClickedCh:
				if !a.agent.IsRunning() {
					startAgent()
				}

			case <-stop.ClickedCh:
				stopAgent()

			case <-autostartItem.ClickedCh:
				a.toggleAutostart(autostartItem)

			case <-updateItem.ClickedCh:
				a.checkForUpdate(checker, true)

			case <-updateTicker.C:
				a.checkForUpdate(checker, false)

			case <-quit.ClickedCh:
				a.agent.Stop()
				systray.Quit()
				return
			}
		}
	}()
}

func (a *App) onExit() {
	a.agent.Stop()
}

func (a *App) toggleAutostart(item *systray.MenuItem) {
	if item.Checked() {
		if err := autostart.Disable(appName); err != nil {
			a.logger.Error().Err(err).Msg("Błąd wyłączenia autostartu")
			return
		}
		item.Uncheck()
		return
	}

	executablePath, err := os.Executable()
	if err != nil {
		a.logger.Error().Err(err).Msg("Błąd ścieżki EXE")
		return
	}

	if err := autostart.Enable(appName, executablePath); err != nil {
		a.logger.Error().Err(err).Msg("Błąd autostartu")
		return
	}
	item.Check()
}

func (a *App) checkForUpdate(checker update.Checker, interactive bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := checker.Check(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Błąd sprawdzania aktualizacji")
		return
	}

	if !result.HasUpdate {
		if interactive {
			a.logger.Info().Msg("Brak nowszej wersji")
		}
		return
	}

	a.logger.Info().Str("version", result.Version).Str("url", result.URL).Msg("Dostępna aktualizacja")
	if interactive {
		_ = openURL(result.URL)
	}
}

func openURL(url string) error {
	if runtime.GOOS == "windows" {
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	}
	return exec.Command("xdg-open", url).Start()
}

// generateIcon draws a 16x16 scale platform: a teal deck on two legs.
func generateIcon(size int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	white := color.RGBA{255, 255, 255, 255}
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			img.SetRGBA(x, y, white)
		}
	}

	teal := color.RGBA{0, 128, 128, 255}
	margin := size / 8

	deckTop := size / 2
	for x := margin; x < size-margin; x++ {
		for y := deckTop; y < deckTop+size/6; y++ {
			img.SetRGBA(x, y, teal)
		}
	}

	for y := deckTop; y < size-margin; y++ {
		img.SetRGBA(margin+1, y, teal)
		img.SetRGBA(size-margin-2, y, teal)
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
