package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/NowakAdmin/ScaleBridge/internal/agent"
	"github.com/NowakAdmin/ScaleBridge/internal/config"
	"github.com/NowakAdmin/ScaleBridge/internal/logging"
	"github.com/NowakAdmin/ScaleBridge/internal/printing"
	"github.com/NowakAdmin/ScaleBridge/internal/scale"
	"github.com/NowakAdmin/ScaleBridge/internal/setup"
	"github.com/NowakAdmin/ScaleBridge/internal/tray"
	"github.com/NowakAdmin/ScaleBridge/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "configure":
			runConfigure(os.Args[2:])
			return
		case "headless":
			runHeadless()
			return
		case "install":
			runInstall()
			return
		case "ports":
			runPorts()
			return
		case "printers":
			runPrinters()
			return
		case "version":
			fmt.Printf("ScaleBridge %s\n", version.String())
			return
		}
	}

	runTray()
}

func runConfigure(args []string) {
	cfg, err := config.LoadOrCreateDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Błąd odczytu konfiguracji: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("configure", flag.ExitOnError)
	port := fs.String("port", cfg.Scale.Port, "Port szeregowy wagi, np. COM3 lub /dev/ttyUSB0")
	baud := fs.Int("baud", cfg.Scale.BaudRate, "Prędkość transmisji wagi")
	listen := fs.String("listen", cfg.Server.Listen, "Adres nasłuchu API, np. 127.0.0.1:3055")
	mode := fs.String("print-mode", cfg.Printer.DefaultMode, "Domyślny tryb druku: html, local, ip, pdf")
	printerName := fs.String("printer", cfg.Printer.PrinterName, "Nazwa drukarki lokalnej")
	printerHost := fs.String("printer-host", cfg.Printer.Host, "Adres drukarki sieciowej (RAW 9100)")
	printerPort := fs.Int("printer-port", cfg.Printer.Port, "Port drukarki sieciowej")
	copies := fs.Int("copies", cfg.Printer.Copies, "Domyślna liczba kopii")
	template := fs.String("template", cfg.Printer.TemplatePath, "Plik szablonu kwitu HTML")
	natsURL := fs.String("nats", "", "Włącz przekaźnik NATS pod wskazanym adresem")
	mqttBroker := fs.String("mqtt", "", "Włącz przekaźnik MQTT pod wskazanym adresem brokera")
	influxURL := fs.String("influxdb", "", "Włącz zapis historii ważeń do InfluxDB pod wskazanym adresem")

	_ = fs.Parse(args)

	cfg.Scale.Port = *port
	cfg.Scale.BaudRate = *baud
	cfg.Server.Listen = *listen
	cfg.Printer.DefaultMode = *mode
	cfg.Printer.PrinterName = *printerName
	cfg.Printer.Host = *printerHost
	cfg.Printer.Port = *printerPort
	cfg.Printer.Copies = *copies
	cfg.Printer.TemplatePath = *template
	if *natsURL != "" {
		cfg.NATS.Enabled = true
		cfg.NATS.URL = *natsURL
	}
	if *mqttBroker != "" {
		cfg.MQTT.Enabled = true
		cfg.MQTT.Broker = *mqttBroker
	}
	if *influxURL != "" {
		cfg.InfluxDB.Enabled = true
		cfg.InfluxDB.URL = *influxURL
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Nieprawidłowa konfiguracja: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Błąd zapisu konfiguracji: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Konfiguracja zapisana: %s\n", config.Path())
}

func runHeadless() {
	cfg, logger, closeFn := loadRuntime()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := serve(ctx, agent.New(cfg, logger, agent.Options{}), logger)
	cancel()

	// Exit only after the log file is closed.
	closeFn()
	if err != nil {
		os.Exit(1)
	}
}

type lifecycle interface {
	Start(ctx context.Context) error
	Stop()
}

// serve runs a until ctx is done.
func serve(ctx context.Context, a lifecycle, logger zerolog.Logger) error {
	if err := a.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("Nie udało się wystartować agenta")
		return err
	}

	<-ctx.Done()
	a.Stop()
	return nil
}

func runTray() {
	cfg, logger, closeFn := loadRuntime()
	defer closeFn()

	if err := setup.NewInstaller().VerifyAutostart(); err != nil {
		logger.Warn().Err(err).Msg("Nie udało się zweryfikować autostartu")
	}

	a := agent.New(cfg, logger, agent.Options{})
	tray.New(cfg, a, logger).Run()
}

func runInstall() {
	target, err := setup.NewInstaller().Install()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Błąd instalacji: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Zainstalowano: %s\n", target)
}

func runPorts() {
	ports, err := scale.SerialDriver{}.ListPorts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Błąd listowania portów: %v\n", err)
		os.Exit(1)
	}

	if len(ports) == 0 {
		fmt.Println("Brak portów szeregowych")
		return
	}
	for _, p := range ports {
		fmt.Println(p)
	}
}

func runPrinters() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	printers, err := printing.NewSystemQueue(printing.DefaultQueueTimeout).Printers(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Błąd listowania drukarek: %v\n", err)
		os.Exit(1)
	}

	if len(printers) == 0 {
		fmt.Println("Brak zainstalowanych drukarek")
		return
	}
	for _, p := range printers {
		fmt.Println(p)
	}
}

func loadRuntime() (*config.Config, zerolog.Logger, func()) {
	cfg, err := config.LoadOrCreateDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Błąd konfiguracji: %v\n", err)
		os.Exit(1)
	}

	logger, closeFn, err := logging.New(cfg.Logging, config.LogDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Błąd loggera: %v\n", err)
		os.Exit(1)
	}

	logger = logger.With().Str("version", version.Version).Logger()
	return cfg, logger, closeFn
}
