package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"idea-print/internal/api"
	"idea-print/internal/auth"
	"idea-print/internal/config"
	"idea-print/internal/dedupe"
	"idea-print/internal/escpos"
	"idea-print/internal/handlers"
	"idea-print/internal/pipeline"
	"idea-print/internal/printer"
	"idea-print/internal/receipt"
	"idea-print/internal/server"
)

const usage = `idea-print: receipt printer agent for thermal printers

Commands:
  serve       Start the HTTP server
  render      Render a receipt to a file without printing
  print       Print a receipt to a serial printer
  print-usb   Print a receipt to a USB printer
  sign        Sign a print request body and emit the headers
  list-ports  List available serial ports
  list-usb    List USB devices (potential printers)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = cmdServe(os.Args[2:])
	case "render":
		err = cmdRender(os.Args[2:])
	case "print":
		err = cmdPrint(os.Args[2:])
	case "print-usb":
		err = cmdPrintUSB(os.Args[2:])
	case "sign":
		err = cmdSign(os.Args[2:])
	case "list-ports":
		err = cmdListPorts()
	case "list-usb":
		err = cmdListUSB()
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.ParsedConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.Logging.Pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.StringP("config", "c", "config.yaml", "path to configuration file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	if cfg.Auth.HMACSecret == "" {
		return fmt.Errorf("auth.hmac_secret is not set; refusing to serve unauthenticated")
	}

	transport, err := cfg.Transport()
	if err != nil {
		return err
	}

	var store dedupe.Store
	if cfg.Dedupe.Enabled {
		store, err = openStore(cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()
		startCleanup(store, cfg.CleanupInterval, log)
	}

	pipe, err := pipeline.New(pipeline.Config{
		Secret:        cfg.Auth.HMACSecret,
		WindowSeconds: cfg.Auth.TimestampWindow,
		Store:         store,
		Profile:       cfg.Profile(),
		Transport:     transport,
		Logger:        log.With().Str("component", "pipeline").Logger(),
	})
	if err != nil {
		return err
	}

	handler := handlers.NewHandler(pipe, cfg.Printer.Transport, cfg.Dedupe.Enabled,
		log.With().Str("component", "handlers").Logger())
	srv := server.New(handler, cfg.Server.Verbose, log.With().Str("component", "server").Logger())

	log.Info().
		Str("transport", cfg.Printer.Transport).
		Bool("dedupe", cfg.Dedupe.Enabled).
		Msg("starting idea-print server")
	return srv.Run(cfg.Server.Host, cfg.Server.Port)
}

func openStore(cfg *config.ParsedConfig, log zerolog.Logger) (dedupe.Store, error) {
	switch cfg.Dedupe.Backend {
	case config.BackendSQLite:
		log.Info().Str("path", cfg.Dedupe.Path).Msg("dedupe store: sqlite")
		return dedupe.OpenSQLiteStore(cfg.Dedupe.Path, cfg.DedupeTTL)
	case config.BackendRedis:
		log.Info().Str("addr", cfg.Dedupe.Redis.Addr).Msg("dedupe store: redis")
		return dedupe.OpenRedisStore(context.Background(),
			cfg.Dedupe.Redis.Addr, cfg.Dedupe.Redis.Password, cfg.Dedupe.Redis.DB, cfg.DedupeTTL)
	case config.BackendMemory:
		log.Info().Msg("dedupe store: memory (entries do not survive restarts)")
		return dedupe.NewMemoryStore(cfg.DedupeTTL), nil
	default:
		return nil, fmt.Errorf("unknown dedupe backend %q", cfg.Dedupe.Backend)
	}
}

// startCleanup runs one eviction pass immediately, then periodically.
func startCleanup(store dedupe.Store, interval time.Duration, log zerolog.Logger) {
	cleanup := func() {
		removed, err := store.CleanupExpired(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("dedupe cleanup failed")
			return
		}
		if removed > 0 {
			log.Info().Int("removed", removed).Msg("dedupe cleanup")
		}
	}

	cleanup()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			cleanup()
		}
	}()
}

func buildReceipt(ideaText, ideaID string, charsPerLine int) ([]byte, error) {
	profile := escpos.DefaultProfile()
	profile.CharsPerLine = charsPerLine

	if ideaText == "" {
		fmt.Println("No idea text provided, printing test receipt...")
		return receipt.BuildTestReceipt(profile)
	}
	return receipt.Build(ideaText, ideaID, time.Now(), profile)
}

func cmdRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	ideaText := fs.StringP("idea-text", "t", "", "the idea text to print")
	ideaID := fs.StringP("idea-id", "i", "", "optional idea ID")
	out := fs.StringP("out", "o", "", "output file path")
	charsPerLine := fs.Int("chars-per-line", 48, "characters per line")
	fs.Parse(args)

	if *ideaText == "" {
		return fmt.Errorf("--idea-text is required")
	}
	if *out == "" {
		return fmt.Errorf("--out is required")
	}

	doc, err := receipt.Build(*ideaText, *ideaID, time.Now(), escpos.Profile{
		CharsPerLine:       *charsPerLine,
		Encoding:           "cp437",
		CutMode:            escpos.CutFull,
		FeedLinesBeforeCut: 4,
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(*out, doc, 0o644); err != nil {
		return err
	}
	fmt.Printf("Rendered %d bytes to %s\n", len(doc), *out)
	return nil
}

func cmdPrint(args []string) error {
	fs := flag.NewFlagSet("print", flag.ExitOnError)
	port := fs.StringP("port", "p", "", "serial port (e.g., /dev/ttyUSB0)")
	baud := fs.IntP("baud", "b", 9600, "baud rate")
	ideaText := fs.StringP("idea-text", "t", "", "the idea text to print (omit for test print)")
	ideaID := fs.StringP("idea-id", "i", "", "optional idea ID")
	charsPerLine := fs.Int("chars-per-line", 48, "characters per line")
	fs.Parse(args)

	if *port == "" {
		return fmt.Errorf("--port is required")
	}

	doc, err := buildReceipt(*ideaText, *ideaID, *charsPerLine)
	if err != nil {
		return err
	}

	transport := printer.NewSerialTransport(*port, *baud, 5*time.Second)
	if err := writeTo(transport, doc); err != nil {
		return err
	}
	fmt.Printf("Printed %d bytes to %s\n", len(doc), *port)
	return nil
}

func cmdPrintUSB(args []string) error {
	fs := flag.NewFlagSet("print-usb", flag.ExitOnError)
	vendorID := fs.StringP("vendor-id", "v", "", "USB vendor ID (e.g., 0x0483)")
	productID := fs.StringP("product-id", "p", "", "USB product ID (e.g., 0x5720)")
	ideaText := fs.StringP("idea-text", "t", "", "the idea text to print (omit for test print)")
	ideaID := fs.StringP("idea-id", "i", "", "optional idea ID")
	charsPerLine := fs.Int("chars-per-line", 48, "characters per line")
	fs.Parse(args)

	if *vendorID == "" || *productID == "" {
		return fmt.Errorf("--vendor-id and --product-id are required")
	}
	vid, err := config.ParseUSBID(*vendorID)
	if err != nil {
		return err
	}
	pid, err := config.ParseUSBID(*productID)
	if err != nil {
		return err
	}

	doc, err := buildReceipt(*ideaText, *ideaID, *charsPerLine)
	if err != nil {
		return err
	}

	transport := printer.NewUSBTransport(vid, pid, 0, 0)
	if err := writeTo(transport, doc); err != nil {
		return err
	}
	fmt.Printf("Printed %d bytes to USB device %s:%s\n", len(doc), *vendorID, *productID)
	return nil
}

// writeTo brackets one document write with open/close, releasing the
// transport on every path.
func writeTo(transport printer.Transport, doc []byte) error {
	if err := transport.Open(); err != nil {
		return err
	}
	defer transport.Close()

	if _, err := transport.Write(doc); err != nil {
		return err
	}
	return nil
}

func cmdSign(args []string) error {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	secret := fs.StringP("secret", "s", "", "HMAC secret")
	ideaText := fs.StringP("idea-text", "t", "", "the idea text")
	ideaID := fs.StringP("idea-id", "i", "", "optional idea ID")
	requestID := fs.StringP("request-id", "r", "", "request ID (defaults to a random UUID)")
	fs.Parse(args)

	if *secret == "" {
		return fmt.Errorf("--secret is required")
	}
	if *ideaText == "" {
		return fmt.Errorf("--idea-text is required")
	}
	if *requestID == "" {
		*requestID = uuid.NewString()
	}

	body, err := json.Marshal(api.PrintRequest{
		IdeaText:  *ideaText,
		IdeaID:    *ideaID,
		RequestID: *requestID,
	})
	if err != nil {
		return err
	}

	timestamp := time.Now().Unix()
	signature := auth.Generate(body, timestamp, *secret)

	fmt.Printf("%s: %d\n", api.HeaderTimestamp, timestamp)
	fmt.Printf("%s: %s\n", api.HeaderSignature, signature)
	fmt.Printf("Body: %s\n", body)
	return nil
}

func cmdListPorts() error {
	ports, err := printer.ListSerialPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}

	fmt.Println("Available serial ports:")
	fmt.Println()
	for _, p := range ports {
		fmt.Printf("  %s\n", p.Device)
		if p.Description != "" {
			fmt.Printf("    Description: %s\n", p.Description)
		}
		if p.VendorID != "" {
			fmt.Printf("    USB ID: %s:%s\n", p.VendorID, p.ProductID)
		}
		fmt.Println()
	}
	return nil
}

func cmdListUSB() error {
	devices, err := printer.ListUSBDevices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No USB devices found")
		return nil
	}

	fmt.Println("USB devices:")
	fmt.Println()
	for _, d := range devices {
		fmt.Printf("  %s:%s\n", d.VendorID, d.ProductID)
		if d.Manufacturer != "" {
			fmt.Printf("    Manufacturer: %s\n", d.Manufacturer)
		}
		if d.Product != "" {
			fmt.Printf("    Product: %s\n", d.Product)
		}
		if d.SerialNumber != "" {
			fmt.Printf("    Serial: %s\n", d.SerialNumber)
		}
		fmt.Println()
	}
	return nil
}
