// Command vin decodes VINs given as arguments, or one per line on stdin, and
// prints a JSON report for each. With -nats the work is sent to a running
// vin-worker instead of being done locally.
//
// Exit status is 0 on success, 1 when -strict is set and any VIN is invalid,
// 2 on usage or setup errors, and 3 when decoding or writing a report fails
// at run time (for example no vin-worker answers on NATS).
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/WessleyAI/vindecoder/engine/decode"
	"github.com/WessleyAI/vindecoder/engine/vpic"
	"github.com/WessleyAI/vindecoder/engine/wmi"
	"github.com/WessleyAI/vindecoder/pkg/fn"
	"github.com/WessleyAI/vindecoder/pkg/natsutil"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitUsage   = 2
	exitFailure = 3
)

type options struct {
	strict  bool
	pretty  bool
	wmiFile string
	vpic    bool
	vpicURL string
	natsURL string
	timeout time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var o options
	fs := flag.NewFlagSet("vin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&o.strict, "strict", false, "exit 1 if any VIN is invalid")
	fs.BoolVar(&o.pretty, "pretty", false, "indent JSON output")
	fs.StringVar(&o.wmiFile, "wmi", "", "YAML file with extra WMI codes")
	fs.BoolVar(&o.vpic, "vpic", false, "enrich valid VINs from NHTSA vPIC")
	fs.StringVar(&o.vpicURL, "vpic-url", vpic.DefaultConfig().BaseURL, "vPIC base URL")
	fs.StringVar(&o.natsURL, "nats", "", "decode through a vin-worker at this NATS URL")
	fs.DurationVar(&o.timeout, "timeout", 30*time.Second, "overall deadline")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: vin [flags] [VIN ...]\n\nWith no VIN arguments, VINs are read from stdin, one per line.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	vins := fs.Args()
	if len(vins) == 0 {
		var err error
		if vins, err = readLines(stdin); err != nil {
			fmt.Fprintf(stderr, "vin: read stdin: %v\n", err)
			return exitUsage
		}
	}
	if len(vins) == 0 {
		fs.Usage()
		return exitUsage
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	decodeBatch, closeFn, err := newDecoder(o, logger)
	if err != nil {
		fmt.Fprintf(stderr, "vin: %v\n", err)
		return exitUsage
	}
	defer closeFn()

	enc := json.NewEncoder(stdout)
	if o.pretty {
		enc.SetIndent("", "  ")
	}

	code := exitOK
	for _, batch := range chunk(vins, decode.MaxBatch) {
		reports, err := decodeBatch(ctx, batch)
		if err != nil {
			fmt.Fprintf(stderr, "vin: %v\n", err)
			return exitFailure
		}
		for _, r := range reports {
			if err := enc.Encode(r); err != nil {
				fmt.Fprintf(stderr, "vin: write: %v\n", err)
				return exitFailure
			}
			if !r.Valid && o.strict {
				code = exitInvalid
			}
		}
	}
	return code
}

type batchFunc func(ctx context.Context, vins []string) ([]decode.Report, error)

// newDecoder returns a local decoder, or a NATS client for a remote worker
// when -nats is set.
func newDecoder(o options, logger *slog.Logger) (batchFunc, func(), error) {
	if o.natsURL != "" {
		nc, err := nats.Connect(o.natsURL, nats.Name("vin-cli"))
		if err != nil {
			return nil, nil, fmt.Errorf("nats connect: %w", err)
		}
		remote := func(ctx context.Context, vins []string) ([]decode.Report, error) {
			return natsutil.Request[decode.BatchRequest, []decode.Report](ctx, nc, decode.BatchSubject, decode.BatchRequest{VINs: vins})
		}
		return remote, nc.Close, nil
	}

	table, err := wmi.LoadFile(o.wmiFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load WMI overrides: %w", err)
	}
	var enricher decode.Enricher
	if o.vpic {
		cfg := vpic.DefaultConfig()
		cfg.BaseURL = o.vpicURL
		enricher = vpic.Enricher{Client: vpic.NewClient(cfg, vpic.NewMemoryCache(), logger)}
	}
	svc := decode.New(table, enricher, decode.DefaultOptions(), nil, logger)
	local := func(ctx context.Context, vins []string) ([]decode.Report, error) {
		return svc.DecodeBatch(ctx, vins), nil
	}
	return local, func() {}, nil
}

// readLines returns the non-blank lines of r, trimmed.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return fn.FilterMap(lines, func(s string) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != "" && !strings.HasPrefix(s, "#")
	}), nil
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
