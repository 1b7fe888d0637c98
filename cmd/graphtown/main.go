package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	config "github.com/hanpama/graphtown/internal/config"
	eventbus "github.com/hanpama/graphtown/internal/eventbus"
	executor "github.com/hanpama/graphtown/internal/executor"
	logging "github.com/hanpama/graphtown/internal/logging"
	otel "github.com/hanpama/graphtown/internal/otel"
	querydef "github.com/hanpama/graphtown/internal/querydef"
	registry "github.com/hanpama/graphtown/internal/registry"
)

const rootUsage = `graphtown: declare GraphQL queries once, resolve them once

USAGE:
  graphtown <command> [flags]

COMMANDS:
  fetch            Resolve every declared query and print the results as JSON
  print            Print the GraphQL text of every declared query
  help             Show help for any command
`

const fetchUsage = `fetch FLAGS:
  -config <file>            YAML config with graphql_endpoint (default: graphtown.yml)
  -queries <path>           HCL query file or directory. Repeatable; at least one required
  -out <file>               Write results to file (default: stdout)
  -pretty                   Indent JSON output
  -timeout <duration>       Overall timeout, e.g. 30s (default: none)
  -log.level <level>        debug, info, warn or error (default: info)
  -otel.endpoint <addr>     OTLP collector endpoint
  -otel.service <name>      OpenTelemetry service name (default: graphtown)
`

const printUsage = `print FLAGS:
  -queries <path>           HCL query file or directory. Repeatable; at least one required
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	return runWith(args, os.Stdout, os.Stderr)
}

func runWith(args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("graphtown", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "fetch":
		return cmdFetch(cmdArgs, stdout, stderr)
	case "print":
		return cmdPrint(cmdArgs, stdout, stderr)
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "fetch":
		fmt.Fprint(stdout, fetchUsage)
	case "print":
		fmt.Fprint(stdout, printUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdFetch(args []string, stdout, stderr io.Writer) error {
	configPath := "graphtown.yml"
	outFile := ""
	pretty := false
	timeout := time.Duration(0)
	logLevel := "info"
	otelEndpoint := ""
	otelService := "graphtown"
	var queryPaths stringListFlag

	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configPath, "config", configPath, "YAML config file")
	fs.Var(&queryPaths, "queries", "HCL query file or directory")
	fs.StringVar(&outFile, "out", outFile, "Write results to file")
	fs.BoolVar(&pretty, "pretty", pretty, "Indent JSON output")
	fs.DurationVar(&timeout, "timeout", timeout, "Overall timeout")
	fs.StringVar(&logLevel, "log.level", logLevel, "Log level")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, fetchUsage)
		return err
	}
	if len(queryPaths) == 0 {
		fmt.Fprint(stderr, fetchUsage)
		return fmt.Errorf("-queries is required")
	}
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	defs, err := querydef.Load(queryPaths...)
	if err != nil {
		return fmt.Errorf("load queries: %w", err)
	}
	reg := registry.New()
	defs.Register(reg)

	bus := eventbus.New()
	eventbus.Use(bus)
	defer eventbus.Use(nil)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	defer logging.RegisterOn(bus, logger)()
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	opts := []executor.Option{
		executor.WithEndpointFunc(cfg.Endpoint),
		executor.WithClientConfig(cfg.ConfigureClient),
	}
	opts = append(opts, defs.VariableOptions()...)
	exec := executor.New(reg, opts...)

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	results, err := exec.Resolve(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if outFile == "" {
		_, err = stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(outFile, buf.Bytes(), 0644)
}

func cmdPrint(args []string, stdout, stderr io.Writer) error {
	var queryPaths stringListFlag
	fs := flag.NewFlagSet("print", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.Var(&queryPaths, "queries", "HCL query file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, printUsage)
		return err
	}
	if len(queryPaths) == 0 {
		fmt.Fprint(stderr, printUsage)
		return fmt.Errorf("-queries is required")
	}
	defs, err := querydef.Load(queryPaths...)
	if err != nil {
		return fmt.Errorf("load queries: %w", err)
	}
	reg := registry.New()
	defs.Register(reg)
	if err := reg.Validate(); err != nil {
		return err
	}
	for _, e := range reg.All() {
		text, err := e.Definition.Text()
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "# %s (%s)\n%s\n", e.Name, e.Definition.Kind(), text)
	}
	return nil
}
