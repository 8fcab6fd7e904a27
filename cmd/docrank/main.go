package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/dgallion1/docrank/internal/config"
	"github.com/dgallion1/docrank/internal/parser"
	"github.com/dgallion1/docrank/internal/pipeline"
	"github.com/dgallion1/docrank/internal/similarity"
)

const sampleRequest = `{
  "documents": [
    {"name": "South of France - Cities", "path": "docs/South of France - Cities.pdf"},
    "docs/South of France - Cuisine.pdf"
  ],
  "persona": {"role": "Travel Planner"},
  "job_to_be_done": {"task": "Plan a trip of 4 days for a group of 10 college friends."}
}
`

func main() {
	var (
		inputPath    string
		outputPath   string
		configPath   string
		outlineMode  bool
		createSample bool
		pretty       bool
		verbose      bool
	)
	pflag.StringVarP(&inputPath, "input", "i", "", "Request JSON file, or a document/directory with --outline")
	pflag.StringVarP(&outputPath, "output", "o", "", "Result file or directory (stdout when empty)")
	pflag.StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	pflag.BoolVar(&outlineMode, "outline", false, "Extract outlines only, no ranking")
	pflag.BoolVar(&createSample, "create-sample", false, "Write a sample request file and exit")
	pflag.BoolVar(&pretty, "pretty", false, "Human-readable console logs")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pflag.Parse()

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	var out io.Writer = os.Stderr
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	log := zerolog.New(out).Level(level).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if createSample {
		path := inputPath
		if path == "" {
			path = "sample_request.json"
		}
		if err := os.WriteFile(path, []byte(sampleRequest), 0o644); err != nil {
			log.Fatal().Err(err).Msg("write sample request")
		}
		log.Info().Str("path", path).Msg("sample request written")
		return
	}
	if inputPath == "" {
		pflag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim := similarity.NewSelector(similarity.Options{
		Endpoint:   cfg.Similarity.Endpoint,
		APIKey:     cfg.Similarity.APIKey,
		Model:      cfg.Similarity.Model,
		Dimensions: cfg.Similarity.Dimensions,
		Timeout:    cfg.Similarity.Timeout.Std(),
	}, log)
	defer sim.Close()

	runner := pipeline.NewRunner(cfg, sim, log)

	if outlineMode {
		runOutline(runner, inputPath, outputPath, log)
		return
	}
	runAnalyze(ctx, runner, inputPath, outputPath, log)
}

func runAnalyze(ctx context.Context, runner *pipeline.Runner, inputPath, outputPath string, log zerolog.Logger) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("read request")
	}
	req, err := pipeline.ParseRequest(data, filepath.Dir(inputPath))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid request")
	}
	res, err := runner.Run(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("analysis failed")
	}
	if res.Metadata.PartialResults {
		log.Warn().Int("documents_skipped", res.Metadata.DocumentsSkipped).Msg("partial results")
	}
	if err := writeResult(outputPath, res); err != nil {
		log.Fatal().Err(err).Msg("write output")
	}
}

func runOutline(runner *pipeline.Runner, inputPath, outputPath string, log zerolog.Logger) {
	info, err := os.Stat(inputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("stat input")
	}
	if !info.IsDir() {
		data, err := os.ReadFile(inputPath)
		if err != nil {
			log.Fatal().Err(err).Msg("read document")
		}
		out, err := runner.AnalyzeOutline(inputPath, data)
		if err != nil {
			log.Fatal().Err(err).Msg("outline extraction failed")
		}
		if err := writeResult(outputPath, out); err != nil {
			log.Fatal().Err(err).Msg("write output")
		}
		return
	}

	// Directory mode writes one <stem>.json per supported document.
	if outputPath == "" {
		log.Fatal().Msg("--outline on a directory requires --output")
	}
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create output directory")
	}
	entries, err := os.ReadDir(inputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("read input directory")
	}
	written := 0
	for _, e := range entries {
		if e.IsDir() || !parser.IsSupportedExtension(e.Name()) {
			continue
		}
		path := filepath.Join(inputPath, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("document", e.Name()).Msg("document skipped")
			continue
		}
		out, err := runner.AnalyzeOutline(path, data)
		if err != nil {
			log.Warn().Err(err).Str("document", e.Name()).Msg("document skipped")
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		target := filepath.Join(outputPath, stem+".json")
		if err := writeResult(target, out); err != nil {
			log.Fatal().Err(err).Msg("write outline")
		}
		log.Info().Str("document", e.Name()).Str("output", target).Msg("outline written")
		written++
	}
	if written == 0 {
		log.Fatal().Msg("no supported documents found")
	}
}

func writeResult(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
