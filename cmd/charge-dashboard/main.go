package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/config"
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/dashboard"
	"github.com/dongbab/power-demand-prediction-platform-sub000/internal/upload"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/constants"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/output"
	"github.com/dongbab/power-demand-prediction-platform-sub000/pkg/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	inputLocation := flag.String("input", "", "station state as JSON, or a session CSV export")
	contractKW := flag.String("contract-kw", "", "contract level override in kW")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	printConfig := flag.Bool("print-config", false, "print the effective configuration as YAML and exit")
	flag.Parse()

	conf, err := loadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if *printConfig {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(conf); err != nil {
			logger.Fatal("failed to encode configuration", zap.String("op", "main"), zap.Error(err))
		}
		return
	}

	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	if *inputLocation == "" {
		logger.Fatal("no input given; pass -input with a state JSON or session CSV",
			zap.String("op", "main"),
		)
	}

	state, err := readState(*inputLocation)
	if err != nil {
		logger.Fatal("failed to read input",
			zap.String("op", "main"),
			zap.String("input", *inputLocation),
			zap.Error(err),
		)
	}
	if v := strings.TrimSpace(*contractKW); v != "" {
		state.ContractKW = v
	}

	view := dashboard.Recompute(state, conf.Thresholds)
	logger.Debug("view derived",
		zap.String("op", "main"),
		zap.Int("sessionsKept", view.Diagnostics.SessionsKept),
		zap.Int("samplesKept", view.Diagnostics.SamplesKept),
		zap.Int("candidatesKept", view.Diagnostics.CandidatesKept),
	)
	if view.Overfit.IsRisk {
		logger.Warn("projection diverges from observed daily peaks",
			zap.String("op", "main"),
			zap.String("message", view.Overfit.Message),
		)
	}

	if err := output.Write(os.Stdout, outputFormat, view); err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

// loadConfiguration falls back to the built-in defaults when the default
// configuration file is absent.
func loadConfiguration(path string) (*config.Configuration, error) {
	if path == constants.DefaultConfigFile {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
	}
	return config.LoadConfiguration(path)
}

func readState(path string) (dashboard.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dashboard.State{}, err
	}

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		table, err := upload.ParseSessions(bytes.NewReader(data))
		if err != nil {
			return dashboard.State{}, err
		}
		return dashboard.State{Sessions: table.Records}, nil
	}

	state, err := dashboard.DecodeState(data)
	if err != nil {
		return dashboard.State{}, fmt.Errorf("error decoding state: %w", err)
	}
	return state, nil
}
