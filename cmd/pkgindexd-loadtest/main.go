package main

import (
	"os"

	"github.com/phuslu/log"
	"github.com/spf13/pflag"

	"github.com/huyhandes/pkgindexd/internal/brewdata"
	"github.com/huyhandes/pkgindexd/internal/logger"
)

func main() {
	addr := pflag.String("addr", "localhost:8080", "address of the running index server")
	concurrency := pflag.IntP("concurrency", "c", 10, "number of concurrent clients")
	unluckiness := pflag.IntP("unluckiness", "u", 10, "percent chance of sending a broken message")
	datasetPath := pflag.String("packages", "", "dataset file (.txt or .json), empty for the embedded sample")
	logLevel := pflag.StringP("log-level", "l", "INFO", "log level")
	pflag.Parse()

	logger.Init(logger.LogConfig{Level: *logLevel, Format: "console", Color: true})

	pkgs := brewdata.Sample()
	if *datasetPath != "" {
		var err error
		pkgs, err = brewdata.Load(*datasetPath)
		if err != nil {
			log.Error().Err(err).Str("path", *datasetPath).Msg("Failed to load dataset")
			os.Exit(1)
		}
	}

	run := &TestRun{
		Addr:        *addr,
		Concurrency: *concurrency,
		Unluckiness: *unluckiness,
		Packages:    pkgs,
	}
	if err := run.Execute(); err != nil {
		log.Error().Err(err).Msg("Load test FAILED")
		os.Exit(1)
	}
}
