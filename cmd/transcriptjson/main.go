// Command transcriptjson extracts saved transcript pages (.html or gzipped) and prints
// one JSON record per file.
package main

import (
	"flag"
	"os"
	"time"

	"foolcalls/pkg/cli"
	"foolcalls/pkg/logger"
)

func main() {
	var (
		root    = flag.String("root", "https://www.fool.com/earnings/call-transcripts", "Transcripts root used to rebuild call URLs from file names")
		compact = flag.Bool("compact", false, "Print each record on one line")
		debug   = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	level := "warn"
	if *debug {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Format: logger.FormatConsole})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if flag.NArg() == 0 {
		log.Fatal("Usage: transcriptjson [flags] <file> [file...]")
	}

	failed := 0
	for _, path := range flag.Args() {
		start := time.Now()
		call, err := cli.ExtractFile(path, *root, log)
		if err != nil {
			failed++
			log.Error("Extraction failed", logger.String("file", path), logger.Error(err))
			continue
		}
		if err := cli.WriteJSON(os.Stdout, call, !*compact); err != nil {
			log.Fatal("Failed to write output", logger.Error(err))
		}
		log.Debug("Extracted", logger.String("file", path), logger.Duration("took", time.Since(start)))
	}

	if failed > 0 {
		log.Error("Some files failed", logger.Int("failed", failed), logger.Int("total", flag.NArg()))
		_ = log.Sync()
		os.Exit(1)
	}
}
