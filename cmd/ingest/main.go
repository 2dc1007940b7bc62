// Command ingest converts a published HTML hospital directory into the
// hospitals.csv consumed by the API server's CSV dataset source.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/healthnet/backend/internal/ingestion"
	appLogger "github.com/healthnet/backend/pkg/logger"
)

func main() {
	input := flag.String("input", "", "path to the hospital directory HTML file")
	outDir := flag.String("out", "./data", "directory to write hospitals.csv into")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: ingest -input directory.html [-out ./data]")
		os.Exit(2)
	}

	if err := appLogger.Init("info", "console", "stdout"); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	f, err := os.Open(*input)
	if err != nil {
		appLogger.Fatal("Failed to open directory file", zap.Error(err))
	}
	defer f.Close()

	hospitals, err := ingestion.ParseHospitalDirectory(f)
	if err != nil {
		appLogger.Fatal("Failed to parse hospital directory", zap.Error(err))
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		appLogger.Fatal("Failed to create output directory", zap.Error(err))
	}

	if err := ingestion.WriteHospitalsCSV(*outDir, hospitals); err != nil {
		appLogger.Fatal("Failed to write hospitals CSV", zap.Error(err))
	}

	appLogger.Info("Ingestion complete",
		zap.Int("hospitals", len(hospitals)),
		zap.String("out", *outDir),
	)
}
