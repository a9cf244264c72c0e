package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/pirs/internal/app"
	"github.com/andresuchdata/pirs/internal/config"
	"github.com/andresuchdata/pirs/internal/report"
	"github.com/andresuchdata/pirs/internal/storage"
	"github.com/andresuchdata/pirs/pkg/logger"
)

func runExport(c *cli.Context) error {
	cfg := config.Load()

	a, err := app.Build(c.Context, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	dir := c.String("out-dir")
	if dir == "" {
		dir = cfg.App.ExportDir
	}

	paths, err := report.Export(c.Context, a.Inventory, dir, time.Now())
	if err != nil {
		return err
	}
	for _, path := range paths {
		logger.Log.Info().Str("path", path).Msg("Report written")
	}

	if !c.Bool("upload") {
		return nil
	}
	if !cfg.Storage.Enabled {
		return fmt.Errorf("--upload requires STORAGE_ENABLED=true")
	}

	client, err := storage.NewS3Client(cfg.Storage)
	if err != nil {
		return err
	}
	for _, path := range paths {
		key, err := client.UploadFile(c.Context, path, "text/csv")
		if err != nil {
			return err
		}
		logger.Log.Info().Str("key", key).Str("bucket", cfg.Storage.Bucket).Msg("Report uploaded")
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:  "report",
		Usage: "Export reorder and stability reports as CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out-dir",
				Aliases: []string{"o"},
				Usage:   "Directory for the CSV files",
				EnvVars: []string{"APP_EXPORT_DIR"},
			},
			&cli.BoolFlag{
				Name:  "upload",
				Usage: "Upload the CSV files to object storage",
			},
		},
		Before: func(c *cli.Context) error {
			logger.SetLevel("info")
			return nil
		},
		Action: runExport,
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("Report export failed")
	}
}
