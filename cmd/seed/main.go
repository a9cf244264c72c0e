package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/pirs/internal/config"
	"github.com/andresuchdata/pirs/internal/drive"
	"github.com/andresuchdata/pirs/internal/repository/sqlstore"
	"github.com/andresuchdata/pirs/internal/seed"
	"github.com/andresuchdata/pirs/internal/storage"
	"github.com/andresuchdata/pirs/pkg/logger"
)

type dbKey struct{}

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db-driver",
			Usage:   "Database driver: pgx, postgres or sqlite3",
			Value:   sqlstore.DriverPGX,
			EnvVars: []string{"SEED_DB_DRIVER"},
		},
		&cli.StringFlag{
			Name:    "sqlite-path",
			Usage:   "SQLite database file when --db-driver=sqlite3",
			EnvVars: []string{"DB_SQLITE_PATH"},
		},
	}
}

func initDB(c *cli.Context) error {
	cfg := config.Load()
	dbCfg := cfg.Database
	dbCfg.Driver = c.String("db-driver")
	if path := c.String("sqlite-path"); path != "" {
		dbCfg.SQLitePath = path
	}

	db, err := sqlstore.Open(&dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(c.Context); err != nil {
		_ = db.Close()
		return err
	}

	c.Context = context.WithValue(c.Context, dbKey{}, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey{}).(*sqlstore.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func storesFrom(c *cli.Context) (seed.Stores, error) {
	db, ok := c.Context.Value(dbKey{}).(*sqlstore.DB)
	if !ok {
		return seed.Stores{}, fmt.Errorf("database not initialised")
	}
	return seed.Stores{
		Products: sqlstore.NewProductRepository(db),
		Sales:    sqlstore.NewSalesRepository(db),
		Orders:   sqlstore.NewOrderRepository(db),
		Lots:     sqlstore.NewLotRepository(db),
	}, nil
}

// applyFiles seeds each catalog file in order.
func applyFiles(c *cli.Context, paths []string) error {
	stores, err := storesFrom(c)
	if err != nil {
		return err
	}

	for _, path := range paths {
		catalog, err := seed.LoadFile(path)
		if err != nil {
			return err
		}
		res, err := seed.Apply(c.Context, catalog, stores, time.Now())
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", path, err)
		}
		logger.Log.Info().
			Str("file", path).
			Int("products", res.Products).
			Int("orders", res.Orders).
			Int("lots", res.Lots).
			Int("skipped", res.Skipped).
			Msg("Catalog seeded")
	}
	return nil
}

func runCatalog(c *cli.Context) error {
	path := c.String("file")
	if path == "" {
		path = config.Load().App.SeedFile
	}
	return applyFiles(c, []string{path})
}

func runDrive(c *cli.Context) error {
	cfg := config.Load()
	credentials := c.String("credentials")
	if credentials == "" {
		credentials = cfg.Drive.CredentialsFile
	}
	folderID := c.String("folder-id")
	if folderID == "" {
		folderID = cfg.Drive.FolderID
	}
	if credentials == "" || folderID == "" {
		return fmt.Errorf("drive credentials and folder id are required")
	}

	srv, err := drive.NewServiceFromFile(c.Context, credentials)
	if err != nil {
		return err
	}

	paths, err := drive.NewDownloader(srv).DownloadCatalogs(c.Context, drive.DownloadOptions{
		FolderID:    folderID,
		DownloadDir: c.String("download-dir"),
		Name:        c.String("name"),
	})
	if err != nil {
		return err
	}
	return applyFiles(c, paths)
}

// runStorage pulls every YAML catalog under a bucket prefix.
func runStorage(c *cli.Context) error {
	client, err := storage.NewS3Client(config.Load().Storage)
	if err != nil {
		return err
	}

	objects, err := client.ListObjects(c.Context, c.String("prefix"))
	if err != nil {
		return err
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	dir := c.String("download-dir")
	var paths []string
	for _, obj := range objects {
		ext := strings.ToLower(filepath.Ext(obj.Key))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		dest := filepath.Join(dir, filepath.Base(obj.Key))
		if err := client.DownloadObject(c.Context, obj.Key, dest); err != nil {
			return err
		}
		paths = append(paths, dest)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no catalog files under prefix %q", c.String("prefix"))
	}
	return applyFiles(c, paths)
}

func main() {
	app := &cli.App{
		Name:  "seed",
		Usage: "Seed the warehouse database from YAML catalogs",
		Before: func(c *cli.Context) error {
			logger.SetLevel("info")
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "catalog",
				Usage: "Seed from a local catalog file",
				Flags: append(dbFlags(),
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Catalog YAML file",
						EnvVars: []string{"APP_SEED_FILE"},
					},
				),
				Before: initDB,
				After:  closeDB,
				Action: runCatalog,
			},
			{
				Name:  "drive",
				Usage: "Download catalogs from a Google Drive folder, then seed them",
				Flags: append(dbFlags(),
					&cli.StringFlag{Name: "credentials", Usage: "Service account JSON key file", EnvVars: []string{"DRIVE_CREDENTIALS_FILE"}},
					&cli.StringFlag{Name: "folder-id", Usage: "Drive folder holding catalog files", EnvVars: []string{"DRIVE_FOLDER_ID"}},
					&cli.StringFlag{Name: "name", Usage: "Only download the catalog with this file name"},
					&cli.StringFlag{Name: "download-dir", Value: "./data/tmp/drive", Usage: "Local directory for downloads"},
				),
				Before: initDB,
				After:  closeDB,
				Action: runDrive,
			},
			{
				Name:  "storage",
				Usage: "Download catalogs from S3-compatible storage, then seed them",
				Flags: append(dbFlags(),
					&cli.StringFlag{Name: "prefix", Value: "catalogs", Usage: "Object prefix to scan"},
					&cli.StringFlag{Name: "download-dir", Value: "./data/tmp/storage", Usage: "Local directory for downloads"},
				),
				Before: initDB,
				After:  closeDB,
				Action: runStorage,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("Seeding failed")
	}
}
