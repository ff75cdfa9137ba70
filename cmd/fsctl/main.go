// Package main provides the fsctl command line client for the feature
// store.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/fsworks/featurestore-go/pkg/config"
	"github.com/fsworks/featurestore-go/pkg/connector"
	"github.com/fsworks/featurestore-go/pkg/engine"
	jobengine "github.com/fsworks/featurestore-go/pkg/engine/job"
	localengine "github.com/fsworks/featurestore-go/pkg/engine/local"
	"github.com/fsworks/featurestore-go/pkg/featurestore"
	"github.com/fsworks/featurestore-go/pkg/metadata"
	"github.com/fsworks/featurestore-go/pkg/query"
	"github.com/fsworks/featurestore-go/pkg/trainingdataset"
)

const usage = `Usage: fsctl -config <file> <command> [flags]

Commands:
  save     register and materialize a training dataset
  read     stream a training dataset to stdout
  delete   remove a training dataset
  ping     probe the metadata service
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

type client struct {
	cfg    *config.Config
	meta   *metadata.HTTPClient
	engine engine.Engine
	utils  *connector.Utils
	td     *trainingdataset.Engine
	db     *sql.DB
	log    *slog.Logger
}

func newClient(configPath string) (*client, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Logging)

	mc, err := cfg.MetadataConfig()
	if err != nil {
		return nil, err
	}
	meta, err := metadata.NewHTTPClient(mc)
	if err != nil {
		return nil, err
	}

	c := &client{cfg: cfg, meta: meta, utils: connector.NewUtils(), log: logger}

	switch cfg.Engine.Kind {
	case "local":
		db, err := sql.Open(cfg.OfflineStore.Driver, cfg.OfflineStore.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening offline store: %w", err)
		}
		db.SetMaxOpenConns(cfg.OfflineStore.MaxOpenConns)
		c.db = db
		c.engine, err = localengine.New(db, c.utils, logger)
		if err != nil {
			return nil, err
		}
	case "job":
		je, err := jobengine.New(meta, logger)
		if err != nil {
			return nil, err
		}
		je.SetPollInterval(cfg.Engine.PollInterval)
		c.engine = je
	}

	c.td, err = trainingdataset.New(meta, c.engine, c.utils, logger)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *client) Close() {
	if c.db != nil {
		_ = c.db.Close()
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if configPath == "" || flag.NArg() == 0 {
		flag.Usage()
		return fmt.Errorf("a config file and a command are required")
	}

	c, err := newClient(configPath)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx := setupSignalHandler()
	cmd, args := flag.Arg(0), flag.Args()[1:]

	switch cmd {
	case "save":
		return c.save(ctx, args)
	case "read":
		return c.read(ctx, args)
	case "delete":
		return c.delete(ctx, args)
	case "ping":
		return c.meta.Ping(ctx)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// parseGroup parses "name:version" into a feature group.
func parseGroup(s string) (query.FeatureGroup, error) {
	name, ver, ok := strings.Cut(s, ":")
	if !ok {
		return query.FeatureGroup{}, fmt.Errorf("feature group %q must be name:version", s)
	}
	v, err := strconv.Atoi(ver)
	if err != nil {
		return query.FeatureGroup{}, fmt.Errorf("feature group %q must be name:version", s)
	}
	return query.FeatureGroup{Name: name, Version: v}, nil
}

// parseSplits parses "train:0.8,test:0.2" into splits.
func parseSplits(s string) ([]featurestore.Split, error) {
	if s == "" {
		return nil, nil
	}
	var splits []featurestore.Split
	for _, part := range strings.Split(s, ",") {
		name, pct, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("split %q must be name:percentage", part)
		}
		p, err := strconv.ParseFloat(pct, 64)
		if err != nil {
			return nil, fmt.Errorf("split %q must be name:percentage", part)
		}
		splits = append(splits, featurestore.Split{Name: name, Percentage: p})
	}
	return splits, nil
}

func (c *client) save(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	name := fs.String("name", "", "Training dataset name")
	version := fs.Int("version", 0, "Explicit version (0 lets the server assign one)")
	format := fs.String("format", "csv", "Data format: csv, tsv, json")
	group := fs.String("group", "", "Root feature group as name:version")
	features := fs.String("features", "", "Comma separated feature names")
	splitSpec := fs.String("splits", "", "Splits as name:percentage,...")
	seed := fs.Int64("seed", 0, "Split sampling seed")
	labelSpec := fs.String("labels", "", "Comma separated label feature names")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *group == "" || *features == "" {
		return fmt.Errorf("save requires -name, -group and -features")
	}

	root, err := parseGroup(*group)
	if err != nil {
		return err
	}
	splits, err := parseSplits(*splitSpec)
	if err != nil {
		return err
	}

	td := &featurestore.TrainingDataset{
		Name:       *name,
		Version:    *version,
		DataFormat: featurestore.DataFormat(*format),
		Splits:     splits,
		Seed:       *seed,
	}
	q := query.New(c.cfg.OfflineStore.Schema, root, strings.Split(*features, ",")...)

	var labels []string
	if *labelSpec != "" {
		labels = strings.Split(*labelSpec, ",")
	}

	if err := c.td.Save(ctx, td, q, nil, labels); err != nil {
		return err
	}
	fmt.Printf("saved %s version %d at %s\n", td.Name, td.Version, td.Location)
	return nil
}

func (c *client) read(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("read", flag.ContinueOnError)
	name := fs.String("name", "", "Training dataset name")
	version := fs.Int("version", 0, "Version (0 means latest)")
	split := fs.String("split", "", "Split name (empty reads the whole dataset)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("read requires -name")
	}

	td, err := c.td.Get(ctx, *name, *version)
	if err != nil {
		return err
	}
	reader, err := c.td.Read(ctx, td, *split, nil)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	fmt.Println(strings.Join(reader.Columns(), "\t"))
	for {
		row, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
}

func (c *client) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	name := fs.String("name", "", "Training dataset name")
	version := fs.Int("version", 0, "Version (0 means latest)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("delete requires -name")
	}

	td, err := c.td.Get(ctx, *name, *version)
	if err != nil {
		return err
	}
	if err := c.td.Delete(ctx, td); err != nil {
		return err
	}
	fmt.Printf("deleted %s version %d\n", td.Name, td.Version)
	return nil
}
