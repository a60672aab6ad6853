package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ecotrust/TreeForCaSt-s/internal/config"
	"github.com/Ecotrust/TreeForCaSt-s/internal/datafactory"
	"github.com/Ecotrust/TreeForCaSt-s/internal/gee"
	"github.com/Ecotrust/TreeForCaSt-s/internal/grid"
	"github.com/Ecotrust/TreeForCaSt-s/internal/properties"
)

var (
	configDir   string
	dataDirFlag string
	workersFlag int
)

var rootCmd = &cobra.Command{
	Use:           "fbstac",
	Short:         "Forest stand STAC pipeline: download tiles, clip stand maps, build and publish the catalog",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "directory containing config.yaml")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "override the configured data directory")
	rootCmd.PersistentFlags().IntVar(&workersFlag, "workers", 0, "override the configured worker count")
}

func loadConfig() (*config.Config, error) {
	conf, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	if dataDirFlag != "" {
		conf.DataDir = dataDirFlag
	} else if conf.DataDir == "" {
		conf.DataDir = properties.DataDir()
	}
	if conf.DataDir == "" {
		return nil, fmt.Errorf("no data directory configured; set data_dir, --data-dir or FBSTAC_DATA_DIR")
	}
	if workersFlag > 0 {
		conf.Workers = workersFlag
	}
	return conf, nil
}

func loadGrid(conf *config.Config) (*grid.Grid, error) {
	if conf.Grid == "" {
		return nil, fmt.Errorf("config is missing the grid file path")
	}
	return grid.Load(conf.Grid)
}

// newFactory wires a data factory with an authenticated Earth Engine client.
// Commands that never touch Earth Engine pass needGEE false and work without
// credentials.
func newFactory(ctx context.Context, conf *config.Config, needGEE bool) (*datafactory.Factory, error) {
	g, err := loadGrid(conf)
	if err != nil {
		return nil, err
	}

	var client *gee.Client
	if needGEE {
		keyFile := properties.GEEKeyFile()
		if keyFile == "" {
			return nil, fmt.Errorf("missing required environment variable: GEE_KEY_FILE")
		}
		client, err = gee.NewClient(ctx, keyFile, properties.GEEProject())
		if err != nil {
			return nil, err
		}
	}

	return datafactory.NewFactory(client, g, conf.DataDir, conf.Workers), nil
}
