package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ecotrust/TreeForCaSt-s/internal/config"
	"github.com/Ecotrust/TreeForCaSt-s/internal/datafactory"
)

var (
	downloadYear      int
	downloadAllTiles  bool
	downloadOverwrite bool
	naipSource        string
	gflSeason         string
)

// downloadCells resolves which tiles to download for: every grid tile with
// --all-tiles, otherwise only the cells that already have stand labels.
func downloadCells(conf *config.Config) ([]int, error) {
	if downloadAllTiles {
		return nil, nil
	}
	labelsDir := filepath.Join(conf.DataDir, conf.LabelsSubdir)
	cells, _, err := datafactory.LabeledCells(labelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list labeled cells: %w", err)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("no labeled cells under %s; run clip-stands first or pass --all-tiles", labelsDir)
	}
	return cells, nil
}

var downloadNAIPCmd = &cobra.Command{
	Use:   "download-naip",
	Short: "Download NAIP imagery tiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}
		cells, err := downloadCells(conf)
		if err != nil {
			return err
		}
		f, err := newFactory(cmd.Context(), conf, naipSource == "gee")
		if err != nil {
			return err
		}
		f.Overwrite = downloadOverwrite

		switch naipSource {
		case "gee":
			return f.DownloadNAIP(cmd.Context(), downloadYear, cells)
		case "pc":
			return f.DownloadNAIPFromPC(cmd.Context(), downloadYear, cells)
		default:
			return fmt.Errorf("invalid source %q, want gee or pc", naipSource)
		}
	},
}

var downloadGFLCmd = &cobra.Command{
	Use:   "download-gflandsat",
	Short: "Download gap-filled Landsat seasonal composites",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}
		cells, err := downloadCells(conf)
		if err != nil {
			return err
		}
		f, err := newFactory(cmd.Context(), conf, true)
		if err != nil {
			return err
		}
		f.Overwrite = downloadOverwrite
		return f.DownloadGFLandsat(cmd.Context(), downloadYear, gflSeason, cells)
	},
}

var downloadLTRCmd = &cobra.Command{
	Use:   "download-landtrendr",
	Short: "Download LandTrendr disturbance products",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}
		cells, err := downloadCells(conf)
		if err != nil {
			return err
		}
		f, err := newFactory(cmd.Context(), conf, true)
		if err != nil {
			return err
		}
		f.Overwrite = downloadOverwrite
		return f.DownloadLandTrendr(cmd.Context(), downloadYear, cells)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{downloadNAIPCmd, downloadGFLCmd, downloadLTRCmd} {
		cmd.Flags().IntVar(&downloadYear, "year", 0, "year to download")
		cmd.MarkFlagRequired("year")
		cmd.Flags().BoolVar(&downloadAllTiles, "all-tiles", false, "download every grid tile, not just labeled cells")
		cmd.Flags().BoolVar(&downloadOverwrite, "overwrite", false, "re-download tiles that already exist")
		rootCmd.AddCommand(cmd)
	}
	downloadNAIPCmd.Flags().StringVar(&naipSource, "source", "gee", "imagery source: gee or pc")
	downloadGFLCmd.Flags().StringVar(&gflSeason, "season", datafactory.SeasonLeafOn, "composite season: leafon or leafoff")
}
