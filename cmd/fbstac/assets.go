package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ecotrust/TreeForCaSt-s/internal/datafactory"
	"github.com/Ecotrust/TreeForCaSt-s/internal/properties"
)

var (
	assetsCatalogDir string
	assetsDestDir    string
	validateReport   string
)

var copyAssetsCmd = &cobra.Command{
	Use:   "copy-assets",
	Short: "Stage every asset a saved catalog references next to the catalog tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}

		catalogDir := assetsCatalogDir
		if catalogDir == "" {
			catalogDir = properties.CatalogDir()
		}
		if catalogDir == "" {
			return fmt.Errorf("no catalog directory; set --catalog or FBSTAC_CATALOG_DIR")
		}
		destDir := assetsDestDir
		if destDir == "" {
			destDir = catalogDir
		}

		return datafactory.CopyAssets(catalogDir, conf.DataDir, destDir, conf.AssetBaseURL, conf.Workers)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check downloaded rasters for empty pixels and missing sidecars",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}
		f, err := newFactory(cmd.Context(), conf, false)
		if err != nil {
			return err
		}

		report := validateReport
		if report == "" {
			report = filepath.Join(conf.DataDir, "validation-report.csv")
		}
		return f.ValidateDataset(report)
	},
}

func init() {
	copyAssetsCmd.Flags().StringVar(&assetsCatalogDir, "catalog", "", "directory of the saved catalog")
	copyAssetsCmd.Flags().StringVar(&assetsDestDir, "dest", "", "directory to stage assets into (default: the catalog directory)")
	validateCmd.Flags().StringVar(&validateReport, "report", "", "path of the CSV report to write")
	rootCmd.AddCommand(copyAssetsCmd, validateCmd)
}
