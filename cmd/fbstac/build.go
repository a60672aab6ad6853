package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ecotrust/TreeForCaSt-s/internal/catalog"
	"github.com/Ecotrust/TreeForCaSt-s/internal/notification"
	"github.com/Ecotrust/TreeForCaSt-s/internal/properties"
)

var (
	buildMultiYear bool
	buildOutput    string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Assemble the STAC catalog from the processed data directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}
		g, err := loadGrid(conf)
		if err != nil {
			return err
		}

		outDir := buildOutput
		if outDir == "" {
			outDir = properties.CatalogDir()
		}
		if outDir == "" {
			return fmt.Errorf("no output directory; set --output or FBSTAC_CATALOG_DIR")
		}

		builder := catalog.NewBuilder(conf, g, buildMultiYear)
		cat, err := builder.Build(conf.DataDir)
		if err != nil {
			return err
		}
		if err := cat.Save(outDir); err != nil {
			return err
		}

		items := len(cat.Items())
		fmt.Printf("Catalog %s saved to %s: %d collections, %d items\n",
			cat.ID, outDir, len(cat.Children()), items)
		notification.SendDiscordSuccessNotification(fmt.Sprintf(
			"TreeForCaSt pipeline\n\nCatalog %s built: %d collections, %d items", cat.ID, len(cat.Children()), items))
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildMultiYear, "multi-year", false,
		"build one label collection per agency spanning all years, with gap-filling imagery matches")
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "directory to write the catalog tree to")
	rootCmd.AddCommand(buildCmd)
}
