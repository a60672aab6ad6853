package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ecotrust/TreeForCaSt-s/internal/notification"
	"github.com/Ecotrust/TreeForCaSt-s/internal/properties"
	"github.com/Ecotrust/TreeForCaSt-s/internal/publish"
)

var (
	publishDir    string
	publishPrefix string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload the catalog tree and staged assets to the S3 bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}

		dir := publishDir
		if dir == "" {
			dir = properties.CatalogDir()
		}
		if dir == "" {
			return fmt.Errorf("no directory to publish; set --dir or FBSTAC_CATALOG_DIR")
		}

		client, err := publish.New()
		if err != nil {
			return err
		}
		if err := client.UploadDir(cmd.Context(), dir, publishPrefix, conf.Workers); err != nil {
			return err
		}

		notification.SendDiscordSuccessNotification(fmt.Sprintf(
			"TreeForCaSt pipeline\n\nCatalog published from %s", dir))
		return nil
	},
}

func init() {
	publishCmd.Flags().StringVar(&publishDir, "dir", "", "directory to upload")
	publishCmd.Flags().StringVar(&publishPrefix, "prefix", "", "key prefix inside the bucket")
	rootCmd.AddCommand(publishCmd)
}
