package main

import (
	"github.com/spf13/cobra"
)

var (
	standsSrc    string
	standsAgency string
	standsYear   int
)

var clipStandsCmd = &cobra.Command{
	Use:   "clip-stands",
	Short: "Overlay an agency stand map onto the grid and write per-tile label files",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}
		f, err := newFactory(cmd.Context(), conf, false)
		if err != nil {
			return err
		}
		return f.ClipStands(standsSrc, conf.LabelsSubdir, standsAgency, standsYear)
	},
}

func init() {
	clipStandsCmd.Flags().StringVar(&standsSrc, "src", "", "source stand map GeoJSON")
	clipStandsCmd.Flags().StringVar(&standsAgency, "agency", "", "agency the stand map belongs to (blm, dnr, odf, ...)")
	clipStandsCmd.Flags().IntVar(&standsYear, "year", 0, "inventory year of the stand map")
	clipStandsCmd.MarkFlagRequired("src")
	clipStandsCmd.MarkFlagRequired("agency")
	clipStandsCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(clipStandsCmd)
}
