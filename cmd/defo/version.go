package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// buildInfo is what `defo version` reports.
type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

func currentBuild() buildInfo {
	return buildInfo{
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func versionCmd() *cobra.Command {
	var (
		short  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bi := currentBuild()
			switch {
			case short:
				fmt.Println(bi.Version)
			case asJSON:
				return json.NewEncoder(os.Stdout).Encode(bi)
			default:
				printBanner()
				fmt.Println()
				for _, row := range [][2]string{
					{"Version", bi.Version},
					{"Commit", bi.Commit},
					{"Built", bi.Date},
					{"Go", bi.GoVersion},
					{"Platform", bi.Platform},
				} {
					info("%-9s %s", row[0]+":", row[1])
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build information as JSON")

	return cmd
}
