package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var citiesFormat string

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "List the cities present in the dataset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := initService(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return writeCities(cmd.OutOrStdout(), citiesFormat, svc.Cities(), svc.Years())
	},
}

type cityListing struct {
	Cities []string `json:"cities" yaml:"cities"`
	Years  []string `json:"years" yaml:"years"`
}

func writeCities(w io.Writer, format string, cities, years []string) error {
	listing := cityListing{Cities: cities, Years: years}

	switch strings.ToLower(format) {
	case "json":
		return printJSON(w, listing)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(listing); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	case "text", "":
		for _, c := range cities {
			if _, err := fmt.Fprintln(w, c); err != nil {
				return eris.Wrap(err, "write cities")
			}
		}
		return nil
	default:
		return eris.Errorf("unknown format %q (want json, yaml or text)", format)
	}
}

func init() {
	citiesCmd.Flags().StringVar(&citiesFormat, "format", "text", "output format: json, yaml or text")
	rootCmd.AddCommand(citiesCmd)
}
