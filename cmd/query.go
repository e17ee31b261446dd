package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/missing-middle/internal/query"
)

var (
	queryYear1 string
	queryYear2 string
	queryCity  string

	housingChangeAbsolute float64
	housingChangePercent  float64
)

var populationCmd = &cobra.Command{
	Use:   "population",
	Short: "Print the population pyramids and changes of one city as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := initService(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		res, err := svc.Population(cmd.Context(), queryYear1, queryYear2, queryCity)
		if err != nil {
			return eris.Wrap(err, "population query")
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var housingCmd = &cobra.Command{
	Use:   "housing",
	Short: "Print the housing choropleth GeoJSON and narrative as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := initService(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		req := query.HousingRequest{Year1: queryYear1, Year2: queryYear2, City: queryCity}
		if cmd.Flags().Changed("pop-change") && cmd.Flags().Changed("pop-change-percent") {
			req.CityChangeAbsolute = &housingChangeAbsolute
			req.CityChangePercent = &housingChangePercent
		}

		res, err := svc.Housing(cmd.Context(), req)
		if err != nil {
			return eris.Wrap(err, "housing query")
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode json")
}

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&queryYear1, "year1", "", "first year (required)")
	cmd.Flags().StringVar(&queryYear2, "year2", "", "second year (required)")
	cmd.Flags().StringVar(&queryCity, "city", "", "city name (required)")
	_ = cmd.MarkFlagRequired("year1")
	_ = cmd.MarkFlagRequired("year2")
	_ = cmd.MarkFlagRequired("city")
}

func init() {
	addQueryFlags(populationCmd)
	addQueryFlags(housingCmd)
	housingCmd.Flags().Float64Var(&housingChangeAbsolute, "pop-change", 0, "city population change, enables the housing narrative")
	housingCmd.Flags().Float64Var(&housingChangePercent, "pop-change-percent", 0, "city population change percent")
	rootCmd.AddCommand(populationCmd, housingCmd)
}
