package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/careplan/infra/input"
)

var convertOpts struct {
	plan         string
	availability string
	out          string
	format       string
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert legacy plan and availability files into an input document",
	RunE:  runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.StringVar(&convertOpts.plan, "plan", "action_plan.json", "legacy action plan file")
	f.StringVar(&convertOpts.availability, "availability", "availability_data.json", "legacy availability file")
	f.StringVarP(&convertOpts.out, "out", "o", "-", "output file, - for stdout")
	f.StringVarP(&convertOpts.format, "format", "f", "", "yaml or json; defaults to the output extension, else yaml")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, _ []string) (err error) {
	doc, err := input.LoadLegacy(convertOpts.plan, convertOpts.availability)
	if err != nil {
		return err
	}
	format := convertOpts.format
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(convertOpts.out)), ".")
		if format != "json" {
			format = "yaml"
		}
	}
	w := cmd.OutOrStdout()
	if convertOpts.out != "-" {
		f, err := os.Create(convertOpts.out)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = f
	}
	if err := input.Encode(w, doc, format); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
