package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cobra"

	"offerdesk/collections"
	"offerdesk/metrics"
	"offerdesk/services"
)

// newImportCatalogCmd loads a license or service catalog file from the
// command line with the same validation as the upload screen.
func newImportCatalogCmd(app *pocketbase.PocketBase, recorder *metrics.Recorder) *cobra.Command {
	var catalog string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import-catalog [file]",
		Short: "Import a license or service catalog from .csv or .xlsx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := services.CatalogKind(catalog)
			if !ok {
				return fmt.Errorf("unknown catalog %q (use licenses or services)", catalog)
			}
			collections.Setup(app)

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			result, err := services.ParseCatalogFile(kind, f, filepath.Base(args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(result.Errors) > 0 {
				for _, e := range result.Errors {
					fmt.Fprintf(out, "row %d: %s: %s\n", e.Row, e.Field, e.Message)
				}
				return fmt.Errorf("%d of %d rows have errors, nothing imported", result.ErrorRows, result.TotalRows)
			}
			if dryRun {
				fmt.Fprintf(out, "%d rows are valid\n", result.ValidRows)
				return nil
			}

			sum, err := services.ImportCatalog(app, kind, result.ParsedRows)
			if err != nil {
				return err
			}
			recorder.CatalogImported(kind.CatalogTable, sum.Created+sum.Updated)
			fmt.Fprintf(out, "%s: %d created, %d updated\n", kind.CatalogTable, sum.Created, sum.Updated)
			return nil
		},
	}
	cmd.Flags().StringVarP(&catalog, "catalog", "c", "licenses", "catalog to import into: licenses or services")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without importing")
	return cmd
}
