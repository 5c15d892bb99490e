package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quant/data"
)

func newDataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Manage the daily bar store",
	}
	cmd.AddCommand(newDataImportCmd())
	return cmd
}

func newDataImportCmd() *cobra.Command {
	var (
		dbPath string
		table  string
	)

	cmd := &cobra.Command{
		Use:   "import <file.csv|file.zip> [...]",
		Short: "Import CSV bar dumps (plain or zipped) into the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := data.Open(dbPath, table)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.EnsureSchema(); err != nil {
				return err
			}

			total := 0
			for _, path := range args {
				var n int
				if strings.EqualFold(filepath.Ext(path), ".zip") {
					n, err = store.ImportArchive(path)
				} else {
					n, err = store.ImportCSV(path)
				}
				if err != nil {
					return err
				}
				fmt.Printf("%s: %d rows\n", path, n)
				total += n
			}
			fmt.Printf("Imported %d rows\n", total)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "./data/data.sqlite", "Daily bar SQLite database")
	cmd.Flags().StringVar(&table, "table", data.DefaultTable, "Destination table")

	return cmd
}
