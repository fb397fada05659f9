package commands

import (
	"os"
	"time"
	"zkhmon-backend/lib/configutil"
	configlibsql "zkhmon-backend/lib/configutil/libsql"
	"zkhmon-backend/lib/readingstore"
	"zkhmon-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type HistoryConfig struct {
	Database configlibsql.Struct `json:"database"`
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history <serial-key>",
	Short: "Prints the stored reading series for a meter.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[HistoryConfig]("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		db, err := cfg.Database.OpenDB()
		if err != nil {
			serviceutil.Fatal("failed to open database", err)
		}
		defer db.Close()

		store, err := readingstore.NewStore(cmd.Context(), db)
		if err != nil {
			serviceutil.Fatal("failed to init reading store", err)
		}

		points, err := store.MeterHistory(cmd.Context(), args[0])
		if err != nil {
			serviceutil.Fatal("failed to read history", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Time", "Value"})
		for _, p := range points {
			t.AppendRow(table.Row{p.Time.Format(time.RFC3339), p.Value})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
