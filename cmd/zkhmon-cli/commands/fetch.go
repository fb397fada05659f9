package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"zkhmon-backend/lib/configutil"
	"zkhmon-backend/lib/restyutil"
	"zkhmon-backend/lib/scrapers/zkh"
	"zkhmon-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type PortalConfig struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type Config struct {
	Portal PortalConfig `json:"portal"`
}

var fetchJson *bool
var fetchDebugHttp *bool

func init() {
	fetchJson = fetchCmd.Flags().Bool("json", false, "Print the raw snapshot as JSON instead of tables.")
	fetchDebugHttp = fetchCmd.Flags().Bool("debug-http", false, "Dump portal request/response pairs to .dev/resty/cli.")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Runs one scrape cycle against the portal and prints the result.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		var output restyutil.InstrumentOutput
		if *fetchDebugHttp {
			output = restyutil.NewFilesystemOutput(".dev/resty/cli")
		}

		slog.Info("fetching using user", "username", cfg.Portal.Username)
		client, err := zkh.NewClient(zkh.ClientOptions{
			BaseUrl:          cfg.Portal.BaseUrl,
			Username:         cfg.Portal.Username,
			Password:         cfg.Portal.Password,
			InstrumentOutput: output,
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize client", err)
		}
		defer client.Close()

		result, err := client.Fetch(cmd.Context())
		if err != nil {
			serviceutil.Fatal("fetch cycle failed", err)
		}

		if *fetchJson {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			err := encoder.Encode(result)
			if err != nil {
				serviceutil.Fatal("failed to encode result", err)
			}
			return
		}

		renderMeters(result)
		renderTariffs(result)
	},
}

func formatDate(date *string) string {
	if date == nil {
		return ""
	}
	return *date
}

func formatDecimal(value *float64) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *value)
}

func renderMeters(result zkh.FetchResult) {
	keys := make([]string, 0, len(result.Meters))
	for key := range result.Meters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Meter", "Serial", "Units", "Value", "Read on", "Verify by"})
	for _, key := range keys {
		m := result.Meters[key]
		t.AppendRow(table.Row{
			m.TypeName, m.SerialNumber, m.Units, m.Value,
			formatDate(m.ValueDate), formatDate(m.NextVerificationDate),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderTariffs(result zkh.FetchResult) {
	keys := make([]string, 0, len(result.Tariffs))
	for key := range result.Tariffs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Tariff", "Rate", "Unit", "Price", "Since"})
	for _, key := range keys {
		tariff := result.Tariffs[key]
		t.AppendRow(table.Row{
			tariff.Name, formatDecimal(tariff.Rate), tariff.Unit,
			formatDecimal(tariff.Tariff), formatDate(tariff.Date),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
