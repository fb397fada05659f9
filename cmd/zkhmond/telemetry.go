package main

import (
	"context"
	"log/slog"
	"os"
	"zkhmon-backend/lib/restyutil"
	"zkhmon-backend/lib/serviceutil"
	"zkhmon-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	err := telemetry.SetupFromEnv(ctx, "zkhmond")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		telemetry.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)
}

// restyOutput dumps every portal request/response to disk in verbose
// runs so failed scrapes can be diagnosed offline.
func restyOutput(verbose bool) restyutil.InstrumentOutput {
	if !verbose {
		return nil
	}
	return restyutil.NewFilesystemOutput(".dev/resty/zkh")
}
