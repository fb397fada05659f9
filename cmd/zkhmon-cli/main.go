package main

import (
	"context"
	"zkhmon-backend/cmd/zkhmon-cli/commands"
	"zkhmon-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	commands.ExecuteContext(context.Background())
}
