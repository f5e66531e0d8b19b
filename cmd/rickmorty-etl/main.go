package main

import (
	"context"
	"rickmorty-etl/cmd/rickmorty-etl/commands"
	"rickmorty-etl/lib/serviceutil"
)

func main() {
	ctx, cancel := serviceutil.SignalContext(context.Background())
	defer cancel()
	commands.ExecuteContext(ctx)
}
