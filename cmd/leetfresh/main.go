package main

import (
	"context"
	"flag"
	"fmt"
	"leetfresh/internal/di"
	"leetfresh/internal/structures"
	"os"
)

func main() {
	var flags structures.CliFlags
	flag.StringVar(&flags.ConfigPath, "config", "config/config.yaml", "path to the YAML config file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "mirror logs to stderr")
	flag.Parse()

	app, err := di.InitApp(&flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "leetfresh: %s\n", err)
		os.Exit(1)
	}

	if err := app.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "leetfresh: %s\n", err)
		os.Exit(1)
	}
}
