package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/realty/internal/app"
	"github.com/dmitrijs2005/realty/internal/config"
	"github.com/dmitrijs2005/realty/internal/ctl"
	"github.com/dmitrijs2005/realty/internal/flagx"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := flagx.StripArgs(os.Args[1:], config.Flags)
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "-help" {
		fmt.Fprint(os.Stderr, ctl.Usage)
		return 2
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "realtyctl: %v\n", err)
		return 2
	}

	a, err := app.NewApp(ctx, cfg, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "realtyctl: %v\n", err)
		return 1
	}
	defer a.Close()

	if err := ctl.Run(ctx, a.Agency, args, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "realtyctl: %v\n", err)
		return 1
	}
	return 0
}
