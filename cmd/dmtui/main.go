package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/dmchat/internal/app"
	"github.com/matheus3301/dmchat/internal/session"
	"github.com/matheus3301/dmchat/internal/tui"
	"github.com/matheus3301/dmchat/internal/tui/ui"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	profile, err := session.Resolve(*profileFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	flash := ui.NewFlashModel()
	fxApp, core := app.New(app.Params{
		Profile:  profile.Name,
		Config:   profile.Config,
		Binary:   "dmtui",
		Notifier: flash,
	})
	if err := fxApp.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	runErr := tui.NewApp(core, profile.Name, flash).Run()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}
