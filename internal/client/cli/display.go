package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/dmitrijs2005/suitesync/internal/client/dispatcher"
)

var (
	colorOK     = color.New(color.FgGreen)
	colorErr    = color.New(color.FgRed)
	colorBusy   = color.New(color.FgYellow)
	colorDetail = color.New(color.FgHiBlack)
)

func printError(err error) {
	colorErr.Fprintf(os.Stderr, "error: %v\n", err)
}

// printEvent renders one dispatcher transition as a single status line.
// Debouncing and idle transitions are too chatty to show.
func printEvent(ev dispatcher.Event) {
	name := filepath.Base(ev.PhysicalPath)
	switch ev.State {
	case dispatcher.StateInFlight:
		colorBusy.Printf("⇡ %s ", name)
		colorDetail.Printf("-> %s\n", ev.RemotePath)
	case dispatcher.StateSucceeded:
		colorOK.Printf("✓ %s ", name)
		colorDetail.Printf("%s id=%d\n", ev.Action, ev.RemoteID)
	case dispatcher.StateFailed:
		colorErr.Printf("✗ %s ", name)
		fmt.Printf("%v\n", ev.Err)
	}
}
