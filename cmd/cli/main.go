package main

import (
	"os"

	"github.com/dmitrijs2005/suitesync/internal/client/cli"
)

func main() {

	app, err := cli.NewApp()
	if err != nil {
		os.Exit(1)
	}

	os.Exit(app.Execute())

}
