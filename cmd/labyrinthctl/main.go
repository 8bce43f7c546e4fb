// main.go — точка входа labyrinthctl, консольного клиента Labyrinth.
package main

import (
	"os"

	"github.com/bigkaa/labyrinth/internal/cli"
	"github.com/bigkaa/labyrinth/internal/config"
)

func main() {
	if err := cli.Execute(config.Version); err != nil {
		os.Exit(1)
	}
}
