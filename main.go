package main

import (
	"os"

	"mc.frontier/commands"
)

func main() {
	os.Exit(commands.Execute())
}
