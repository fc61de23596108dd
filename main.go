package main

import (
	"github.com/minhaz-lariya/virtual-class/cmd"
	"github.com/minhaz-lariya/virtual-class/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	cmd.Execute()
}
