package main

import (
	"os"

	"github.com/ahad1361/proteoimic-validation/cmd/proval/commands"
)

func main() {
	root := commands.NewRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
