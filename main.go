package main

import (
	"os"

	"github.com/knowledgeai/knowledge-console/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
