package main

import (
	"os"

	gridironcmder "github.com/papercomputeco/gridiron/cmd/gridiron"
)

func main() {
	cmd := gridironcmder.NewGridironCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
