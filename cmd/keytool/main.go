package main

import (
	"fmt"
	"os"

	"github.com/sazinconstruction/adminkeeper/internal/keytool"
)

func main() {
	if err := keytool.NewRootCommand(os.Stdin, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
