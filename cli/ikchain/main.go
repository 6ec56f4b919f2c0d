// Package main is the ikchain command.
package main

import (
	"log"
	"os"

	ikcli "go.viam.com/ikchain/cli"
)

func main() {
	if err := ikcli.NewApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
