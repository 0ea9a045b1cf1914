package main

import (
	"fmt"
	"os"

	"github.com/zeu5/osm-deviation-rl/experiments"
)

// main entry point to all the experiments
func main() {
	rootCommand := experiments.GetRootCommand()
	if err := rootCommand.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
