package main

import (
	"fmt"
	"os"

	"github.com/sheet-uploader/backend/cmd/server/cli"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	info := cli.VersionInfo{
		Version:   Version,
		BuildTime: BuildTime,
	}

	root := cli.NewRootCommand(info)
	root.AddCommand(cli.NewServeCommand(info))
	root.AddCommand(cli.NewConfigCommand())
	root.AddCommand(cli.NewVersionCommand(info))

	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
