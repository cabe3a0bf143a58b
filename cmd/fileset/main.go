package main

import "github.com/stagekit/fileset/cmd/fileset/cmd"

func main() {
	cmd.Execute()
}
