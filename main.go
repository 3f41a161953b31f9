package main

import "github.com/cmmoran/recordgen/cmd"

var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
