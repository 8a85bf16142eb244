package main

import "graphdeck/cmd/graphdeck-cli/cmd"

func main() {
	cmd.Execute()
}
