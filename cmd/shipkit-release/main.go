package main

import "github.com/okravets/shipkit/cmd/shipkit-release/cmd"

func main() {
	cmd.Execute()
}
