package main

import "github.com/okravets/shipkit/cmd/shipkit-builder/cmd"

func main() {
	cmd.Execute()
}
