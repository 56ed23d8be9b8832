package main

import "github.com/okravets/shipkit/cmd/shipkit-imager/cmd"

func main() {
	cmd.Execute()
}
