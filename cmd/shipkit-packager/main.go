package main

import "github.com/okravets/shipkit/cmd/shipkit-packager/cmd"

func main() {
	cmd.Execute()
}
