package main

import "github.com/okravets/shipkit/cmd/shipkit-signer/cmd"

func main() {
	cmd.Execute()
}
