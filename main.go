package main

import "github.com/ava-labs/inpage-provider/cmd"

func main() {
	cmd.Execute()
}
