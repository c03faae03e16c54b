package main

import "github.com/itsmostafa/textindex/cmd"

func main() {
	cmd.Execute()
}
