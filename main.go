package main

import "github.com/micromos/micromos/cmd"

func main() {
	cmd.Execute()
}
