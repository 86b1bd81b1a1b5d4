package main

import "contendq/cmd"

func main() {
	cmd.Execute()
}
