package main

import "littlesteps-be/cmd/maintenance/cmd"

func main() {
	cmd.Execute()
}
