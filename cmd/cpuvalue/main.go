package main

import "cpuvalue/cmd/cpuvalue/cmd"

func main() {
	cmd.Execute()
}
