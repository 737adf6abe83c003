package main

import "swarm-terminal/cmd"

func main() {
	cmd.Execute()
}
