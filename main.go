package main

import "github.com/timvw/agent-beacon/cmd"

func main() {
	cmd.Execute()
}
