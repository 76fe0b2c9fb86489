package main

import "sysalarm/cmd/sysalarm/cmd"

func main() {
	cmd.Execute()
}
