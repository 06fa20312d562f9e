package main

import "toggl2clockify/cmd"

func main() {
	cmd.Execute()
}
