package main

import "quest-voice/cmd"

func main() {
	cmd.Execute()
}
