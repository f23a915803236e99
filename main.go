package main

import "interviewai/cmd"

func main() {
	cmd.Execute()
}
