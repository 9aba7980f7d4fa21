package main

import "github.com/korelearn/tutor-management/cmd"

func main() {
	cmd.Execute()
}
