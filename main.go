package main

import "github.com/vedsharma/momentscli/cmd"

func main() {
	cmd.Execute()
}
