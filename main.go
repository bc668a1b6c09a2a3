package main

import "github.com/semi-technologies/irisprep/cmd"

func main() {
	cmd.Execute()
}
