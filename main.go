package main

import "github.com/natebrady-cyera/deep-thought/cmd"

func main() {
	cmd.Execute()
}
