package main

import "github.com/troupelabs/troupe/cmd"

func main() {
	cmd.Execute()
}
