package main

import "github.com/sahilbhatiani/net-worth-tracker/cmd"

func main() {
	cmd.Execute()
}
