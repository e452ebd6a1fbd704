package main

import "github.com/mingle-social/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
