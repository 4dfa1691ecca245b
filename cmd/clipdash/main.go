package main

import "github.com/arafta/clipdash/internal/cli"

func main() {
	cli.Execute()
}
