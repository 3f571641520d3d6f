package main

import "github.com/zsprackett/claude-viz/internal/cli"

func main() {
	cli.Execute()
}
