package main

import "github.com/mvp-joe/cratescope/internal/cli"

func main() {
	cli.Execute()
}
