package main

import "dotstrings/internal/cli"

func main() {
	cli.Execute()
}
