package main

import "github.com/mcoot/sudoku-race/internal/cli"

func main() {
	cli.Execute()
}
