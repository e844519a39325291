package main

import "longform/internal/cli"

func main() {
	cli.Execute()
}
