package main

import "krakengpt/internal/cli"

func main() {
	cli.Execute()
}
