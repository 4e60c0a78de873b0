package main

import "github.com/pulsegate-dev/pulsegate/internal/cli"

func main() {
	cli.Execute()
}
