package main

import "github.com/tansive/assetvault/internal/cli"

func main() {
	cli.Execute()
}
