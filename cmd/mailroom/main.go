package main

import "github.com/mailroom-dev/mailroom/internal/cli"

func main() {
	cli.Execute()
}
