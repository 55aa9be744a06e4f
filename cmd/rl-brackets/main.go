package main

import "github.com/pfrederiksen/rl-brackets/internal/cli"

func main() {
	cli.Execute()
}
