package main

import "github.com/pfrederiksen/pagedeco/internal/cli"

func main() {
	cli.Execute()
}
