package main

import "github.com/iliyamo/meeting-reservation/internal/cli"

func main() {
	cli.Execute()
}
