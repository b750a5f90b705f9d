package main

import "github.com/iliyamo/study-room-reservation/internal/cli"

func main() {
	cli.Execute()
}
