package main

import "github.com/dgallion1/webmark/internal/cli"

func main() {
	cli.Execute()
}
