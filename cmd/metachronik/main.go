package main

import "github.com/ecash-community/metachronik/internal/cli"

func main() {
	cli.Execute()
}
