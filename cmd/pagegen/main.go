package main

import "github.com/santiagomed/pagegen/cli"

func main() {
	cli.Execute()
}
