package main

import "github.com/llehouerou/singalong/internal/cli"

func main() {
	cli.Execute()
}
