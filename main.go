package main

import "github.com/navigrow/navicore/cmd"

func main() {
	cmd.Execute()
}
