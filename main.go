package main

import "github.com/mickamy/qplain/cmd"

func main() {
	cmd.Execute()
}
