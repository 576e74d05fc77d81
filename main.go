package main

import "github.com/kamusis/baseline/cmd"

func main() {
	cmd.Execute()
}
