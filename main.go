package main

import "github.com/Kariqs/eshop-api/cmd"

func main() {
	cmd.Execute()
}
