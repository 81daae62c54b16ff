package main

import "github.com/farmstay/farmstay/cmd"

func main() {
	cmd.Execute()
}
