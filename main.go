package main

import "github.com/meysamhadeli/buroca/cmd"

func main() {
	cmd.Execute()
}
