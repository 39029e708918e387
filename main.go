package main

import "github.com/Justype/gridadaptor/cmd"

func main() {
	cmd.Execute()
}
