package main

import "github.com/probfoundry/qtrail/cmd"

func main() {
	cmd.Execute()
}
