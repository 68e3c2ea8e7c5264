package main

import "github.com/Alijeyrad/simorq_availability/cmd"

func main() {
	cmd.Execute()
}
