package main

import "vehicle-tracker/cmd"

func main() {
	cmd.Execute()
}
