package main

import (
	"VerseClash/cmd"
)

func main() {
	cmd.Execute()
}
