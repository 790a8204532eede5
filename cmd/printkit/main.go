package main

import "github.com/MeKo-Tech/printkit/cmd/printkit/cmd"

func main() {
	cmd.Execute()
}
