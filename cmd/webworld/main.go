package main

import "github.com/MeKo-Tech/webworld/internal/cmd"

func main() {
	cmd.Execute()
}
