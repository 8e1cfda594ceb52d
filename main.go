package main

import "github.com/charmbracelet/quill/internal/cmd"

func main() {
	cmd.Execute()
}
