package main

import "TemplateBoard/cmd"

func main() {
	cmd.Execute()
}
