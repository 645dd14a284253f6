package main

import "github.com/KaramelBytes/sheetlens/cmd"

func main() {
	cmd.Execute()
}
