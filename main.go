package main

import "github.com/zheridan29/medecine-november/cmd"

func main() {
	cmd.Execute()
}
