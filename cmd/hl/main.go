package main

import "habitline/cmd/hl/root"

func main() {
	root.Execute()
}
