package main

import "github.com/616390260/pake/internal/pake"

func main() {
	pake.Main()
}
