// Public domain.

package main

import "github.com/soniakeys/obsmaker/internal/omprog"

func main() {
	omprog.Main()
}
