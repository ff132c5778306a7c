package main

import (
	"github.com/dmarceau/cartwise/internal/cmd"
)

func main() {
	cmd.Execute()
}
