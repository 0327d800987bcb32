// cmd/cartctl/main.go
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(openClient).Execute(); err != nil {
		os.Exit(1)
	}
}
