// Package main provides the Flame ML Framework CLI.
package main

import (
	"fmt"
	"os"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("Flame ML Framework %s\n", version)
		return
	}

	fmt.Println("Flame ML Framework - CNN inference for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("")
	fmt.Println("See examples/ for runnable classifiers (resnet, resnetv2, selectsls)")
}
