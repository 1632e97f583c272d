// Package main is the entry point for the commit-reflect binary.
package main

import "github.com/reflectdev/commit-reflect/internal/cli"

func main() {
	cli.Execute()
}
