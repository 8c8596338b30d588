// Package main provides the CLI entrypoint for xnotctl.
package main

func main() {
	Execute()
}
