// Package main is the entry point for the scoring API.
package main

func main() {
	Execute()
}
