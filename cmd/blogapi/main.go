// Package main is the entry point for blogapi.
package main

func main() {
	Execute()
}
