// Package main provides the sleuth command line client.
//
// Usage:
//
//	sleuth fetch <url>
//	sleuth analyze <url>
//	sleuth analyze --file page.html
//
// See --help for all available options.
package main

func main() {
	Execute()
}
