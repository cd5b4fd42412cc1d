// Command bteparse parses BTE bulletin PDFs offline and crawls bulletin
// index pages into the local record store.
package main

func main() {
	Execute()
}
