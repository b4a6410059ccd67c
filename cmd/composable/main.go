// Command composable hosts the example features: interactively in the
// terminal, over HTTP and websocket, or as an MCP server.
package main

func main() {
	Execute()
}
