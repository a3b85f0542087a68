package main

// main is the entry point of the telenotify command.
// It delegates to Execute, which builds the Cobra command defined in root.go.
func main() {
	Execute()
}
