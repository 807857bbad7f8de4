// Command qnn-classify runs an image classification model on a dynamically
// loaded QNN backend and prints the predicted label for every input batch.
package main

import (
	"fmt"
	"os"
)

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}
