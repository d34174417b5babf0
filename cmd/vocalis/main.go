package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different outcomes
const (
	ExitSuccess = 0 // Evaluation completed
	ExitBlocked = 1 // Transcript was blocked by the safety gate
	ExitError   = 2 // Configuration or runtime error
)

// BlockedError indicates the pipeline ran successfully but the transcript
// was blocked by the safety gate. Blocking is an intended outcome, not a
// fault, so it gets its own exit code.
type BlockedError struct {
	Message string
}

func (e *BlockedError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var blocked *BlockedError
		if errors.As(err, &blocked) {
			os.Exit(ExitBlocked)
		}
		os.Exit(ExitError)
	}

	os.Exit(ExitSuccess)
}
