package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	promptInput  io.Reader = os.Stdin
	promptOutput io.Writer = os.Stdout
)

// confirmPrompt asks question and reports whether the answer was exactly "Y".
func confirmPrompt(input io.Reader, output io.Writer, question string) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("confirmation input is not available")
	}

	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "%s Type Y to confirm: ", question); err != nil {
		return false, fmt.Errorf("write confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			line = strings.TrimSpace(line)
			return line == "Y", nil
		}
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}

// confirmOrAbort skips the prompt when assumeYes is set.
func confirmOrAbort(assumeYes bool, action, question string) error {
	if assumeYes {
		return nil
	}
	confirmed, err := confirmPrompt(promptInput, promptOutput, question)
	if err != nil {
		return err
	}
	if !confirmed {
		return fmt.Errorf("%s aborted: confirmation was not 'Y'", action)
	}
	return nil
}
