package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"

	pilotErrors "github.com/tamahere/sops-pilot/internal/errors"
	"github.com/tamahere/sops-pilot/internal/rules"
	"github.com/tamahere/sops-pilot/internal/ui"
)

// startSpinner creates and starts a spinner with the given message.
// Returns the spinner and a cleanup function that stops it and prints
// spinner.FinalMSG with a guaranteed trailing newline.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	// Ignore color errors - continue without colored spinner if it fails.
	_ = s.Color("cyan")

	if !verbose && !debug {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		// Restore log output first.
		if !verbose && !debug {
			log.SetOutput(os.Stdout)
		}

		// Ensure final message ends with a newline.
		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		// Stop the spinner first to clear the spinner line.
		if !verbose && !debug {
			s.Stop()
		}

		// Print final message to stdout (for tests to capture).
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// confirm asks a y/N question on the given reader/writer pair.
func confirm(r io.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	response, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read response: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// chooseRule presents a numbered list of applicable creation rules and
// reads the user's selection. An empty response or anything that is not a
// listed number counts as cancellation.
func chooseRule(r io.Reader, w io.Writer, applicable []rules.CreationRule) (rules.CreationRule, error) {
	fmt.Fprintln(w, "Multiple creation rules match:")
	for i, rule := range applicable {
		fmt.Fprintf(w, "  %d) %s\n", i+1, rule.String())
	}
	fmt.Fprintf(w, "Choose a rule [1-%d]: ", len(applicable))

	response, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return rules.CreationRule{}, fmt.Errorf("failed to read response: %w", err)
	}

	choice, err := strconv.Atoi(strings.TrimSpace(response))
	if err != nil || choice < 1 || choice > len(applicable) {
		return rules.CreationRule{}, pilotErrors.ErrPromptCancelled
	}

	return applicable[choice-1], nil
}
