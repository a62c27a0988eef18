// Package prompt provides the interactive terminal prompts used when the
// configuration leaves something out.
package prompt

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

// IsAborted returns true if the error indicates the user aborted (Ctrl+C).
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, ErrAborted)
}

// wrapError converts promptui interrupt/abort errors to ErrAborted.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsAborted(err) {
		return ErrAborted
	}
	return err
}

// Interactive reports whether stdin is a terminal prompts can read from.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Input prompts for text input, offering defaultValue. validate may be nil.
func Input(label, defaultValue string, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Default:  defaultValue,
		Validate: validate,
	}

	result, err := prompt.Run()
	return strings.TrimSpace(result), wrapError(err)
}

// InputInt prompts for an integer in [minValue, maxValue].
func InputInt(label string, defaultValue, minValue, maxValue int) (int, error) {
	result, err := Input(label, strconv.Itoa(defaultValue), IntInRange(minValue, maxValue))
	if err != nil {
		return 0, err
	}

	value, _ := strconv.Atoi(result) // Already validated
	return value, nil
}

// IntInRange returns a validator accepting integers in [minValue, maxValue].
func IntInRange(minValue, maxValue int) func(string) error {
	return func(input string) error {
		n, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil {
			return errors.New("must be a valid integer")
		}
		if n < minValue || n > maxValue {
			return fmt.Errorf("must be between %d and %d", minValue, maxValue)
		}
		return nil
	}
}

// APIAddress validates a management API base URL.
func APIAddress(input string) error {
	u, err := url.Parse(strings.TrimSpace(input))
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must start with http:// or https://")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}

// NonEmpty rejects blank input.
func NonEmpty(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("must not be empty")
	}
	return nil
}
