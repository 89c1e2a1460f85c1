package domain

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxPromptLength is the stored prompt bound, counted in characters.
const MaxPromptLength = 800

// NormalizePrompt composes the prompt to Unicode NFC, trims it and silently
// truncates it to MaxPromptLength characters. The returned string is what gets
// stored, so a decomposed accent in raw comes back as its single composed
// rune. An empty result is rejected.
func NormalizePrompt(raw string) (string, error) {
	prompt := strings.TrimSpace(norm.NFC.String(raw))
	if prompt == "" {
		return "", invalidf("prompt must not be empty")
	}
	if utf8.RuneCountInString(prompt) <= MaxPromptLength {
		return prompt, nil
	}
	runes := []rune(prompt)
	return string(runes[:MaxPromptLength]), nil
}

// ValidateDuration returns the credit cost of durationSeconds or an
// ErrInvalidInput error when the duration is not offered.
func ValidateDuration(durationSeconds int) (int, error) {
	cost, ok := CreditCost(durationSeconds)
	if !ok {
		return 0, invalidf("duration %d is not one of %v", durationSeconds, Durations())
	}
	return cost, nil
}
