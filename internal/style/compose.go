package style

import "strings"

// Compose merges a preset prompt with the user's free-text addition. Blank
// free text leaves the preset prompt untouched.
func Compose(stylePrompt, freeText string) string {
	freeText = strings.TrimSpace(freeText)
	if freeText == "" {
		return stylePrompt
	}
	return stylePrompt + " " + freeText
}
