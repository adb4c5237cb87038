package ai

import (
	"fmt"
	"strings"
)

const summarySystem = "You summarize documents. Reply with a concise summary " +
	"of the provided document text as short bullet points, at most five " +
	"bullets. Reply with the bullet points only, no preamble."

const translateSystem = "You translate documents. Reply with a single JSON " +
	"object mapping each requested language name to the full translated text. " +
	"Reply with raw JSON only, no markdown fences, no commentary."

func translatePrompt(text string, languages []string) string {
	return fmt.Sprintf("Translate the following text into %s.\n\nText:\n%s",
		strings.Join(languages, ", "), text)
}
