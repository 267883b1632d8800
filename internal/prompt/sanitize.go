package prompt

import "regexp"

// Source-identifying phrases leak into generated questions ("According to
// this book, ...") and give away that the exam was machine-written from a
// single text. They are rewritten both before prompting and on the way out.
var sourcePhrases = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)\bthis (?:book|textbook|text)\b`), "the course material"},
	{regexp.MustCompile(`(?i)\bthis (?:chapter|section|unit|module|lecture|slide|page)\b`), "the course material"},
	{regexp.MustCompile(`(?i)\bthe (?:author|authors|writer)\b`), "the course material"},
	{regexp.MustCompile(`(?i)\bin the (?:passage|excerpt|text) (?:above|below|provided)\b`), "in the course material"},
	{regexp.MustCompile(`(?i)\baccording to the (?:passage|excerpt|text)\b`), "according to the course material"},
	{regexp.MustCompile(`(?i)\bas (?:discussed|described|mentioned|shown) (?:above|earlier|previously)\b`), "as covered in the course"},
}

func SanitizeSourceReferences(text string) string {
	for _, phrase := range sourcePhrases {
		text = phrase.re.ReplaceAllString(text, phrase.replacement)
	}
	return text
}
