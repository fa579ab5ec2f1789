package tts

import "strings"

var markdown = strings.NewReplacer("*", "", "_", "", "#", "", "`", "", "~", "")

// CleanText removes markdown decoration the voice would otherwise read
// aloud and collapses runs of whitespace.
func CleanText(text string) string {
	return strings.Join(strings.Fields(markdown.Replace(text)), " ")
}
