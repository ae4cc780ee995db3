// Package langid guesses the spoken language of text about to be synthesized,
// used when the caller supplies no language hint for alignment.
package langid

const (
	hiraganaLo = 0x3040
	hiraganaHi = 0x309f
	katakanaLo = 0x30a0
	katakanaHi = 0x30ff
	cjkLo      = 0x4e00
	cjkHi      = 0x9fff
)

// Detect returns an ISO 639-1 code for the dominant script of text.
// Japanese syllabaries are checked before CJK ideographs: Japanese prose
// usually mixes kanji with kana, so an ideograph alone must not decide.
func Detect(text string) string {
	hasIdeograph := false
	for _, r := range text {
		if (r >= hiraganaLo && r <= hiraganaHi) || (r >= katakanaLo && r <= katakanaHi) {
			return "ja"
		}
		if r >= cjkLo && r <= cjkHi {
			hasIdeograph = true
		}
	}
	if hasIdeograph {
		return "zh"
	}
	return "en"
}
