package langguess

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuessSourceLanguageDetectsLatin(t *testing.T) {
	lang, conf := GuessSourceLanguage([]string{"This is an ordinary English paragraph with enough letters in it."})
	require.Equal(t, ScriptLatin, lang)
	require.Greater(t, conf, 0.9)
}

func TestGuessSourceLanguageDetectsCyrillic(t *testing.T) {
	lang, _ := GuessSourceLanguage([]string{"Это обычный русский текст с достаточным количеством букв."})
	require.Equal(t, ScriptCyrillic, lang)
}

func TestGuessSourceLanguageReturnsUnknownForTooLittleText(t *testing.T) {
	lang, conf := GuessSourceLanguage([]string{"Hi."})
	require.Equal(t, ScriptUnknown, lang)
	require.Equal(t, float64(0), conf)
}

func TestGuessSourceLanguagePicksMajorityScript(t *testing.T) {
	lang, _ := GuessSourceLanguage([]string{
		"Mostly Japanese text goes here: ",
		"日本語のテキストがここにたくさんあります。本当にたくさんの文字が含まれています。",
	})
	require.Equal(t, ScriptJapanese, lang)
}

func TestExpectedScriptRecognizesKnownNonLatinCodes(t *testing.T) {
	require.Equal(t, ScriptCJKHan, ExpectedScript("zh"))
	require.Equal(t, ScriptUnknown, ExpectedScript("fr"))
	require.Equal(t, ScriptUnknown, ExpectedScript("en"))
}

func TestContainsScriptFindsHanCharacters(t *testing.T) {
	require.True(t, ContainsScript("hello 你好", ScriptCJKHan))
	require.False(t, ContainsScript("hello there", ScriptCJKHan))
}
