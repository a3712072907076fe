package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestRenderFixture(t *testing.T) {
	out, err := Text(loadFixture(t, "hello.json"))
	require.NoError(t, err)

	want := strings.Join([]string{
		"hello: /həˈləʊ/, /hɛˈləʊ/",
		"",
		" [noun]",
		`  - "Hello!" or an equivalent greeting.`,
		"      Synonyms: greeting",
		"",
		" [verb]",
		`  - To greet with "hello".`,
		"    Synonyms: greet, salute",
		"    Antonyms: ignore",
		"",
		"",
	}, "\n")
	require.Equal(t, want, out)
}

func TestRenderWordWithoutPhonetics(t *testing.T) {
	out, err := Text([]byte(`[{"word":"zyzzyva","phonetics":[{"audio":""}],"meanings":[]}]`))
	require.NoError(t, err)
	require.Equal(t, "zyzzyva\n\n", out)
}

func TestRenderWrapsDefinitions(t *testing.T) {
	half := strings.TrimSpace(strings.Repeat("word ", 15))
	def := half + " " + half
	payload := fmt.Sprintf(`[{"word":"w","meanings":[{"partOfSpeech":"noun","definitions":[{"definition":%q}]}]}]`, def)

	out, err := Text([]byte(payload))
	require.NoError(t, err)

	want := "w\n\n [noun]\n" +
		"  - " + half + "\n" +
		"    " + half + "\n" +
		"\n"
	require.Equal(t, want, out)
	for _, line := range strings.Split(out, "\n") {
		require.LessOrEqual(t, len(line), LineWidth)
	}
}

func TestRenderKeepsOverlongWord(t *testing.T) {
	long := strings.Repeat("x", 90)
	payload := fmt.Sprintf(`[{"word":"w","meanings":[{"partOfSpeech":"noun","definitions":[{"definition":"%s tail"}]}]}]`, long)

	out, err := Text([]byte(payload))
	require.NoError(t, err)
	require.Contains(t, out, "  - "+long+"\n    tail\n")
}

func TestRenderWrapsCommaLists(t *testing.T) {
	var items []string
	for i := 1; i <= 20; i++ {
		items = append(items, fmt.Sprintf("%q", fmt.Sprintf("synonym%02d", i)))
	}
	payload := fmt.Sprintf(`[{"word":"w","meanings":[{"partOfSpeech":"noun","definitions":[{"definition":"d","synonyms":[%s]}]}]}]`,
		strings.Join(items, ","))

	out, err := Text([]byte(payload))
	require.NoError(t, err)

	pad := strings.Repeat(" ", 16)
	want := "      Synonyms: synonym01, synonym02, synonym03, synonym04, synonym05, \n" +
		pad + "synonym06, synonym07, synonym08, synonym09, synonym10, \n" +
		pad + "synonym11, synonym12, synonym13, synonym14, synonym15, \n" +
		pad + "synonym16, synonym17, synonym18, synonym19, synonym20\n"
	require.Contains(t, out, want)
}

func TestRenderMeaningListsOnlyWithoutDefinitionLists(t *testing.T) {
	out, err := Text(loadFixture(t, "hello.json"))
	require.NoError(t, err)
	require.NotContains(t, out, "ignored")
}

func TestRenderRejectsNonArray(t *testing.T) {
	for _, payload := range []string{
		`{"title":"No Definitions Found","message":"Sorry pal"}`,
		`[]`,
		`not json`,
		``,
	} {
		var buf bytes.Buffer
		err := New(&buf, ColorNever).Render([]byte(payload))
		require.ErrorIs(t, err, ErrNoDefinition, payload)
		require.Zero(t, buf.Len())
	}
}

func TestDescribe(t *testing.T) {
	title, message := Describe([]byte(`{"title":"No Definitions Found","message":"Sorry pal","resolution":"Try again"}`))
	require.Equal(t, "No Definitions Found", title)
	require.Equal(t, "Sorry pal", message)

	title, message = Describe([]byte(`garbage`))
	require.Empty(t, title)
	require.Empty(t, message)
}

func TestRenderAlwaysUsesColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, ColorAlways).Render(loadFixture(t, "hello.json")))
	require.Contains(t, buf.String(), "\x1b[")
	require.Contains(t, buf.String(), "hello")
}

func TestRenderAutoWithoutTerminalIsPlain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, ColorAuto).Render(loadFixture(t, "hello.json")))
	require.NotContains(t, buf.String(), "\x1b[")
}

func TestParseColorMode(t *testing.T) {
	for input, want := range map[string]ColorMode{"": ColorAuto, "AUTO": ColorAuto, "always": ColorAlways, "Never": ColorNever} {
		got, err := ParseColorMode(input)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseColorMode("rainbow")
	require.Error(t, err)
}

func TestClip(t *testing.T) {
	line, rest := clip("alpha beta gamma", 10)
	require.Equal(t, "alpha beta", line)
	require.Equal(t, "gamma", rest)

	line, rest = clip("", 10)
	require.Empty(t, line)
	require.Empty(t, rest)
}
