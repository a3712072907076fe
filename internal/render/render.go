// Package render turns a dictionaryapi.dev reply into wrapped terminal text.
package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"github.com/tidwall/gjson"
	"golang.org/x/term"
)

// LineWidth 是每行输出的列宽上限；词性行原样输出，不受此限制。
const LineWidth = 80

const (
	bullet       = "  - "
	bulletIndent = "    "
)

// ErrNoDefinition 表示响应中没有任何词条。
var ErrNoDefinition = errors.New("no lexical information available")

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode 解析 auto/always/never，忽略大小写。
func ParseColorMode(s string) (ColorMode, error) {
	switch mode := ColorMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "", ColorAuto:
		return ColorAuto, nil
	case ColorAlways, ColorNever:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown color mode %q", s)
	}
}

type styles struct {
	head     lipgloss.Style
	phonetic lipgloss.Style
	category lipgloss.Style
	synHead  lipgloss.Style
	synonym  lipgloss.Style
	antHead  lipgloss.Style
	antonym  lipgloss.Style
}

// Renderer 将渲染结果写入同一个输出。
type Renderer struct {
	out    io.Writer
	color  bool
	styles styles
}

// New 为 w 构建 Renderer；auto 模式下仅当 w 是终端时才输出颜色。
func New(w io.Writer, mode ColorMode) *Renderer {
	color := mode == ColorAlways || (mode == ColorAuto && isTerminal(w))

	lr := lipgloss.NewRenderer(w)
	if color {
		lr.SetColorProfile(termenv.ANSI)
	} else {
		lr.SetColorProfile(termenv.Ascii)
	}

	cyan := lipgloss.Color("14")
	yellow := lipgloss.Color("11")
	green := lipgloss.Color("10")
	red := lipgloss.Color("9")

	return &Renderer{
		out:   w,
		color: color,
		styles: styles{
			head:     lr.NewStyle().Bold(true).Foreground(cyan),
			phonetic: lr.NewStyle().Foreground(cyan),
			category: lr.NewStyle().Bold(true).Foreground(yellow),
			synHead:  lr.NewStyle().Bold(true).Foreground(green),
			synonym:  lr.NewStyle().Foreground(green),
			antHead:  lr.NewStyle().Bold(true).Foreground(red),
			antonym:  lr.NewStyle().Foreground(red),
		},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// HasDefinition 判断 payload 是否为非空的 JSON 词条数组。
func HasDefinition(payload []byte) bool {
	if !gjson.ValidBytes(payload) {
		return false
	}
	root := gjson.ParseBytes(payload)
	return root.IsArray() && len(root.Array()) > 0
}

// Describe 提取 API 错误对象中的 title 与 message。
func Describe(payload []byte) (title, message string) {
	if !gjson.ValidBytes(payload) {
		return "", ""
	}
	root := gjson.ParseBytes(payload)
	return root.Get("title").String(), root.Get("message").String()
}

// Render 通过一次 Write 输出 payload；没有词条时不输出任何内容并返回 ErrNoDefinition。
func (r *Renderer) Render(payload []byte) error {
	if !HasDefinition(payload) {
		return ErrNoDefinition
	}

	var b strings.Builder
	for _, entry := range gjson.ParseBytes(payload).Array() {
		r.writeWord(&b, entry)
		for _, meaning := range entry.Get("meanings").Array() {
			r.writeMeaning(&b, meaning)
		}
	}
	_, err := io.WriteString(r.out, b.String())
	return err
}

// Text 以无颜色模式渲染 payload 并返回字符串。
func Text(payload []byte) (string, error) {
	var b strings.Builder
	if err := New(&b, ColorNever).Render(payload); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (r *Renderer) writeWord(b *strings.Builder, entry gjson.Result) {
	var phonetics []string
	for _, p := range entry.Get("phonetics").Array() {
		if text := p.Get("text"); text.Exists() {
			phonetics = append(phonetics, text.String())
		}
	}
	if word := entry.Get("word"); word.Exists() {
		r.writeCommaList(b, word.String(), phonetics, r.styles.head, r.styles.phonetic, true)
	}
	b.WriteByte('\n')
}

func (r *Renderer) writeMeaning(b *strings.Builder, meaning gjson.Result) {
	b.WriteString(" [")
	b.WriteString(r.paint(r.styles.category, meaning.Get("partOfSpeech").String()))
	b.WriteString("]\n")

	listed := 0
	for _, def := range meaning.Get("definitions").Array() {
		writeDefinition(b, def.Get("definition").String())
		listed += r.writeSynonyms(b, def.Get("synonyms"), 6)
		listed += r.writeAntonyms(b, def.Get("antonyms"), 6)
	}
	if listed == 0 {
		r.writeSynonyms(b, meaning.Get("synonyms"), 4)
		r.writeAntonyms(b, meaning.Get("antonyms"), 4)
	}
	b.WriteByte('\n')
}

func (r *Renderer) writeSynonyms(b *strings.Builder, list gjson.Result, indent int) int {
	head := strings.Repeat(" ", indent) + "Synonyms"
	return r.writeCommaList(b, head, stringsOf(list), r.styles.synHead, r.styles.synonym, false)
}

func (r *Renderer) writeAntonyms(b *strings.Builder, list gjson.Result, indent int) int {
	head := strings.Repeat(" ", indent) + "Antonyms"
	return r.writeCommaList(b, head, stringsOf(list), r.styles.antHead, r.styles.antonym, false)
}

// writeCommaList prints "head: a, b, c" and breaks the line before an item
// (with its comma) would overrun LineWidth. Continuation lines are indented to
// the first item. An empty list prints nothing unless always is set, in which
// case head is printed alone. Returns the number of items printed.
func (r *Renderer) writeCommaList(b *strings.Builder, head string, items []string, headStyle, itemStyle lipgloss.Style, always bool) int {
	if len(items) == 0 {
		if always {
			b.WriteString(r.paint(headStyle, head))
			b.WriteByte('\n')
		}
		return 0
	}

	b.WriteString(r.paint(headStyle, head+":"))
	b.WriteByte(' ')
	indent := runewidth.StringWidth(head) + 2
	space := LineWidth - indent

	for i, item := range items {
		comma := i < len(items)-1
		n := runewidth.StringWidth(item)
		if comma {
			n++
			item += ","
		}
		if n > space {
			b.WriteByte('\n')
			b.WriteString(strings.Repeat(" ", indent))
			space = LineWidth - indent
		}
		space -= n
		b.WriteString(r.paint(itemStyle, item))
		if comma && space > 0 {
			space--
			b.WriteByte(' ')
		}
	}
	b.WriteByte('\n')
	return len(items)
}

// writeDefinition prints def as a bulleted item wrapped to fit LineWidth.
func writeDefinition(b *strings.Builder, def string) {
	width := LineWidth - len(bullet)
	line, rest := clip(def, width)
	b.WriteString(bullet)
	b.WriteString(line)
	b.WriteByte('\n')
	for rest != "" {
		line, rest = clip(rest, width)
		b.WriteString(bulletIndent)
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

// clip returns the longest run of whole words of s that fits in width cells
// (at least one word), and the remainder with leading whitespace removed.
func clip(s string, width int) (line, rest string) {
	end := wordBoundary(s, 0)
	for end < len(s) {
		next := wordBoundary(s, end)
		if runewidth.StringWidth(s[:next]) > width {
			break
		}
		end = next
	}
	return s[:end], strings.TrimLeftFunc(s[end:], isSpace)
}

// wordBoundary skips whitespace from i, then returns the index just past the
// following word.
func wordBoundary(s string, i int) int {
	for i < len(s) && isSpace(rune(s[i])) {
		i++
	}
	for i < len(s) && !isSpace(rune(s[i])) {
		i++
	}
	return i
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func stringsOf(list gjson.Result) []string {
	var out []string
	for _, v := range list.Array() {
		out = append(out, v.String())
	}
	return out
}

func (r *Renderer) paint(style lipgloss.Style, s string) string {
	if !r.color || s == "" {
		return s
	}
	return style.Render(s)
}
