package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/quill/internal/composer"
	"github.com/charmbracelet/x/ansi"
	"github.com/rivo/uniseg"
)

const mentionPopupWidth = 36

// mentionPopup renders the "@" completion dropdown. Which notes show
// up, their order, and the highlighted row are all the composer's
// decisions; this only draws its snapshot.
type mentionPopup struct {
	normalStyle  lipgloss.Style
	focusedStyle lipgloss.Style
	matchStyle   lipgloss.Style
}

func newMentionPopup(t *Styles) *mentionPopup {
	return &mentionPopup{
		normalStyle:  t.Completions.Normal,
		focusedStyle: t.Completions.Focused,
		matchStyle:   t.Completions.Match,
	}
}

// Size returns the visible size of the popup for the given candidates.
func (p *mentionPopup) Size(candidates []composer.NoteRef) (width, height int) {
	return mentionPopupWidth, len(candidates)
}

// Render draws the candidate rows, underlining the query match within
// each title.
func (p *mentionPopup) Render(candidates []composer.NoteRef, query string, index int) string {
	rows := make([]string, 0, len(candidates))
	for i, ref := range candidates {
		rows = append(rows, p.renderItem(ref.Title, i == index, query, mentionPopupWidth))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (p *mentionPopup) renderItem(text string, focused bool, query string, width int) string {
	innerWidth := width - 2 // Account for padding
	if ansi.StringWidth(text) > innerWidth {
		text = ansi.Truncate(text, innerWidth, "…")
	}

	style := p.normalStyle
	matchStyle := p.matchStyle.Background(style.GetBackground())
	if focused {
		style = p.focusedStyle
		matchStyle = p.matchStyle.Background(style.GetBackground())
	}

	content := style.Padding(0, 1).Width(width).Render(text)

	// Titles are matched as a case-insensitive substring; underline
	// that range.
	if query != "" {
		if idx := strings.Index(strings.ToLower(text), strings.ToLower(query)); idx >= 0 {
			start, stop := bytePosToVisibleCharPos(text, [2]int{idx, idx + len(query) - 1})
			// Offset by 1 for the padding space.
			content = lipgloss.StyleRanges(content, lipgloss.NewRange(start+1, stop+2, matchStyle))
		}
	}

	return content
}

func bytePosToVisibleCharPos(str string, rng [2]int) (int, int) {
	bytePos, byteStart, byteStop := 0, rng[0], rng[1]
	pos, start, stop := 0, 0, 0
	gr := uniseg.NewGraphemes(str)
	for byteStart > bytePos {
		if !gr.Next() {
			break
		}
		bytePos += len(gr.Str())
		pos += max(1, gr.Width())
	}
	start = pos
	for byteStop > bytePos {
		if !gr.Next() {
			break
		}
		bytePos += len(gr.Str())
		pos += max(1, gr.Width())
	}
	stop = pos
	return start, stop
}
