package tui

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/quill/internal/composer"
	"github.com/charmbracelet/x/ansi"
)

const maxFilename = 15

// chipRenderer renders the attachment chips shown above the editor. The
// attachment list itself lives on the composer; this only draws it.
type chipRenderer struct {
	normalStyle, textStyle, imageStyle, deletingStyle lipgloss.Style
}

func newChipRenderer(t *Styles) *chipRenderer {
	return &chipRenderer{
		normalStyle:   t.Attachments.Normal,
		textStyle:     t.Attachments.Text,
		imageStyle:    t.Attachments.Image,
		deletingStyle: t.Attachments.Deleting,
	}
}

func (r *chipRenderer) Render(attachments []composer.Attachment, deleting bool, width int) string {
	var chips []string

	maxItemWidth := lipgloss.Width(r.imageStyle.String() + r.normalStyle.Render(strings.Repeat("x", maxFilename)))
	fits := int(math.Floor(float64(width)/float64(maxItemWidth))) - 1

	for i, att := range attachments {
		filename := filepath.Base(att.Name)
		if ansi.StringWidth(filename) > maxFilename {
			filename = ansi.Truncate(filename, maxFilename, "…")
		}

		if deleting {
			chips = append(
				chips,
				r.deletingStyle.Render(fmt.Sprintf("%d", i)),
				r.normalStyle.Render(filename),
			)
		} else {
			chips = append(
				chips,
				r.icon(att).String(),
				r.normalStyle.Render(filename),
			)
		}

		if i == fits && len(attachments) > i {
			chips = append(chips, lipgloss.NewStyle().Width(maxItemWidth).Render(fmt.Sprintf("%d more…", len(attachments)-fits)))
			break
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Left, chips...)
}

func (r *chipRenderer) icon(a composer.Attachment) lipgloss.Style {
	if a.IsImage {
		return r.imageStyle
	}
	return r.textStyle
}
