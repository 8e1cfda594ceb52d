package tui

import (
	"image/color"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/exp/charmtone"
)

// Icons.
const (
	ImageIcon string = "■"
	TextIcon  string = "≡"
	ErrorIcon string = "×"
	CheckIcon string = "✓"
	DotIcon   string = "•"

	headerDiag = "╱"
)

// Styles holds every lipgloss style the interface renders with.
type Styles struct {
	// Reusable text styles
	Base      lipgloss.Style
	Muted     lipgloss.Style
	HalfMuted lipgloss.Style
	Subtle    lipgloss.Style

	// Header
	Header struct {
		Title        lipgloss.Style // wordmark fallback when gradients are off
		Diagonals    lipgloss.Style // diagonal separators (╱)
		Model        lipgloss.Style // active provider/model pair
		Vault        lipgloss.Style // vault path and note count
		Keystroke    lipgloss.Style // keystroke hints (e.g. "ctrl+p")
		KeystrokeTip lipgloss.Style // keystroke action text (e.g. "prompts")
		Separator    lipgloss.Style // separator dots (•)
	}

	// Inputs
	TextArea textarea.Styles

	// Help
	Help help.Styles

	// Status bar
	Status struct {
		Help lipgloss.Style

		ErrorIndicator   lipgloss.Style
		WarnIndicator    lipgloss.Style
		InfoIndicator    lipgloss.Style
		SuccessIndicator lipgloss.Style

		ErrorMessage   lipgloss.Style
		WarnMessage    lipgloss.Style
		InfoMessage    lipgloss.Style
		SuccessMessage lipgloss.Style
	}

	// Mention popup
	Completions struct {
		Normal  lipgloss.Style
		Focused lipgloss.Style
		Match   lipgloss.Style
	}

	// Attachment chips
	Attachments struct {
		Normal   lipgloss.Style
		Image    lipgloss.Style
		Text     lipgloss.Style
		Deleting lipgloss.Style
	}

	// Transcript
	Chat struct {
		UserPrompt    lipgloss.Style
		UserText      lipgloss.Style
		AssistantText lipgloss.Style
		Thinking      lipgloss.Style
		ErrorTag      lipgloss.Style
		ErrorText     lipgloss.Style
		ImageNote     lipgloss.Style
	}

	// Suggested prompt panel
	Prompts struct {
		Title    lipgloss.Style
		Item     lipgloss.Style
		Selected lipgloss.Style
		Category lipgloss.Style
		Hint     lipgloss.Style
	}

	// Editor footer (counters, mode, image settings, format bar)
	Footer struct {
		Counts       lipgloss.Style
		Mode         lipgloss.Style
		SettingKey   lipgloss.Style
		SettingValue lipgloss.Style
		Error        lipgloss.Style
		Format       lipgloss.Style
		Drop         lipgloss.Style
	}

	// Background
	Background color.Color

	// Wordmark gradient endpoints
	TitleColorA color.Color
	TitleColorB color.Color

	// Semantic colors
	Primary       color.Color
	Secondary     color.Color
	Tertiary      color.Color
	BgBase        color.Color
	BgBaseLighter color.Color
	BgSubtle      color.Color
	BgOverlay     color.Color
	FgBase        color.Color
	FgMuted       color.Color
	FgHalfMuted   color.Color
	FgSubtle      color.Color
	Error         color.Color
	Warning       color.Color
	Info          color.Color
	White         color.Color
	Blue          color.Color
	Green         color.Color
	GreenDark     color.Color
	Red           color.Color
	RedDark       color.Color
	Yellow        color.Color
}

// DefaultStyles returns the default dark styles.
func DefaultStyles() Styles {
	var (
		primary   = charmtone.Charple
		secondary = charmtone.Dolly
		tertiary  = charmtone.Bok

		// Backgrounds
		bgBase        = charmtone.Pepper
		bgBaseLighter = charmtone.BBQ
		bgSubtle      = charmtone.Charcoal
		bgOverlay     = charmtone.Iron

		// Foregrounds
		fgBase      = charmtone.Ash
		fgMuted     = charmtone.Squid
		fgHalfMuted = charmtone.Smoke
		fgSubtle    = charmtone.Oyster

		// Status
		errColor = charmtone.Sriracha
		warning  = charmtone.Zest
		info     = charmtone.Malibu

		// Colors
		white     = charmtone.Butter
		blue      = charmtone.Malibu
		yellow    = charmtone.Mustard
		green     = charmtone.Julep
		greenDark = charmtone.Guac
		red       = charmtone.Coral
		redDark   = charmtone.Sriracha
	)

	base := lipgloss.NewStyle().Foreground(fgBase)

	s := Styles{}

	s.Background = bgBase

	s.Primary = primary
	s.Secondary = secondary
	s.Tertiary = tertiary
	s.BgBase = bgBase
	s.BgBaseLighter = bgBaseLighter
	s.BgSubtle = bgSubtle
	s.BgOverlay = bgOverlay
	s.FgBase = fgBase
	s.FgMuted = fgMuted
	s.FgHalfMuted = fgHalfMuted
	s.FgSubtle = fgSubtle
	s.Error = errColor
	s.Warning = warning
	s.Info = info
	s.White = white
	s.Blue = blue
	s.Green = green
	s.GreenDark = greenDark
	s.Red = red
	s.RedDark = redDark
	s.Yellow = yellow

	s.TitleColorA = secondary
	s.TitleColorB = primary

	s.Base = base
	s.Muted = base.Foreground(fgMuted)
	s.HalfMuted = base.Foreground(fgHalfMuted)
	s.Subtle = base.Foreground(fgSubtle)

	s.Header.Title = base.Foreground(primary).Bold(true)
	s.Header.Diagonals = base.Foreground(bgOverlay)
	s.Header.Model = base.Foreground(fgHalfMuted)
	s.Header.Vault = base.Foreground(fgMuted)
	s.Header.Keystroke = base.Foreground(fgBase).Bold(true)
	s.Header.KeystrokeTip = base.Foreground(fgMuted)
	s.Header.Separator = base.Foreground(fgSubtle)

	s.TextArea = textarea.Styles{
		Focused: textarea.StyleState{
			Base:             base,
			Text:             base,
			LineNumber:       base.Foreground(fgSubtle),
			CursorLine:       base,
			CursorLineNumber: base.Foreground(fgSubtle),
			Placeholder:      base.Foreground(fgSubtle),
			Prompt:           base.Foreground(tertiary),
		},
		Blurred: textarea.StyleState{
			Base:             base,
			Text:             base.Foreground(fgMuted),
			LineNumber:       base.Foreground(fgMuted),
			CursorLine:       base,
			CursorLineNumber: base.Foreground(fgMuted),
			Placeholder:      base.Foreground(fgSubtle),
			Prompt:           base.Foreground(fgMuted),
		},
		Cursor: textarea.CursorStyle{
			Color: secondary,
			Shape: tea.CursorBlock,
			Blink: true,
		},
	}

	s.Help = help.Styles{
		ShortKey:       base.Foreground(fgMuted),
		ShortDesc:      base.Foreground(fgSubtle),
		ShortSeparator: base.Foreground(bgSubtle),
		Ellipsis:       base.Foreground(bgSubtle),
		FullKey:        base.Foreground(fgMuted),
		FullDesc:       base.Foreground(fgSubtle),
		FullSeparator:  base.Foreground(bgSubtle),
	}

	s.Status.Help = lipgloss.NewStyle().Padding(0, 1)
	s.Status.SuccessIndicator = base.Foreground(bgSubtle).Background(green).Padding(0, 1).Bold(true).SetString("OKAY!")
	s.Status.InfoIndicator = s.Status.SuccessIndicator
	s.Status.WarnIndicator = s.Status.SuccessIndicator.Foreground(bgOverlay).Background(yellow).SetString("WARNING")
	s.Status.ErrorIndicator = s.Status.SuccessIndicator.Foreground(bgBase).Background(red).SetString("ERROR")
	s.Status.SuccessMessage = base.Foreground(bgSubtle).Background(greenDark).Padding(0, 1)
	s.Status.InfoMessage = s.Status.SuccessMessage
	s.Status.WarnMessage = s.Status.SuccessMessage.Foreground(bgOverlay).Background(warning)
	s.Status.ErrorMessage = s.Status.SuccessMessage.Foreground(white).Background(redDark)

	s.Completions.Normal = base.Background(bgSubtle).Foreground(fgBase)
	s.Completions.Focused = base.Background(primary).Foreground(white)
	s.Completions.Match = base.Underline(true)

	attachmentIconStyle := base.Foreground(bgSubtle).Background(green).Padding(0, 1)
	s.Attachments.Image = attachmentIconStyle.SetString(ImageIcon)
	s.Attachments.Text = attachmentIconStyle.SetString(TextIcon)
	s.Attachments.Normal = base.Padding(0, 1).MarginRight(1).Background(fgMuted).Foreground(fgBase)
	s.Attachments.Deleting = base.Padding(0, 1).Bold(true).Background(red).Foreground(fgBase)

	s.Chat.UserPrompt = base.Foreground(tertiary).SetString("> ")
	s.Chat.UserText = base
	s.Chat.AssistantText = base.Foreground(fgHalfMuted)
	s.Chat.Thinking = base.Foreground(fgSubtle).Italic(true)
	s.Chat.ErrorTag = base.Foreground(bgBase).Background(red).Padding(0, 1).SetString("ERROR")
	s.Chat.ErrorText = base.Foreground(red)
	s.Chat.ImageNote = base.Foreground(fgSubtle).Italic(true)

	s.Prompts.Title = base.Foreground(secondary).Bold(true)
	s.Prompts.Item = base.Foreground(fgHalfMuted)
	s.Prompts.Selected = base.Foreground(white).Background(primary).Padding(0, 1)
	s.Prompts.Category = base.Foreground(fgSubtle)
	s.Prompts.Hint = base.Foreground(fgSubtle)

	s.Footer.Counts = base.Foreground(fgSubtle)
	s.Footer.Mode = base.Foreground(bgSubtle).Background(secondary).Padding(0, 1)
	s.Footer.SettingKey = base.Foreground(fgMuted)
	s.Footer.SettingValue = base.Foreground(fgBase)
	s.Footer.Error = base.Foreground(red)
	s.Footer.Format = base.Foreground(fgMuted)
	s.Footer.Drop = base.Foreground(bgSubtle).Background(blue).Padding(0, 1)

	return s
}

// applyBoldForegroundGrad renders s in bold with a linear foreground
// gradient from c1 to c2 across its runes.
func applyBoldForegroundGrad(s string, c1, c2 color.Color) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	if len(runes) == 1 {
		return lipgloss.NewStyle().Bold(true).Foreground(c1).Render(s)
	}
	var out string
	for i, r := range runes {
		t := float64(i) / float64(len(runes)-1)
		out += lipgloss.NewStyle().Bold(true).Foreground(lerpColor(c1, c2, t)).Render(string(r))
	}
	return out
}

func lerpColor(c1, c2 color.Color, t float64) color.Color {
	r1, g1, b1, _ := c1.RGBA()
	r2, g2, b2, _ := c2.RGBA()
	lerp := func(a, b uint32) uint8 {
		return uint8((float64(a>>8) + (float64(b>>8)-float64(a>>8))*t))
	}
	return color.RGBA{R: lerp(r1, r2), G: lerp(g1, g2), B: lerp(b1, b2), A: 0xff}
}
