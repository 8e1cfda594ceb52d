package composer

// applyFormat wraps the selection [start, end) with before/after. The
// returned cursor sits immediately after the wrapped selection, i.e.
// between the markers when the selection was empty, so repeated
// formatting actions compose.
func applyFormat(text, before, after string, start, end int) (string, int) {
	start = clamp(start, 0, len(text))
	end = clamp(end, start, len(text))
	selected := text[start:end]
	newText := text[:start] + before + selected + after + text[end:]
	return newText, start + len(before) + len(selected)
}

// ApplyFormat wraps the host-reported selection with markdown markers
// and repositions the cursor after the wrapped selection. Ignored in
// image-generation mode, which has no formatting toolbar.
func (c *Composer) ApplyFormat(before, after string, selStart, selEnd int) {
	c.mu.Lock()
	if c.imageModel != nil {
		c.mu.Unlock()
		return
	}
	c.text, c.cursor = applyFormat(c.text, before, after, selStart, selEnd)
	c.detectMentionLocked()
	c.publishLocked()
	c.mu.Unlock()
	c.requestFocus()
}
