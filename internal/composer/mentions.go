package composer

import "strings"

// maxMentionCandidates caps the dropdown.
const maxMentionCandidates = 5

// NoteRef identifies a note offered for "@" completion.
type NoteRef struct {
	ID    string
	Title string
	Tags  []string
}

// NoteIndex supplies the notes offered for mention completion, in the
// order they should appear. Ordering (recency, relevance) is the
// index's responsibility, not the composer's.
type NoteIndex interface {
	List() []NoteRef
}

// MentionState tracks an in-progress "@query" token. It exists only
// while an unterminated token immediately precedes the cursor.
type MentionState struct {
	// Query is the text between the "@" and the cursor.
	Query string
	// Start is the byte offset of the "@" in the buffer.
	Start int
	// Index is the highlighted candidate; navigation wraps it
	// modulo the candidate count.
	Index int
}

// detectMentionLocked re-derives the mention state from text and
// cursor: the nearest unescaped "@" before the cursor that sits at
// start-of-text or after whitespace opens a mention, provided no
// whitespace occurs between it and the cursor.
func (c *Composer) detectMentionLocked() {
	prev := c.mention
	c.mention = nil
	if c.imageModel != nil || c.cursor == 0 {
		return
	}
	text := c.text[:c.cursor]
	for i := len(text) - 1; i >= 0; i-- {
		if isSpaceByte(text[i]) {
			return
		}
		if text[i] != '@' {
			continue
		}
		if i > 0 && text[i-1] == '\\' {
			continue
		}
		if i > 0 && !isSpaceByte(text[i-1]) {
			continue
		}
		m := &MentionState{Query: text[i+1:], Start: i}
		if prev != nil && prev.Start == m.Start && prev.Query == m.Query {
			m.Index = prev.Index
		}
		c.mention = m
		return
	}
}

// Candidates returns the current dropdown contents.
func (c *Composer) Candidates() []NoteRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.candidatesLocked()
}

func (c *Composer) candidatesLocked() []NoteRef {
	if c.mention == nil || c.notes == nil {
		return nil
	}
	return filterNotes(c.notes.List(), c.mention.Query)
}

// filterNotes matches the query case-insensitively as a substring of
// the title, preserving the supplied order, capped at
// maxMentionCandidates. An empty query passes the first notes through
// unfiltered.
func filterNotes(notes []NoteRef, query string) []NoteRef {
	q := strings.ToLower(query)
	out := make([]NoteRef, 0, maxMentionCandidates)
	for _, n := range notes {
		if q != "" && !strings.Contains(strings.ToLower(n.Title), q) {
			continue
		}
		out = append(out, n)
		if len(out) == maxMentionCandidates {
			break
		}
	}
	return out
}

// MoveCandidate moves the highlight by delta, wrapping in both
// directions. The dropdown closes if its candidates have vanished.
func (c *Composer) MoveCandidate(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mention == nil {
		return
	}
	cands := c.candidatesLocked()
	if len(cands) == 0 {
		c.mention = nil
		c.publishLocked()
		return
	}
	n := len(cands)
	c.mention.Index = ((c.mention.Index+delta)%n + n) % n
	c.publishLocked()
}

// CommitMention inserts the highlighted candidate.
func (c *Composer) CommitMention() {
	c.mu.Lock()
	if c.mention == nil {
		c.mu.Unlock()
		return
	}
	cands := c.candidatesLocked()
	if len(cands) == 0 {
		c.mention = nil
		c.publishLocked()
		c.mu.Unlock()
		return
	}
	c.insertMentionLocked(cands[clamp(c.mention.Index, 0, len(cands)-1)])
	c.mu.Unlock()
	c.requestFocus()
}

// InsertMention replaces the open "@query" token with a canonical
// mention for ref. A call with no open mention is a no-op, so a stale
// second insert does nothing.
func (c *Composer) InsertMention(ref NoteRef) {
	c.mu.Lock()
	if c.mention == nil {
		c.mu.Unlock()
		return
	}
	c.insertMentionLocked(ref)
	c.mu.Unlock()
	c.requestFocus()
}

func (c *Composer) insertMentionLocked(ref NoteRef) {
	m := c.mention
	token := "@[" + ref.Title + "](note:" + ref.ID + ") "
	end := m.Start + len(m.Query) + 1
	c.text = c.text[:m.Start] + token + c.text[end:]
	c.cursor = m.Start + len(token)
	c.mention = nil
	c.publishLocked()
}

// DismissMention closes the dropdown without touching the text.
func (c *Composer) DismissMention() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mention == nil {
		return
	}
	c.mention = nil
	c.publishLocked()
}

func (c *Composer) requestFocus() {
	if c.focus != nil {
		c.focus()
	}
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
