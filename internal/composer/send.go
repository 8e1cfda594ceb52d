package composer

import (
	"context"
	"strings"
)

// InlineImage is an image payload inlined into an outgoing message.
type InlineImage struct {
	// Data is the base64 payload, any data-URL prefix removed.
	Data      string
	MediaType string
	FileName  string
}

// TextMessage is the outbound chat command.
type TextMessage struct {
	Text   string
	Images []InlineImage
}

// SendCollaborator dispatches an outgoing message. Streaming of the
// response is the collaborator's concern; the composer only learns
// about it through SetStreaming.
type SendCollaborator interface {
	Send(ctx context.Context, msg TextMessage) error
}

// CancelCollaborator aborts the in-flight streaming response.
type CancelCollaborator interface {
	Cancel()
}

// Send resolves the session into exactly one outbound command. In
// image-generation mode it delegates to Generate with the buffer as
// the prompt. Otherwise it requires non-empty trimmed text or at
// least one attachment, inlines image attachments into the message,
// and synchronously clears attachments, the transient file error, and
// the toolbar. The text buffer is the host's to clear once its own
// pipeline has accepted the message.
func (c *Composer) Send(ctx context.Context) error {
	c.mu.Lock()
	if c.imageModel != nil {
		prompt := c.text
		c.mu.Unlock()
		return c.Generate(ctx, prompt)
	}
	if c.sender == nil || (strings.TrimSpace(c.text) == "" && len(c.attachments) == 0) {
		c.mu.Unlock()
		return nil
	}
	msg := TextMessage{Text: c.text, Images: inlineImages(c.attachments)}
	c.attachments = nil
	c.clearFileErrorLocked()
	c.toolbarOpen = false
	c.sendErr = ""
	c.publishLocked()
	c.mu.Unlock()

	if err := c.sender.Send(ctx, msg); err != nil {
		c.mu.Lock()
		c.sendErr = err.Error()
		c.publishLocked()
		c.mu.Unlock()
		return err
	}
	return nil
}

// Cancel stops the in-flight streaming response. Only meaningful
// while streaming; it does not mutate session state, the host clears
// the streaming flag when the stream actually ends.
func (c *Composer) Cancel() {
	c.mu.Lock()
	streaming := c.streaming
	c.mu.Unlock()
	if !streaming || c.canceler == nil {
		return
	}
	c.canceler.Cancel()
}

// inlineImages converts image attachments for the wire, stripping a
// data-URL prefix when present and passing bare base64 payloads
// through unchanged.
func inlineImages(attachments []Attachment) []InlineImage {
	var images []InlineImage
	for _, a := range attachments {
		if !a.IsImage {
			continue
		}
		images = append(images, InlineImage{
			Data:      stripDataURL(string(a.Content)),
			MediaType: a.MIMEType,
			FileName:  a.Name,
		})
	}
	return images
}

func stripDataURL(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.Index(s, ";base64,"); i >= 0 {
		return s[i+len(";base64,"):]
	}
	return s
}
