package composer

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// documentMaxBytes caps non-image attachments.
const documentMaxBytes = 5 * 1024 * 1024

// FileCategory classifies non-image attachments.
type FileCategory string

const (
	CategoryPDF      FileCategory = "pdf"
	CategoryDocument FileCategory = "document"
	CategoryText     FileCategory = "text"
	CategoryOther    FileCategory = "other"
)

// Attachment is a validated file staged for the next send.
type Attachment struct {
	ID       string
	Name     string
	MIMEType string
	Size     int64
	IsImage  bool
	Category FileCategory
	// Content is an owned copy of the file, normally in data-URL
	// form. Attachments from other pipelines may carry a bare
	// base64 payload instead; sending handles both.
	Content []byte
}

// FileCandidate is a file offered for attachment, before validation.
type FileCandidate struct {
	Name     string
	MIMEType string
	Data     []byte
}

// ImageRule is a provider's image attachment policy.
type ImageRule struct {
	MaxImages int
	MaxBytes  int64
	MIMETypes []string
}

func (r ImageRule) allowsMIME(mime string) bool {
	if len(r.MIMETypes) == 0 {
		return true
	}
	for _, m := range r.MIMETypes {
		if strings.EqualFold(m, mime) {
			return true
		}
	}
	return false
}

// CapabilityProvider answers capability questions about the active
// provider and model.
type CapabilityProvider interface {
	SupportsVision(provider, model string) bool
	ImageRule(provider string) ImageRule
	ImageModel(provider, model string) (ImageModelInfo, bool)
}

// AddFiles validates and attaches candidates one at a time. A
// rejection records the transient file error (last failure wins) and
// does not stop the rest of the batch. No-op in image-generation
// mode, where attachments cannot be sent.
func (c *Composer) AddFiles(files ...FileCandidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.imageModel != nil {
		return
	}
	for _, f := range files {
		mime := f.MIMEType
		if mime == "" {
			mime = sniffMIME(f.Data)
		}
		var att Attachment
		var reason string
		if strings.HasPrefix(mime, "image/") {
			att, reason = c.validateImageLocked(f, mime)
		} else {
			att, reason = validateDocument(f, mime)
		}
		if reason != "" {
			c.setFileErrorLocked(reason)
			continue
		}
		c.attachments = append(c.attachments, att)
	}
	c.publishLocked()
}

// validateImageLocked applies the image rules in order: provider
// selected, model supports vision, room under the image cap, then the
// provider's size/type rule.
func (c *Composer) validateImageLocked(f FileCandidate, mime string) (Attachment, string) {
	if c.provider == "" {
		return Attachment{}, "no provider selected"
	}
	if !c.visionOK {
		return Attachment{}, "model does not support images"
	}
	rule := c.imageRuleLocked()
	if c.imageCountLocked() >= rule.MaxImages {
		return Attachment{}, fmt.Sprintf("maximum %d images exceeded", rule.MaxImages)
	}
	if int64(len(f.Data)) > rule.MaxBytes || !rule.allowsMIME(mime) {
		return Attachment{}, "invalid image for provider"
	}
	return newAttachment(f, mime, true, CategoryOther), ""
}

func validateDocument(f FileCandidate, mime string) (Attachment, string) {
	if int64(len(f.Data)) > documentMaxBytes {
		return Attachment{}, "invalid file"
	}
	return newAttachment(f, mime, false, classifyDocument(mime, f.Name)), ""
}

func classifyDocument(mime, name string) FileCategory {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case mime == "application/pdf" || ext == ".pdf":
		return CategoryPDF
	case strings.Contains(mime, "msword"),
		strings.Contains(mime, "wordprocessingml"),
		strings.Contains(mime, "opendocument.text"),
		ext == ".doc", ext == ".docx", ext == ".odt", ext == ".rtf":
		return CategoryDocument
	case strings.HasPrefix(mime, "text/"),
		mime == "application/json",
		mime == "application/xml",
		ext == ".md", ext == ".txt", ext == ".json", ext == ".yaml", ext == ".yml":
		return CategoryText
	default:
		return CategoryOther
	}
}

func newAttachment(f FileCandidate, mime string, isImage bool, cat FileCategory) Attachment {
	content := []byte("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(f.Data))
	return Attachment{
		ID:       uuid.NewString(),
		Name:     f.Name,
		MIMEType: mime,
		Size:     int64(len(f.Data)),
		IsImage:  isImage,
		Category: cat,
		Content:  content,
	}
}

// AddAttachment appends an attachment another pipeline already
// converted and validated. The image cap still applies; everything
// else is the caller's responsibility. Reports whether it was added.
func (c *Composer) AddAttachment(att Attachment) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.imageModel != nil {
		return false
	}
	if att.IsImage {
		rule := c.imageRuleLocked()
		if c.imageCountLocked() >= rule.MaxImages {
			c.setFileErrorLocked(fmt.Sprintf("maximum %d images exceeded", rule.MaxImages))
			c.publishLocked()
			return false
		}
	}
	if att.ID == "" {
		att.ID = uuid.NewString()
	}
	c.attachments = append(c.attachments, att)
	c.publishLocked()
	return true
}

// RemoveAttachment drops the attachment with the given ID.
func (c *Composer) RemoveAttachment(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, a := range c.attachments {
		if a.ID == id {
			c.attachments = append(c.attachments[:i], c.attachments[i+1:]...)
			c.publishLocked()
			return true
		}
	}
	return false
}

// Attachments returns a copy of the staged attachments.
func (c *Composer) Attachments() []Attachment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Attachment, len(c.attachments))
	copy(out, c.attachments)
	return out
}

// DragEnter marks a drag hover so hosts can render a drop target.
func (c *Composer) DragEnter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.imageModel != nil || c.dragging {
		return
	}
	c.dragging = true
	c.publishLocked()
}

// DragLeave clears the drag hover.
func (c *Composer) DragLeave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dragging {
		return
	}
	c.dragging = false
	c.publishLocked()
}

// Drop ends the drag hover and runs the dropped files through the
// normal attachment path.
func (c *Composer) Drop(files ...FileCandidate) {
	c.mu.Lock()
	if c.dragging {
		c.dragging = false
		c.publishLocked()
	}
	c.mu.Unlock()
	c.AddFiles(files...)
}

func (c *Composer) imageRuleLocked() ImageRule {
	if c.caps == nil {
		return ImageRule{}
	}
	return c.caps.ImageRule(c.provider)
}

func (c *Composer) imageCountLocked() int {
	n := 0
	for _, a := range c.attachments {
		if a.IsImage {
			n++
		}
	}
	return n
}

// purgeImagesLocked drops image attachments after vision support is
// lost and raises the transient notice.
func (c *Composer) purgeImagesLocked() {
	kept := c.attachments[:0]
	purged := false
	for _, a := range c.attachments {
		if a.IsImage {
			purged = true
			continue
		}
		kept = append(kept, a)
	}
	if !purged {
		return
	}
	c.attachments = kept
	c.setFileErrorLocked("model does not support images")
}

// sniffMIME falls back to content sniffing over the first 512 bytes
// when a candidate carries no type.
func sniffMIME(data []byte) string {
	if len(data) > 512 {
		data = data[:512]
	}
	mt := http.DetectContentType(data)
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}
