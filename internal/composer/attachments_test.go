package composer

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateImageOrder(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		provider string
		model    string
		prime    int
		file     FileCandidate
		wantErr  string
	}{
		{
			name:    "no provider selected",
			file:    pngFile("a.png", 10),
			wantErr: "no provider selected",
		},
		{
			name:     "model without vision",
			provider: "anthropic",
			model:    "haiku",
			file:     pngFile("a.png", 10),
			wantErr:  "model does not support images",
		},
		{
			name:     "image cap reached",
			provider: "openai",
			model:    "gpt-4o",
			prime:    2,
			file:     pngFile("c.png", 10),
			wantErr:  "maximum 2 images exceeded",
		},
		{
			name:     "too large for provider",
			provider: "openai",
			model:    "gpt-4o",
			file:     pngFile("big.png", 2048),
			wantErr:  "invalid image for provider",
		},
		{
			name:     "type not allowed",
			provider: "openai",
			model:    "gpt-4o",
			file:     FileCandidate{Name: "x.tiff", MIMEType: "image/tiff", Data: make([]byte, 10)},
			wantErr:  "invalid image for provider",
		},
		{
			name:     "valid image",
			provider: "openai",
			model:    "gpt-4o",
			file:     pngFile("ok.png", 10),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestComposer(t, Options{Capabilities: testCaps(), ErrorTTL: time.Hour})
			if tt.provider != "" {
				c.SetModel(tt.provider, tt.model)
			}
			for i := 0; i < tt.prime; i++ {
				c.AddFiles(pngFile(fmt.Sprintf("prime-%d.png", i), 10))
			}
			before := len(c.Attachments())

			c.AddFiles(tt.file)

			snap := c.Snapshot()
			if tt.wantErr != "" {
				require.Equal(t, tt.wantErr, snap.FileError)
				require.Len(t, snap.Attachments, before, "no partial attachment on rejection")
				return
			}
			require.Empty(t, snap.FileError)
			require.Len(t, snap.Attachments, before+1)
		})
	}
}

func TestImageCapHoldsForAnyBatch(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t, Options{Capabilities: testCaps(), ErrorTTL: time.Hour})
	c.SetModel("openai", "gpt-4o")

	c.AddFiles(
		pngFile("1.png", 10),
		pngFile("2.png", 10),
		pngFile("3.png", 10),
		pngFile("4.png", 10),
	)

	snap := c.Snapshot()
	images := 0
	for _, a := range snap.Attachments {
		if a.IsImage {
			images++
		}
	}
	require.Equal(t, 2, images)
	require.Equal(t, "maximum 2 images exceeded", snap.FileError)
}

func TestBatchContinuesPastRejection(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t, Options{Capabilities: testCaps(), ErrorTTL: time.Hour})
	c.SetModel("openai", "gpt-4o")

	c.AddFiles(
		pngFile("ok.png", 10),
		pngFile("huge.png", 9999),
		FileCandidate{Name: "notes.txt", MIMEType: "text/plain", Data: []byte("hi")},
	)

	snap := c.Snapshot()
	require.Len(t, snap.Attachments, 2, "a failure must not abort the batch")
	require.Equal(t, "invalid image for provider", snap.FileError)
}

func TestDocumentClassification(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		file FileCandidate
		want FileCategory
	}{
		{"pdf by type", FileCandidate{Name: "paper", MIMEType: "application/pdf", Data: []byte("x")}, CategoryPDF},
		{"pdf by extension", FileCandidate{Name: "paper.pdf", MIMEType: "application/octet-stream", Data: []byte("x")}, CategoryPDF},
		{"word document", FileCandidate{Name: "r.docx", MIMEType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Data: []byte("x")}, CategoryDocument},
		{"markdown", FileCandidate{Name: "notes.md", MIMEType: "text/markdown", Data: []byte("# hi")}, CategoryText},
		{"json", FileCandidate{Name: "data.json", MIMEType: "application/json", Data: []byte("{}")}, CategoryText},
		{"unknown binary", FileCandidate{Name: "blob.bin", MIMEType: "application/octet-stream", Data: []byte{0, 1}}, CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestComposer(t, Options{})
			c.AddFiles(tt.file)
			atts := c.Attachments()
			require.Len(t, atts, 1)
			require.False(t, atts[0].IsImage)
			require.Equal(t, tt.want, atts[0].Category)
		})
	}
}

func TestDocumentSizeCap(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t, Options{ErrorTTL: time.Hour})
	c.AddFiles(FileCandidate{Name: "big.pdf", MIMEType: "application/pdf", Data: make([]byte, documentMaxBytes+1)})
	snap := c.Snapshot()
	require.Empty(t, snap.Attachments)
	require.Equal(t, "invalid file", snap.FileError)
}

func TestMIMESniffingFallback(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t, Options{Capabilities: testCaps(), ErrorTTL: time.Hour})
	c.SetModel("openai", "gpt-4o")

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	c.AddFiles(FileCandidate{Name: "pasted", Data: png})

	atts := c.Attachments()
	require.Len(t, atts, 1)
	require.True(t, atts[0].IsImage)
	require.Equal(t, "image/png", atts[0].MIMEType)
}

func TestAttachmentContentIsDataURL(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t, Options{Capabilities: testCaps()})
	c.SetModel("openai", "gpt-4o")
	c.AddFiles(FileCandidate{Name: "a.png", MIMEType: "image/png", Data: []byte("hello")})

	atts := c.Attachments()
	require.Len(t, atts, 1)
	require.Equal(t, "data:image/png;base64,aGVsbG8=", string(atts[0].Content))
	require.Equal(t, int64(5), atts[0].Size)
	require.NotEmpty(t, atts[0].ID)
}

func TestRemoveAttachment(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t, Options{Capabilities: testCaps()})
	c.SetModel("openai", "gpt-4o")
	c.AddFiles(pngFile("a.png", 10), pngFile("b.png", 10))
	atts := c.Attachments()
	require.Len(t, atts, 2)

	require.True(t, c.RemoveAttachment(atts[0].ID))
	require.False(t, c.RemoveAttachment("missing"))

	left := c.Attachments()
	require.Len(t, left, 1)
	require.Equal(t, "b.png", left[0].Name)
}

func TestFileErrorAutoClears(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t, Options{Capabilities: testCaps(), ErrorTTL: 30 * time.Millisecond})
	c.AddFiles(pngFile("a.png", 10))
	require.Equal(t, "no provider selected", c.Snapshot().FileError)

	require.Eventually(t, func() bool {
		return c.Snapshot().FileError == ""
	}, 2*time.Second, 5*time.Millisecond)
}

func TestFileErrorLastFailureWins(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t, Options{Capabilities: testCaps(), ErrorTTL: time.Hour})
	c.SetModel("openai", "gpt-4o")
	c.AddFiles(pngFile("huge.png", 9999))
	require.Equal(t, "invalid image for provider", c.Snapshot().FileError)

	c.AddFiles(FileCandidate{Name: "big.pdf", MIMEType: "application/pdf", Data: make([]byte, documentMaxBytes+1)})
	require.Equal(t, "invalid file", c.Snapshot().FileError)
}

func TestVisionLossPurgesImages(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t, Options{Capabilities: testCaps(), ErrorTTL: time.Hour})
	c.SetModel("openai", "gpt-4o")
	c.AddFiles(
		pngFile("a.png", 10),
		pngFile("b.png", 10),
		FileCandidate{Name: "notes.txt", MIMEType: "text/plain", Data: []byte("keep me")},
	)
	require.Len(t, c.Attachments(), 3)

	c.SetModel("anthropic", "haiku")

	snap := c.Snapshot()
	require.Len(t, snap.Attachments, 1, "only image attachments are purged")
	require.Equal(t, "notes.txt", snap.Attachments[0].Name)
	require.Equal(t, "model does not support images", snap.FileError)
}

func TestNoPurgeWithoutVisionFlip(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t, Options{Capabilities: testCaps(), ErrorTTL: time.Hour})
	c.SetModel("anthropic", "haiku")
	c.AddFiles(FileCandidate{Name: "notes.txt", MIMEType: "text/plain", Data: []byte("hi")})

	c.SetModel("anthropic", "haiku-2")

	snap := c.Snapshot()
	require.Len(t, snap.Attachments, 1)
	require.Empty(t, snap.FileError)
}

func TestAttachmentsDisabledInImageMode(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t, Options{Capabilities: testCaps()})
	c.SetModel("openai", "dall-e-3")
	require.False(t, c.Snapshot().CanAttach)

	c.AddFiles(pngFile("a.png", 10))
	require.Empty(t, c.Attachments())
	require.False(t, c.AddAttachment(Attachment{Name: "b.png", IsImage: true}))

	c.DragEnter()
	require.False(t, c.Snapshot().Dragging)
}

func TestEnteringImageModeClearsAttachments(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t, Options{Capabilities: testCaps()})
	c.SetModel("openai", "gpt-4o")
	c.AddFiles(pngFile("a.png", 10))
	require.Len(t, c.Attachments(), 1)

	c.SetModel("openai", "dall-e-3")
	require.Empty(t, c.Attachments())
	require.Empty(t, c.Snapshot().FileError, "a mode switch is not a validation failure")
}

func TestDragLifecycle(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t, Options{Capabilities: testCaps()})
	c.SetModel("openai", "gpt-4o")

	c.DragEnter()
	require.True(t, c.Snapshot().Dragging)

	c.DragLeave()
	require.False(t, c.Snapshot().Dragging)

	c.DragEnter()
	c.Drop(pngFile("dropped.png", 10))
	snap := c.Snapshot()
	require.False(t, snap.Dragging)
	require.Len(t, snap.Attachments, 1)
}

func TestSniffedTextKeepsPlainType(t *testing.T) {
	t.Parallel()
	c := newTestComposer(t, Options{})
	c.AddFiles(FileCandidate{Name: "pasted", Data: []byte("just some text")})
	atts := c.Attachments()
	require.Len(t, atts, 1)
	require.True(t, strings.HasPrefix(atts[0].MIMEType, "text/plain"))
	require.Equal(t, CategoryText, atts[0].Category)
}
