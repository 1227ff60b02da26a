package chat

import (
	"regexp"
	"strings"
)

// uploadPlaceholders are the texts the upload flow writes into the content of
// messages that only carry images.
var uploadPlaceholders = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\[?(shared|sent) \d+ (image|images|photo|photos)\]?$`),
	regexp.MustCompile(`(?i)^\[?(shared|sent) an? (image|photo)\]?$`),
	regexp.MustCompile(`(?i)^\[(image|photo|图片)\]$`),
	regexp.MustCompile(`^\[\d+张图片\]$`),
}

// IsUploadPlaceholder reports whether text is one of the known upload
// placeholder strings.
func IsUploadPlaceholder(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for _, re := range uploadPlaceholders {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// AttachmentType returns the attachment's type, defaulting to image.
func AttachmentType(a Attachment) string {
	t := strings.ToLower(strings.TrimSpace(a.Type))
	if t == "" {
		return AttachmentImage
	}
	return t
}

// IsImageAttachment reports whether a is an image with at least one
// resolvable path. Every caller that needs to know whether an attachment is an
// image goes through this predicate.
func IsImageAttachment(a Attachment) bool {
	if AttachmentType(a) != AttachmentImage {
		return false
	}
	return strings.TrimSpace(a.FilePath) != "" || strings.TrimSpace(a.ThumbnailPath) != ""
}

// ImageAttachments returns the image attachments of atts in order.
func ImageAttachments(atts []Attachment) []Attachment {
	var out []Attachment
	for _, a := range atts {
		if IsImageAttachment(a) {
			out = append(out, a)
		}
	}
	return out
}

// IsImageMessage reports whether m renders as an image message: it carries at
// least one image attachment and its text is empty or an upload placeholder.
// The result depends on the message fields only.
func IsImageMessage(m *Message) bool {
	if m == nil || m.System {
		return false
	}
	return isImageContent(m.Content, m.Attachments)
}

func isImageContent(content string, atts []Attachment) bool {
	if len(ImageAttachments(atts)) == 0 {
		return false
	}
	text := strings.TrimSpace(content)
	return text == "" || IsUploadPlaceholder(text)
}

// IsImageReply applies the image-message rule to a reply preview.
func IsImageReply(text string, atts []Attachment) bool {
	return isImageContent(text, atts)
}

// IsUploadedPath reports whether p looks like a real uploaded file rather than
// a trivial placeholder. It is shared by header avatars, message avatars and
// reply thumbnails.
func IsUploadedPath(p string) bool {
	p = strings.TrimSpace(p)
	if len(p) <= 1 {
		return false
	}
	switch {
	case strings.HasPrefix(p, "/uploads/"), strings.HasPrefix(p, "uploads/"):
		return true
	case strings.HasPrefix(p, "http://"), strings.HasPrefix(p, "https://"):
		return true
	case IsBlobPath(p):
		return true
	}
	return false
}

// IsBlobPath reports whether p is a locally held preview handle.
func IsBlobPath(p string) bool {
	return strings.HasPrefix(strings.TrimSpace(p), "blob:")
}
