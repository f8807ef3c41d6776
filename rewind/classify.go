package rewind

import "strings"

// Internal asset schemes used by exports for uploaded and generated files.
var internalAssetSchemes = []string{"file-service://", "sediment://"}

// Hosts that serve export-hosted files.
var hostedAssetDomains = []string{"files.oaiusercontent.com"}

// Substrings that mark a pasted file link in plain prompt text.
var fileLinkMarkers = []string{"file-service", "files.oaiusercontent.com"}

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

// IsImage reports whether a content object, part, result or attachment describes an image.
func IsImage(a Asset) bool {
	if !a.Object {
		return false
	}
	switch {
	case isImageContentType(a.ContentType):
		return true
	case a.Type == "image":
		return true
	case hasAnyPrefix(a.AssetPointer, internalAssetSchemes):
		return true
	case strings.HasPrefix(a.MimeType, "image/"):
		return true
	}
	return isImageURL(a.URL)
}

func isImageContentType(ct string) bool {
	return ct == "image_asset" || ct == "image_url"
}

func isImageURL(u string) bool {
	if u == "" {
		return false
	}
	if strings.HasPrefix(u, "blob:") {
		return true
	}
	for _, d := range hostedAssetDomains {
		if strings.Contains(u, d) {
			return true
		}
	}
	lower := strings.ToLower(u)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// IsVoice reports whether a user message was spoken rather than typed.
func IsVoice(m Message) bool {
	if strings.Contains(m.ContentType, "audio") {
		return true
	}
	if m.VoiceMessage || m.VoiceModeMessage {
		return true
	}
	for _, mod := range m.Modalities {
		if mod == "audio" {
			return true
		}
	}
	for _, p := range m.Parts {
		if p.Asset != nil && p.Asset.HasAudio {
			return true
		}
	}
	return false
}

// PromptText joins the string parts of a message. Structured parts carry no prompt text.
func PromptText(m Message) string {
	var b strings.Builder
	for i, p := range m.Parts {
		if i > 0 {
			b.WriteByte(' ')
		}
		if p.IsText {
			b.WriteString(p.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

// fileUploadKeys returns dedup keys for the files a user message uploaded. Attachments win;
// otherwise one pasted file link counts at most once per message.
func fileUploadKeys(m Message) []string {
	if len(m.Attachments) > 0 {
		keys := make([]string, 0, len(m.Attachments))
		for _, a := range m.Attachments {
			keys = append(keys, a.Key())
		}
		return keys
	}
	for _, p := range m.Parts {
		if !p.IsText {
			continue
		}
		if tok := fileLinkToken(p.Text); tok != "" {
			return []string{"link:" + tok}
		}
	}
	return nil
}

func fileLinkToken(text string) string {
	if !containsAny(text, fileLinkMarkers) {
		return ""
	}
	for _, field := range strings.Fields(text) {
		if containsAny(field, fileLinkMarkers) {
			return field
		}
	}
	return ""
}

// imageCandidates collects every image an assistant/tool message references. The content object
// only counts on its own when it carries a locator or nothing more specific matched.
func imageCandidates(m Message) []Asset {
	var out []Asset
	for _, p := range m.Parts {
		if p.Asset == nil {
			continue
		}
		if IsImage(*p.Asset) {
			out = append(out, *p.Asset)
		}
		for _, r := range p.Asset.Results {
			if IsImage(r) {
				out = append(out, r)
			}
		}
	}
	for _, img := range m.Images {
		if IsImage(img) {
			out = append(out, img)
		}
	}
	for _, a := range m.Attachments {
		if IsImage(a) {
			out = append(out, a)
		}
	}
	if isImageContentType(m.ContentType) && (len(out) == 0 || m.Content.hasLocator()) {
		out = append(out, m.Content)
	}
	return out
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
