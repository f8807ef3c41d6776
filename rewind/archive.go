package rewind

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// ErrInvalidArchive is returned when the export is not valid JSON or has no conversations array.
var ErrInvalidArchive = errors.New("invalid file")

// Roles found in exports.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// Conversation is one thread of the export. The mapping tree is kept as a flat bag of nodes in
// document order; parent/child links are not needed for aggregation.
type Conversation struct {
	ID    string
	Title string
	Nodes []Node
}

// Node is one entry of the export's mapping. Message is nil for structural nodes.
type Node struct {
	ID      string
	Message *Message
}

// Message carries the fields the classifier looks at. Every field is optional in the export;
// values of an unexpected JSON type decode as absent.
type Message struct {
	Role        string
	ContentType string
	CreateTime  *float64

	// Content is the content object itself viewed as an asset candidate.
	Content     Asset
	Parts       []Part
	Images      []Asset
	Attachments []Asset

	Hidden           bool
	VoiceMessage     bool
	VoiceModeMessage bool
	Modalities       []string
}

// Part is one entry of content.parts: either plain text or a structured object.
type Part struct {
	Text   string
	IsText bool
	Asset  *Asset
}

// Asset is the record every image/file predicate runs against.
type Asset struct {
	// Object is false when the source value was not a JSON object (e.g. a bare string attachment).
	Object bool

	ContentType  string
	Type         string
	AssetPointer string
	MimeType     string
	URL          string
	ID           string
	Name         string
	HasAudio     bool
	Results      []Asset

	// Raw is the compacted source JSON, used as a structural dedup key.
	Raw string
}

// DisplayTitle is the title used for rankings and per-date breakdowns.
func (c Conversation) DisplayTitle() string {
	if c.Title == "" {
		return "Untitled"
	}
	return c.Title
}

// UnmarshalJSON lets a []Conversation be decoded directly with encoding/json.
func (c *Conversation) UnmarshalJSON(b []byte) error {
	conv, err := DecodeConversation(b)
	if err != nil {
		return err
	}
	*c = conv
	return nil
}

// DecodeConversation decodes one conversation element of the export. Only syntactically invalid
// JSON is an error; missing or mistyped fields fall back to zero values.
func DecodeConversation(raw []byte) (Conversation, error) {
	if !gjson.ValidBytes(raw) {
		return Conversation{}, fmt.Errorf("DecodeConversation: %w", ErrInvalidArchive)
	}
	r := gjson.ParseBytes(raw)
	if !r.IsObject() {
		return Conversation{}, nil
	}

	conv := Conversation{
		ID:    str(r.Get("conversation_id")),
		Title: str(r.Get("title")),
	}
	if conv.ID == "" {
		conv.ID = str(r.Get("id"))
	}

	mapping := r.Get("mapping")
	if !mapping.IsObject() {
		return conv, nil
	}
	mapping.ForEach(func(key, value gjson.Result) bool {
		n := Node{ID: key.String()}
		if msg := value.Get("message"); msg.IsObject() {
			m := decodeMessage(msg)
			n.Message = &m
		}
		conv.Nodes = append(conv.Nodes, n)
		return true
	})
	return conv, nil
}

func decodeMessage(r gjson.Result) Message {
	content := r.Get("content")
	meta := r.Get("metadata")

	m := Message{
		Role:             str(r.Get("author.role")),
		ContentType:      str(content.Get("content_type")),
		Content:          decodeAsset(content),
		Hidden:           truthy(meta.Get("is_visually_hidden_from_conversation")),
		VoiceMessage:     meta.Get("is_voice_message").Type == gjson.True,
		VoiceModeMessage: meta.Get("voice_mode_message").Type == gjson.True,
	}
	if ct := r.Get("create_time"); ct.Type == gjson.Number {
		v := ct.Num
		m.CreateTime = &v
	}

	if parts := content.Get("parts"); parts.IsArray() {
		parts.ForEach(func(_, p gjson.Result) bool {
			switch {
			case p.Type == gjson.String:
				m.Parts = append(m.Parts, Part{Text: p.Str, IsText: true})
			case p.IsObject():
				a := decodeAsset(p)
				m.Parts = append(m.Parts, Part{Asset: &a})
			default:
				m.Parts = append(m.Parts, Part{})
			}
			return true
		})
	}
	m.Images = decodeAssets(content.Get("images"))
	m.Attachments = decodeAssets(meta.Get("attachments"))

	if mods := meta.Get("modalities"); mods.IsArray() {
		mods.ForEach(func(_, v gjson.Result) bool {
			if v.Type == gjson.String {
				m.Modalities = append(m.Modalities, v.Str)
			}
			return true
		})
	}
	return m
}

func decodeAssets(r gjson.Result) []Asset {
	if !r.IsArray() {
		return nil
	}
	var out []Asset
	r.ForEach(func(_, v gjson.Result) bool {
		out = append(out, decodeAsset(v))
		return true
	})
	return out
}

func decodeAsset(r gjson.Result) Asset {
	if !r.Exists() {
		return Asset{}
	}
	a := Asset{Raw: string(pretty.Ugly([]byte(r.Raw)))}
	if !r.IsObject() {
		return a
	}
	a.Object = true
	a.ContentType = str(r.Get("content_type"))
	a.Type = str(r.Get("type"))
	a.AssetPointer = str(r.Get("asset_pointer"))
	a.MimeType = str(r.Get("mime_type"))
	a.URL = str(r.Get("url"))
	a.ID = str(r.Get("id"))
	a.Name = str(r.Get("name"))
	a.HasAudio = truthy(r.Get("audio"))
	if results := r.Get("results"); results.IsArray() {
		results.ForEach(func(_, v gjson.Result) bool {
			a.Results = append(a.Results, decodeAsset(v))
			return true
		})
	}
	return a
}

// Key identifies one physical artifact: URL, then asset pointer, then id, then the object itself.
func (a Asset) Key() string {
	switch {
	case a.URL != "":
		return "url:" + a.URL
	case a.AssetPointer != "":
		return "asset:" + a.AssetPointer
	case a.ID != "":
		return "id:" + a.ID
	default:
		return "raw:" + a.Raw
	}
}

func (a Asset) hasLocator() bool {
	return a.URL != "" || a.AssetPointer != "" || a.ID != ""
}

func str(r gjson.Result) string {
	if r.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(r.Str)
}

// truthy mirrors loose boolean checks on export metadata: any non-empty, non-zero, non-false value.
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.True, gjson.JSON:
		return true
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	default:
		return false
	}
}
