package rewind

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDecodeConversation_TolerantFields(t *testing.T) {
	t.Parallel()

	raw := `{
	  "title": 42,
	  "id": "c-1",
	  "mapping": {
	    "root": {"message": null},
	    "n2": {"message": {
	      "author": {"role": "user"},
	      "create_time": "1749981600",
	      "content": {"content_type": "text", "parts": ["hi", 7, {"content_type": "audio_asset_pointer", "audio": {"x": 1}}]},
	      "metadata": {"is_visually_hidden_from_conversation": "yes", "modalities": ["audio", 3], "attachments": "nope"}
	    }},
	    "n1": {"message": {"author": {"role": "assistant"}, "create_time": 1749981601.5}}
	  }
	}`
	conv, err := DecodeConversation([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeConversation: %v", err)
	}
	if conv.Title != "" || conv.DisplayTitle() != "Untitled" {
		t.Fatalf("Title=%q DisplayTitle=%q", conv.Title, conv.DisplayTitle())
	}
	if conv.ID != "c-1" {
		t.Fatalf("ID=%q, want c-1", conv.ID)
	}
	if len(conv.Nodes) != 3 {
		t.Fatalf("nodes=%d, want 3", len(conv.Nodes))
	}
	// Document order, not key order.
	if conv.Nodes[0].ID != "root" || conv.Nodes[1].ID != "n2" || conv.Nodes[2].ID != "n1" {
		t.Fatalf("node order=%s,%s,%s", conv.Nodes[0].ID, conv.Nodes[1].ID, conv.Nodes[2].ID)
	}
	if conv.Nodes[0].Message != nil {
		t.Fatalf("null message should decode as nil")
	}

	m := conv.Nodes[1].Message
	if m.CreateTime != nil {
		t.Fatalf("string create_time should be absent, got %v", *m.CreateTime)
	}
	if !m.Hidden {
		t.Fatalf("non-empty string hidden flag should count as hidden")
	}
	if len(m.Parts) != 3 || !m.Parts[0].IsText || m.Parts[1].IsText || m.Parts[2].Asset == nil {
		t.Fatalf("parts=%+v", m.Parts)
	}
	if !m.Parts[2].Asset.HasAudio {
		t.Fatalf("object audio field should set HasAudio")
	}
	if len(m.Modalities) != 1 || m.Modalities[0] != "audio" {
		t.Fatalf("Modalities=%v", m.Modalities)
	}
	if m.Attachments != nil {
		t.Fatalf("non-array attachments should be absent")
	}

	if ct := conv.Nodes[2].Message.CreateTime; ct == nil || *ct != 1749981601.5 {
		t.Fatalf("CreateTime=%v", ct)
	}
}

func TestDecodeConversation_NonObjectAndInvalid(t *testing.T) {
	t.Parallel()

	conv, err := DecodeConversation([]byte(`"not a conversation"`))
	if err != nil {
		t.Fatalf("non-object element: %v", err)
	}
	if len(conv.Nodes) != 0 {
		t.Fatalf("nodes=%d, want 0", len(conv.Nodes))
	}

	if _, err := DecodeConversation([]byte(`{"title":`)); !errors.Is(err, ErrInvalidArchive) {
		t.Fatalf("err=%v, want ErrInvalidArchive", err)
	}
}

func TestConversationUnmarshalJSON(t *testing.T) {
	t.Parallel()

	var convs []Conversation
	if err := json.Unmarshal([]byte(`[{"title":"One","mapping":{"a":{"message":{"author":{"role":"user"}}}}},{"title":"Two"}]`), &convs); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(convs) != 2 || convs[0].Title != "One" || convs[1].Title != "Two" {
		t.Fatalf("convs=%+v", convs)
	}
	if convs[0].Nodes[0].Message.Role != RoleUser {
		t.Fatalf("Role=%q", convs[0].Nodes[0].Message.Role)
	}
}

func TestAssetKeyPrecedence(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a    Asset
		want string
	}{
		{Asset{URL: "u", AssetPointer: "p", ID: "i"}, "url:u"},
		{Asset{AssetPointer: "p", ID: "i"}, "asset:p"},
		{Asset{ID: "i"}, "id:i"},
		{Asset{Raw: `{"name":"x"}`}, `raw:{"name":"x"}`},
	}
	for _, c := range cases {
		if got := c.a.Key(); got != c.want {
			t.Fatalf("Key()=%q, want %q", got, c.want)
		}
	}

	// Whitespace differences in the source do not split the structural key.
	a, _ := DecodeConversation([]byte(`{"mapping":{"n":{"message":{"metadata":{"attachments":[{"name": "a.pdf"}]}}}}}`))
	b, _ := DecodeConversation([]byte(`{"mapping":{"n":{"message":{"metadata":{"attachments":[{ "name":"a.pdf" }]}}}}}`))
	ka := a.Nodes[0].Message.Attachments[0].Key()
	kb := b.Nodes[0].Message.Attachments[0].Key()
	if ka != kb {
		t.Fatalf("raw keys differ: %q vs %q", ka, kb)
	}
}

func collect(t *testing.T, input string, opts ReadOptions) ([]Conversation, ReadResult, error) {
	t.Helper()
	var got []Conversation
	res, err := ReadArchive(context.Background(), strings.NewReader(input), opts, func(c Conversation) error {
		got = append(got, c)
		return nil
	})
	return got, res, err
}

func TestReadArchive_TopLevelArray(t *testing.T) {
	t.Parallel()

	input := `[{"title":"a"},{"title":"b"},{"title":"c"}]`
	got, res, err := collect(t, input, ReadOptions{})
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if res.Conversations != 3 || len(got) != 3 {
		t.Fatalf("conversations=%d got=%d, want 3", res.Conversations, len(got))
	}
	if got[2].Title != "c" {
		t.Fatalf("order lost: %q", got[2].Title)
	}
	if res.Bytes != int64(len(input)) {
		t.Fatalf("Bytes=%d, want %d", res.Bytes, len(input))
	}
}

func TestReadArchive_ObjectWrapped(t *testing.T) {
	t.Parallel()

	input := `{"meta":{"v":[1,2]},"other":[{"title":"skip"}],"conversations":[{"title":"keep"}]}`

	got, _, err := collect(t, input, ReadOptions{ArrayField: "conversations"})
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if len(got) != 1 || got[0].Title != "keep" {
		t.Fatalf("got=%+v", got)
	}

	got, _, err = collect(t, input, ReadOptions{})
	if err != nil {
		t.Fatalf("ReadArchive first array: %v", err)
	}
	if len(got) != 1 || got[0].Title != "skip" {
		t.Fatalf("first array-valued field should win, got=%+v", got)
	}
}

func TestReadArchive_Invalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{
		``,
		`{not json`,
		`[{"title":"a"},`,
		`42`,
		`{"meta":1}`,
		`{"conversations":{"a":1}}`,
	} {
		opts := ReadOptions{}
		if strings.Contains(input, "conversations") {
			opts.ArrayField = "conversations"
		}
		_, _, err := collect(t, input, opts)
		if !errors.Is(err, ErrInvalidArchive) {
			t.Fatalf("input %q: err=%v, want ErrInvalidArchive", input, err)
		}
	}
}

func TestReadArchive_StopsOnCallbackErrorAndCancel(t *testing.T) {
	t.Parallel()

	stop := errors.New("stop")
	calls := 0
	_, err := ReadArchive(context.Background(), strings.NewReader(`[{},{},{}]`), ReadOptions{}, func(Conversation) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("err=%v calls=%d, want stop after 1", err, calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ReadArchive(ctx, strings.NewReader(`[{},{}]`), ReadOptions{}, func(Conversation) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v, want context.Canceled", err)
	}
	if errors.Is(err, ErrInvalidArchive) {
		t.Fatalf("cancellation must not look like a bad file")
	}
}
