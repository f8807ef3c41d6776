package rewind

import (
	"math"
	"testing"
	"time"
)

func ts(t time.Time) *float64 {
	v := float64(t.Unix())
	return &v
}

func TestWindowNormalize(t *testing.T) {
	t.Parallel()

	w := YearWindow(2025)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)

	if _, ok := w.Normalize(nil); ok {
		t.Fatalf("nil create_time should not be eligible")
	}
	nan := math.NaN()
	if _, ok := w.Normalize(&nan); ok {
		t.Fatalf("NaN create_time should not be eligible")
	}

	ms, ok := w.Normalize(ts(start))
	if !ok || ms != start.UnixMilli() {
		t.Fatalf("start: ms=%d ok=%v", ms, ok)
	}
	if _, ok := w.Normalize(ts(end)); !ok {
		t.Fatalf("end of window should be inclusive")
	}
	if _, ok := w.Normalize(ts(start.Add(-time.Second))); ok {
		t.Fatalf("one second before the window was accepted")
	}
	if _, ok := w.Normalize(ts(end.Add(time.Second))); ok {
		t.Fatalf("one second after the window was accepted")
	}
	half := float64(end.Unix()) + 0.5
	if _, ok := w.Normalize(&half); ok {
		t.Fatalf("23:59:59.500 is past the inclusive end at millisecond precision")
	}
}

// Exports use epoch seconds; magnitudes above 1e12 are assumed to already be milliseconds.
// This is an observed heuristic, not a documented export contract.
func TestWindowNormalize_MillisecondHeuristic(t *testing.T) {
	t.Parallel()

	w := YearWindow(2025)
	when := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	asMillis := float64(when.UnixMilli())

	ms, ok := w.Normalize(&asMillis)
	if !ok || ms != when.UnixMilli() {
		t.Fatalf("millisecond input: ms=%d ok=%v", ms, ok)
	}
	secMs, ok := w.Normalize(ts(when))
	if !ok || secMs != ms {
		t.Fatalf("second and millisecond inputs disagree: %d vs %d", secMs, ms)
	}
}

func TestStampOf(t *testing.T) {
	t.Parallel()

	st := stampOf(time.Date(2025, 6, 15, 23, 30, 0, 0, time.UTC).UnixMilli())
	if st.Date != "2025-06-15" || st.Month != "2025-06" || st.Weekday != 0 || st.Hour != 23 {
		t.Fatalf("stamp=%+v", st)
	}
	if hourLabels[7] != "07:00" || weekdayLabels[6] != "Sat" {
		t.Fatalf("labels: %q %q", hourLabels[7], weekdayLabels[6])
	}
}

func TestIsImage(t *testing.T) {
	t.Parallel()

	yes := []Asset{
		{Object: true, ContentType: "image_asset"},
		{Object: true, ContentType: "image_url"},
		{Object: true, Type: "image"},
		{Object: true, AssetPointer: "file-service://file-1"},
		{Object: true, AssetPointer: "sediment://file_2"},
		{Object: true, MimeType: "image/webp"},
		{Object: true, URL: "blob:https://chat/abc"},
		{Object: true, URL: "https://files.oaiusercontent.com/file-x?sig=1"},
		{Object: true, URL: "https://cdn.example.com/pic.JPEG"},
	}
	for _, a := range yes {
		if !IsImage(a) {
			t.Fatalf("IsImage(%+v)=false, want true", a)
		}
	}

	no := []Asset{
		{},
		{Object: false, URL: "https://x/y.png"},
		{Object: true, ContentType: "text"},
		{Object: true, AssetPointer: "https://x/y"},
		{Object: true, MimeType: "application/pdf"},
		{Object: true, URL: "https://example.com/report.pdf"},
	}
	for _, a := range no {
		if IsImage(a) {
			t.Fatalf("IsImage(%+v)=true, want false", a)
		}
	}
}

func TestIsVoice(t *testing.T) {
	t.Parallel()

	yes := []Message{
		{ContentType: "audio_transcription"},
		{ContentType: "input_text_with_audio"},
		{VoiceMessage: true},
		{VoiceModeMessage: true},
		{Modalities: []string{"text", "audio"}},
		{Parts: []Part{{IsText: true, Text: "x"}, {Asset: &Asset{Object: true, HasAudio: true}}}},
	}
	for i, m := range yes {
		if !IsVoice(m) {
			t.Fatalf("case %d: IsVoice=false, want true", i)
		}
	}
	if IsVoice(Message{ContentType: "text", Modalities: []string{"text"}}) {
		t.Fatalf("plain text message classified as voice")
	}
}

func TestPromptText(t *testing.T) {
	t.Parallel()

	m := Message{Parts: []Part{
		{IsText: true, Text: "  hello"},
		{Asset: &Asset{Object: true}},
		{IsText: true, Text: "world  "},
	}}
	if got := PromptText(m); got != "hello  world" {
		t.Fatalf("PromptText=%q", got)
	}
	if got := PromptText(Message{}); got != "" {
		t.Fatalf("PromptText(empty)=%q", got)
	}
}

func TestFileUploadKeys(t *testing.T) {
	t.Parallel()

	withAttachments := Message{
		Attachments: []Asset{{Object: true, ID: "file-1"}, {Object: true, Name: "a.pdf", Raw: `{"name":"a.pdf"}`}},
		Parts:       []Part{{IsText: true, Text: "see https://files.oaiusercontent.com/file-9"}},
	}
	keys := fileUploadKeys(withAttachments)
	if len(keys) != 2 || keys[0] != "id:file-1" || keys[1] != `raw:{"name":"a.pdf"}` {
		t.Fatalf("keys=%v", keys)
	}

	linkOnly := Message{Parts: []Part{
		{IsText: true, Text: "no links here"},
		{IsText: true, Text: "first file-service://file-a then file-service://file-b"},
	}}
	keys = fileUploadKeys(linkOnly)
	if len(keys) != 1 || keys[0] != "link:file-service://file-a" {
		t.Fatalf("keys=%v", keys)
	}

	if keys := fileUploadKeys(Message{Parts: []Part{{IsText: true, Text: "hello"}}}); len(keys) != 0 {
		t.Fatalf("keys=%v, want none", keys)
	}
}

func TestImageCandidates(t *testing.T) {
	t.Parallel()

	m := Message{
		ContentType: "multimodal_text",
		Parts: []Part{
			{Asset: &Asset{Object: true, ContentType: "image_asset_pointer", AssetPointer: "file-service://a"}},
			{Asset: &Asset{Object: true, ContentType: "tether_browsing_display", Results: []Asset{
				{Object: true, URL: "https://example.com/b.png"},
				{Object: true, URL: "https://example.com/page.html"},
			}}},
		},
		Images:      []Asset{{Object: true, MimeType: "image/png", ID: "c"}},
		Attachments: []Asset{{Object: true, MimeType: "text/plain", ID: "d"}},
	}
	got := imageCandidates(m)
	if len(got) != 3 {
		t.Fatalf("candidates=%d, want 3 (%+v)", len(got), got)
	}

	// The content object itself only counts when nothing more specific matched or it has a locator.
	bare := Message{ContentType: "image_asset", Content: Asset{Object: true, ContentType: "image_asset", Raw: `{"content_type":"image_asset"}`}}
	if got := imageCandidates(bare); len(got) != 1 {
		t.Fatalf("bare image content: candidates=%d, want 1", len(got))
	}
	withPart := Message{
		ContentType: "image_asset",
		Content:     Asset{Object: true, ContentType: "image_asset"},
		Parts:       []Part{{Asset: &Asset{Object: true, AssetPointer: "sediment://z"}}},
	}
	if got := imageCandidates(withPart); len(got) != 1 {
		t.Fatalf("content without locator double counted: %d", len(got))
	}
}

func TestExtractTopics(t *testing.T) {
	t.Parallel()

	got := ExtractTopics("How to Debug Kubernetes: Pod CrashLoop (k8s) with the NEW kubernetes-cli")
	want := []string{"kubernetes", "crashloop", "kubernetescli"}
	if len(got) != len(want) {
		t.Fatalf("topics=%v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("topics=%v, want %v", got, want)
		}
	}

	if got := ExtractTopics("   "); len(got) != 0 {
		t.Fatalf("blank title topics=%v", got)
	}
	if got := ExtractTopics("Café résumé"); len(got) != 1 || got[0] != "rsum" {
		t.Fatalf("non-ascii letters should be stripped, got %v", got)
	}
	if got := ExtractTopics("golang golang"); len(got) != 2 {
		t.Fatalf("repeated words count per occurrence, got %v", got)
	}
}
