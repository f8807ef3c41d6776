package rewind

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theimaginaryfoundation/rewind-o-bot/rewind/fileutils"
)

// StoryOptions controls RenderStory.
type StoryOptions struct {
	// Year is printed in the title. Zero means DefaultYear.
	Year int

	// IncludeCharts adds the weekday/hour tables after the summary slide.
	IncludeCharts bool
}

// Slide is one card of the wrapped story.
type Slide struct {
	Anchor string
	Title  string
	Body   string
}

// StorySlides builds the wrapped card sequence from a report, in presentation order.
func StorySlides(s Stats, year int) []Slide {
	if year == 0 {
		year = DefaultYear
	}
	busiestDayCount := 0
	for _, d := range s.ActivityByDay {
		if d.Day == s.BusiestDayOfWeek {
			busiestDayCount = d.Count
		}
	}

	slides := []Slide{
		{"welcome", fmt.Sprintf("Your %d Rewind", year), "A look back at a year of prompts."},
		{"total-prompts", "Total prompts", fmt.Sprintf("You sent **%s** prompts. That's about **%s** prompts per day!",
			groupDigits(s.TotalPrompts), groupDigits(s.AvgPromptsPerDay))},
		{"active-days", "Active days", fmt.Sprintf("You showed up on **%d** days this year.", s.ActiveDays)},
		{"conversations", "Conversations", conversationsBody(s)},
		{"busiest-hour", "Busiest hour", fmt.Sprintf("Most of your prompts landed at **%s**. %s", s.BusiestHour, HourPersona(s.BusiestHour))},
		{"words", "Words", fmt.Sprintf("You typed **%s** words across **%s** characters, about %d words per prompt.",
			groupDigits(s.TotalWords), groupDigits(s.TotalCharacters), s.AvgMessageLength)},
		{"busiest-date", "Busiest date", busiestDateBody(s.BusiestDateOfTheYear)},
		{"productive-day", "Most productive day", fmt.Sprintf("**%s** was your day, with %s prompts.", s.BusiestDayOfWeek, groupDigits(busiestDayCount))},
		{"topics", "Topics", topicsBody(s.TopTopics)},
		{"summary", "Summary", summaryBody(s)},
	}
	for i := range slides {
		slides[i].Anchor = "slide-" + sanitizeAnchor(slides[i].Anchor)
	}
	return slides
}

// RenderStory renders the wrapped story as a single markdown document.
func RenderStory(s Stats, opts StoryOptions) string {
	var b strings.Builder
	for i, slide := range StorySlides(s, opts.Year) {
		fmt.Fprintf(&b, "<a id=\"%s\"></a>\n", slide.Anchor)
		if i == 0 {
			fmt.Fprintf(&b, "# %s\n\n", escapeMarkdownInline(slide.Title))
		} else {
			fmt.Fprintf(&b, "## %s\n\n", escapeMarkdownInline(slide.Title))
		}
		b.WriteString(strings.TrimSpace(slide.Body))
		b.WriteString("\n\n---\n\n")
	}
	if opts.IncludeCharts {
		b.WriteString("## Activity by weekday\n\n| day | prompts |\n|---|---|\n")
		for _, d := range s.ActivityByDay {
			fmt.Fprintf(&b, "| %s | %d |\n", d.Day, d.Count)
		}
		b.WriteString("\n## Activity by hour (UTC)\n\n| hour | prompts |\n|---|---|\n")
		for _, h := range s.ActivityByHour {
			fmt.Fprintf(&b, "| %s | %d |\n", h.Hour, h.Count)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// WriteStory renders the story and writes it atomically to path.
func WriteStory(path string, s Stats, opts StoryOptions, overwrite bool) error {
	if path == "" {
		return errors.New("WriteStory: path is empty")
	}
	if !overwrite && fileutils.FileExists(path) {
		return fmt.Errorf("WriteStory: file exists: %s", path)
	}
	if err := fileutils.WriteFileAtomicSameDir(path, []byte(RenderStory(s, opts)), 0o644); err != nil {
		return fmt.Errorf("WriteStory: write: %w", err)
	}
	return nil
}

// HourPersona names the time-of-day persona for an "HH:00" bucket.
func HourPersona(hour string) string {
	h, err := strconv.Atoi(strings.TrimSuffix(hour, ":00"))
	if err != nil {
		return ""
	}
	switch {
	case h < 3:
		return "The Night Owl."
	case h < 6:
		return "The Dawn Starter."
	case h < 9:
		return "Morning Momentum."
	case h < 12:
		return "The Morning Peak Hours."
	case h < 15:
		return "The Afternoon Grind."
	case h < 18:
		return "The Golden Hour."
	case h < 21:
		return "The Evening Chill."
	default:
		return "The Late Night Spark."
	}
}

func conversationsBody(s Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You started **%s** conversations.\n", groupDigits(s.TotalConversations))
	for i, c := range s.TopConversations {
		fmt.Fprintf(&b, "\n%d. %s (%d prompts)", i+1, escapeMarkdownInline(c.Title), c.MessageCount)
	}
	return b.String()
}

func busiestDateBody(d BusiestDate) string {
	if d.Count == 0 {
		return "No busiest date yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** was your busiest date with %d prompts.\n", d.Date, d.Count)
	for _, c := range d.Conversations {
		fmt.Fprintf(&b, "\n- %s: %d", escapeMarkdownInline(c.Title), c.Count)
	}
	return b.String()
}

func topicsBody(topics []TopicCount) string {
	if len(topics) == 0 {
		return "No recurring topics."
	}
	words := make([]string, 0, len(topics))
	for _, t := range topics {
		words = append(words, fmt.Sprintf("%s (%d)", t.Topic, t.Count))
	}
	return strings.Join(words, ", ")
}

func summaryBody(s Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- prompts: %s\n", groupDigits(s.TotalPrompts))
	fmt.Fprintf(&b, "- words: %.1fk\n", float64(s.TotalWords)/1000)
	fmt.Fprintf(&b, "- active days: %d\n", s.ActiveDays)
	fmt.Fprintf(&b, "- busiest hour: %s\n", s.BusiestHour)
	fmt.Fprintf(&b, "- busiest day: %s\n", s.BusiestDayOfWeek)
	if len(s.TopConversations) > 0 {
		fmt.Fprintf(&b, "- top conversation: %s\n", escapeMarkdownInline(s.TopConversations[0].Title))
	}
	for _, m := range s.MultimodalUsage {
		fmt.Fprintf(&b, "- %s: %d\n", strings.ToLower(m.Name), m.Value)
	}
	fmt.Fprintf(&b, "- night owl %d / consistency %d / productivity %d / curiosity %d",
		s.NightOwlIndex, s.ConsistencyScore, s.ProductivityScore, s.CuriosityScore)
	return b.String()
}

// groupDigits formats n with thousands separators.
func groupDigits(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func sanitizeAnchor(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "slide"
	}
	var out strings.Builder
	out.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			out.WriteRune(r)
		} else {
			out.WriteByte('-')
		}
	}
	return strings.Trim(out.String(), "-")
}

func escapeMarkdownInline(s string) string {
	// Minimal: avoid accidental code fences/headers in titles.
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}
