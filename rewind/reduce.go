package rewind

import (
	"math"
	"sort"
)

const (
	notAvailable = "N/A"

	topConversationsLimit = 5
	topTopicsLimit        = 20
	busiestDateTitles     = 3
	streakDays            = 30

	// nightHours counts prompts sent between 00:00 and 04:59 UTC.
	nightHours = 5
	// nightWeight scales night prompts so a third of all prompts at night maxes the index.
	nightWeight = 3

	consistencyCeiling  = 300
	productivityCeiling = 4000
	curiosityCeiling    = 150
)

type sizeRange struct {
	label    string
	min, max int // max < 0 means unbounded
}

var sizeRanges = []sizeRange{
	{"1-5", 1, 5},
	{"6-10", 6, 10},
	{"11-20", 11, 20},
	{"21-50", 21, 50},
	{"50+", 51, -1},
}

func (r sizeRange) contains(n int) bool {
	return n >= r.min && (r.max < 0 || n <= r.max)
}

// reduce derives the final report. It never fails; an empty run yields zero values.
func (a *accumulator) reduce() Stats {
	activeDays := a.byDate.Len()

	s := Stats{
		TotalPrompts:       a.prompts,
		TotalWords:         a.words,
		TotalCharacters:    a.characters,
		ActiveDays:         activeDays,
		TotalConversations: len(a.conversations),
		AvgPromptsPerDay:   roundDiv(a.prompts, activeDays),
		AvgMessageLength:   roundDiv(a.words, a.prompts),
		AvgCharLength:      roundDiv(a.characters, a.prompts),

		VoiceConversations: len(a.voiceConversations),
		ImageGenerations:   len(a.imageKeys),
		FileUploads:        len(a.fileKeys),
	}

	s.ActivityByDay = make([]DayCount, len(weekdayLabels))
	for i, label := range weekdayLabels {
		s.ActivityByDay[i] = DayCount{Day: label, Count: a.byWeekday[i]}
	}
	s.ActivityByHour = make([]HourCount, len(hourLabels))
	for i, label := range hourLabels {
		s.ActivityByHour[i] = HourCount{Hour: label, Count: a.byHour[i]}
	}
	s.BusiestDayOfWeek = argmax(weekdayLabels[:], a.byWeekday[:])
	s.BusiestHour = argmax(hourLabels[:], a.byHour[:])
	s.BusiestDateOfTheYear = a.busiestDate()

	s.TopConversations = a.topConversations()
	s.ConversationSizes = a.conversationSizes()

	s.HeatmapData = make([]DateCount, 0, activeDays)
	for p := a.byDate.Oldest(); p != nil; p = p.Next() {
		s.HeatmapData = append(s.HeatmapData, DateCount{Date: p.Key, Count: p.Value})
	}
	s.StreakData = streak(s.HeatmapData, streakDays)

	s.TopTopics = topTopics(a.topics, topTopicsLimit)

	s.MultimodalUsage = []NamedValue{
		{Name: "Voice", Value: s.VoiceConversations},
		{Name: "Images", Value: s.ImageGenerations},
		{Name: "Files", Value: s.FileUploads},
	}

	night := 0
	for h := 0; h < nightHours; h++ {
		night += a.byHour[h]
	}
	s.NightOwlIndex = normalize100(night*nightWeight, max(a.prompts, 1))
	s.ConsistencyScore = normalize100(activeDays, consistencyCeiling)
	s.ProductivityScore = normalize100(a.prompts+len(a.conversations)*2, productivityCeiling)
	s.CuriosityScore = normalize100(a.topics.Len(), curiosityCeiling)

	s.MonthlyTopics = a.monthlyTopics()
	return s
}

// argmax walks labels left to right and only moves on a strictly greater count, so ties keep the
// earliest label. All-zero counts yield "N/A".
func argmax(labels []string, counts []int) string {
	best, bestCount := notAvailable, 0
	for i, c := range counts {
		if c > bestCount {
			best, bestCount = labels[i], c
		}
	}
	return best
}

func (a *accumulator) busiestDate() BusiestDate {
	out := BusiestDate{Date: notAvailable, Conversations: []TitleCount{}}
	for p := a.byDate.Oldest(); p != nil; p = p.Next() {
		if p.Value > out.Count {
			out.Date, out.Count = p.Key, p.Value
		}
	}
	perTitle, ok := a.breakdown.Get(out.Date)
	if !ok {
		return out
	}
	for p := perTitle.Oldest(); p != nil; p = p.Next() {
		out.Conversations = append(out.Conversations, TitleCount{Title: p.Key, Count: p.Value})
	}
	sort.SliceStable(out.Conversations, func(i, j int) bool {
		return out.Conversations[i].Count > out.Conversations[j].Count
	})
	if len(out.Conversations) > busiestDateTitles {
		out.Conversations = out.Conversations[:busiestDateTitles]
	}
	return out
}

func (a *accumulator) topConversations() []ConversationCount {
	out := make([]ConversationCount, 0, len(a.conversations))
	for _, c := range a.conversations {
		out = append(out, ConversationCount{Title: c.Title, MessageCount: c.Prompts})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MessageCount > out[j].MessageCount
	})
	if len(out) > topConversationsLimit {
		out = out[:topConversationsLimit]
	}
	return out
}

func (a *accumulator) conversationSizes() []SizeBucket {
	out := make([]SizeBucket, len(sizeRanges))
	for i, r := range sizeRanges {
		out[i].Range = r.label
	}
	for _, c := range a.conversations {
		for i, r := range sizeRanges {
			if r.contains(c.Prompts) {
				out[i].Count++
				break
			}
		}
	}
	return out
}

// streak returns the last n dates in lexicographic (= chronological) order.
func streak(heatmap []DateCount, n int) []DateCount {
	sorted := append([]DateCount(nil), heatmap...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })
	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	if sorted == nil {
		sorted = []DateCount{}
	}
	return sorted
}

func topTopics(topics *counter, limit int) []TopicCount {
	out := make([]TopicCount, 0, topics.Len())
	for p := topics.Oldest(); p != nil; p = p.Next() {
		out = append(out, TopicCount{Topic: p.Key, Count: p.Value})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (a *accumulator) monthlyTopics() []MonthlyTopic {
	out := make([]MonthlyTopic, 0, a.byMonth.Len())
	for p := a.byMonth.Oldest(); p != nil; p = p.Next() {
		mt := p.Value
		top := notAvailable
		if ranked := topTopics(mt.topics, 1); len(ranked) > 0 {
			top = ranked[0].Topic
		}
		out = append(out, MonthlyTopic{
			Month:       p.Key,
			TopTopic:    top,
			BusiestHour: argmax(hourLabels[:], mt.hours[:]),
			Prompts:     mt.prompts,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func roundDiv(num, den int) int {
	if den == 0 {
		return 0
	}
	return int(math.Round(float64(num) / float64(den)))
}

// normalize100 maps value onto 0..100 relative to ceiling, clamped at 100.
func normalize100(value, ceiling int) int {
	if ceiling <= 0 || value <= 0 {
		return 0
	}
	return min(100, int(math.Round(float64(value)/float64(ceiling)*100)))
}
