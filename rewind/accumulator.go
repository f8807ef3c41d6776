package rewind

import (
	"strings"
	"unicode/utf8"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// counter is a string-keyed tally that remembers first-insertion order.
type counter = orderedmap.OrderedMap[string, int]

func newCounter() *counter {
	return orderedmap.New[string, int]()
}

func incr(c *counter, key string, by int) {
	v, _ := c.Get(key)
	c.Set(key, v+by)
}

type conversationTally struct {
	Title   string
	Prompts int
}

type monthTally struct {
	prompts int
	hours   [24]int
	topics  *counter
}

// accumulator holds all mutable state of one aggregation run.
type accumulator struct {
	window Window

	prompts    int
	words      int
	characters int

	byWeekday [7]int
	byHour    [24]int
	byDate    *counter
	byMonth   *orderedmap.OrderedMap[string, *monthTally]
	// breakdown maps date -> conversation title -> prompts that day.
	breakdown *orderedmap.OrderedMap[string, *counter]

	conversations []conversationTally
	topics        *counter

	// seen numbers conversations so voice membership does not depend on export ids.
	seen               int
	voiceMessages      int
	voiceConversations map[int]struct{}
	imageKeys          map[string]struct{}
	fileKeys           map[string]struct{}
}

func newAccumulator(w Window) *accumulator {
	return &accumulator{
		window:             w,
		byDate:             newCounter(),
		byMonth:            orderedmap.New[string, *monthTally](),
		breakdown:          orderedmap.New[string, *counter](),
		topics:             newCounter(),
		voiceConversations: make(map[int]struct{}),
		imageKeys:          make(map[string]struct{}),
		fileKeys:           make(map[string]struct{}),
	}
}

// addConversation folds one conversation into the run. Topics are extracted only when the
// conversation produced at least one eligible prompt.
func (a *accumulator) addConversation(conv Conversation) {
	seq := a.seen
	a.seen++

	title := conv.DisplayTitle()
	prompts := 0
	var months []string

	for _, n := range conv.Nodes {
		m := n.Message
		if m == nil {
			continue
		}
		ms, ok := a.window.Normalize(m.CreateTime)
		if !ok {
			continue
		}

		switch m.Role {
		case RoleUser:
			if m.Hidden {
				continue
			}
			prompts++
			month := a.addPrompt(*m, stampOf(ms), title)
			if !containsString(months, month) {
				months = append(months, month)
			}
			if IsVoice(*m) {
				a.voiceMessages++
				a.voiceConversations[seq] = struct{}{}
			}
			for _, k := range fileUploadKeys(*m) {
				a.fileKeys[k] = struct{}{}
			}
		case RoleAssistant, RoleTool:
			for _, img := range imageCandidates(*m) {
				a.imageKeys[img.Key()] = struct{}{}
			}
		}
	}

	if prompts == 0 {
		return
	}
	a.conversations = append(a.conversations, conversationTally{Title: title, Prompts: prompts})

	for _, topic := range ExtractTopics(conv.Title) {
		incr(a.topics, topic, 1)
		for _, month := range months {
			mt, _ := a.byMonth.Get(month)
			incr(mt.topics, topic, 1)
		}
	}
}

// addPrompt records one eligible user prompt and returns its month key.
func (a *accumulator) addPrompt(m Message, st stamp, title string) string {
	a.prompts++
	if text := PromptText(m); text != "" {
		a.words += len(strings.Fields(text))
		a.characters += utf8.RuneCountInString(text)
	}

	a.byWeekday[st.Weekday]++
	a.byHour[st.Hour]++
	incr(a.byDate, st.Date, 1)

	perTitle, ok := a.breakdown.Get(st.Date)
	if !ok {
		perTitle = newCounter()
		a.breakdown.Set(st.Date, perTitle)
	}
	incr(perTitle, title, 1)

	mt, ok := a.byMonth.Get(st.Month)
	if !ok {
		mt = &monthTally{topics: newCounter()}
		a.byMonth.Set(st.Month, mt)
	}
	mt.prompts++
	mt.hours[st.Hour]++
	return st.Month
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
