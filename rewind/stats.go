package rewind

// Stats is the aggregate report for one archive and one calendar year. It is built once per run
// and holds no references into the input.
type Stats struct {
	TotalPrompts       int `json:"totalPrompts"`
	TotalWords         int `json:"totalWords"`
	TotalCharacters    int `json:"totalCharacters"`
	ActiveDays         int `json:"activeDays"`
	TotalConversations int `json:"totalConversations"`
	AvgPromptsPerDay   int `json:"avgPromptsPerDay"`
	AvgMessageLength   int `json:"avgMessageLength"`
	AvgCharLength      int `json:"avgCharLength"`

	ActivityByDay  []DayCount  `json:"activityByDay"`
	ActivityByHour []HourCount `json:"activityByHour"`

	BusiestDayOfWeek     string      `json:"busiestDayOfWeek"`
	BusiestHour          string      `json:"busiestHour"`
	BusiestDateOfTheYear BusiestDate `json:"busiestDateOfTheYear"`

	TopConversations  []ConversationCount `json:"topConversations"`
	ConversationSizes []SizeBucket        `json:"conversationSizes"`

	StreakData  []DateCount  `json:"streakData"`
	HeatmapData []DateCount  `json:"heatmapData"`
	TopTopics   []TopicCount `json:"topTopics"`

	VoiceConversations int          `json:"voiceConversations"`
	ImageGenerations   int          `json:"imageGenerations"`
	FileUploads        int          `json:"fileUploads"`
	MultimodalUsage    []NamedValue `json:"multimodalUsage"`

	NightOwlIndex     int `json:"nightOwlIndex" jsonschema:"minimum=0,maximum=100"`
	ConsistencyScore  int `json:"consistencyScore" jsonschema:"minimum=0,maximum=100"`
	ProductivityScore int `json:"productivityScore" jsonschema:"minimum=0,maximum=100"`
	CuriosityScore    int `json:"curiosityScore" jsonschema:"minimum=0,maximum=100"`

	MonthlyTopics []MonthlyTopic `json:"monthlyTopics"`
}

// DayCount is prompts per weekday (Sun..Sat).
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// HourCount is prompts per UTC hour bucket (00:00..23:00).
type HourCount struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// DateCount is prompts on one UTC calendar date (YYYY-MM-DD).
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// BusiestDate is the single date with the most prompts, with its top conversations.
type BusiestDate struct {
	Date          string       `json:"date"`
	Count         int          `json:"count"`
	Conversations []TitleCount `json:"conversations"`
}

// TitleCount is one conversation's prompt count on a given date.
type TitleCount struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

// ConversationCount is one conversation's prompt count over the whole year.
type ConversationCount struct {
	Title        string `json:"title"`
	MessageCount int    `json:"messageCount"`
}

// SizeBucket counts conversations whose prompt count falls in Range.
type SizeBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// TopicCount is how many eligible conversation titles contained Topic.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// NamedValue is one slice of the multimodal usage chart.
type NamedValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// MonthlyTopic summarizes one active month.
type MonthlyTopic struct {
	Month       string `json:"month"`
	TopTopic    string `json:"topTopic"`
	BusiestHour string `json:"busiestHour"`
	Prompts     int    `json:"prompts"`
}
