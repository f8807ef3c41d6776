package rewind

import "strings"

// minTopicLen is the shortest token kept as a topic, exclusive.
const minTopicLen = 3

// stopWords are conversational filler and meta-terms that say nothing about what a thread is about.
var stopWords = toSet(
	"the", "and", "for", "with", "that", "this", "from", "your", "have", "are",
	"was", "can", "you", "not", "but", "what", "all", "were", "when", "how",
	"one", "will", "chatgpt", "openai", "please", "thanks", "hello", "about",
	"into", "user", "assistant", "there", "their", "which", "would", "they",
	"more", "some", "other", "using", "been", "also", "than", "should", "only",
	"write", "create", "make", "build", "generate", "explain", "help", "show",
	"give", "find", "list", "need", "want", "check", "update", "change", "add",
	"remove", "fix", "edit", "convert", "turn", "getting", "started", "working",
	"setting", "setup", "writing", "making", "doing", "optimize",
	"improve", "review", "analyze", "format", "debug", "refactor", "best",
	"better", "good", "bad", "simple", "complex", "basic", "advanced",
	"guide", "tutorial", "overview", "summary", "explanation", "example",
	"examples", "introduction", "conclusion", "intro", "part", "code",
	"snippet", "script", "file", "files", "issue", "issues", "error",
	"errors", "warning", "warnings", "solution", "solutions", "answer",
	"answers", "question", "questions", "response", "request", "difference",
	"comparison", "versus", "between", "documentation", "docs", "practice",
	"practices", "step", "steps", "sure", "certainly", "here", "sorry",
	"assistance", "assist", "support", "visualize", "visualization", "design",
	"redesign", "mode", "model", "conversation", "chat", "session", "expert",
	"implementation", "analysis", "learning", "explained",
)

// ExtractTopics tokenizes a conversation title into topic keys. Repeated words are returned once
// per occurrence.
func ExtractTopics(title string) []string {
	var out []string
	for _, word := range strings.Fields(strings.ToLower(title)) {
		clean := keepAlnum(word)
		if len(clean) <= minTopicLen {
			continue
		}
		if _, ok := stopWords[clean]; ok {
			continue
		}
		out = append(out, clean)
	}
	return out
}

func keepAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func toSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}
