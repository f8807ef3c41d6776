package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/theimaginaryfoundation/rewind-o-bot/rewind"
	"github.com/theimaginaryfoundation/rewind-o-bot/rewind/fileutils"
	"github.com/theimaginaryfoundation/rewind-o-bot/rewind/logging"
	"github.com/theimaginaryfoundation/rewind-o-bot/rewind/provider"
)

const maxSlides = 10

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "missing OPENAI_API_KEY (or pass -api-key)")
		os.Exit(2)
	}

	header := defaultNarratorPromptHeader
	if cfg.PromptFile != "" {
		h, err := loadPromptHeaderFromFile(cfg.PromptFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(2)
		}
		header = h
	}

	logger, closeLog := logging.Setup(cfg.LogFile, level)
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := openai.NewClient(option.WithAPIKey(apiKey))
	n := openAINarrator{
		client:          &client,
		model:           cfg.Model,
		instructions:    composeInstructions(header),
		maxOutputTokens: cfg.MaxOutputTokens,
	}

	doc, err := run(ctx, cfg, n, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		stop()
		_ = closeLog()
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "slides=%d model=%s out=%s\n", len(doc.Narrative.Slides), doc.Model, cfg.OutPath)
}

// Narrative is the model-written recap.
type Narrative struct {
	Headline string           `json:"headline"`
	Persona  string           `json:"persona"`
	Slides   []NarrativeSlide `json:"slides"`
	Closing  string           `json:"closing"`
}

type NarrativeSlide struct {
	Title   string `json:"title"`
	Caption string `json:"caption"`
}

// narrativeFile is what lands on disk.
type narrativeFile struct {
	Year      int       `json:"year"`
	Model     string    `json:"model"`
	Narrative Narrative `json:"narrative"`
}

type narrator interface {
	Narrate(ctx context.Context, digest string) (Narrative, error)
}

func run(ctx context.Context, cfg Config, n narrator, logger *slog.Logger) (narrativeFile, error) {
	if !cfg.Overwrite && fileutils.FileExists(cfg.OutPath) {
		return narrativeFile{}, fmt.Errorf("run: output exists (use -overwrite): %s", cfg.OutPath)
	}

	stats, err := readStats(cfg.InPath)
	if err != nil {
		return narrativeFile{}, err
	}

	digest, err := buildDigest(stats, cfg.Year, cfg.MaxInputChars)
	if err != nil {
		return narrativeFile{}, err
	}
	logger.Debug("narrating", "in", cfg.InPath, "digest_chars", len(digest), "model", cfg.Model)

	out, err := n.Narrate(ctx, digest)
	if err != nil {
		return narrativeFile{}, fmt.Errorf("run: narrate: %w", err)
	}
	out = cleanNarrative(out)
	if len(out.Slides) == 0 {
		return narrativeFile{}, errors.New("run: model returned no slides")
	}

	doc := narrativeFile{Year: cfg.Year, Model: cfg.Model, Narrative: out}
	if err := fileutils.WriteJSONFileAtomic(cfg.OutPath, doc, cfg.Pretty); err != nil {
		return narrativeFile{}, fmt.Errorf("run: %w", err)
	}
	logger.Info("narrative written", "out", cfg.OutPath, "slides", len(out.Slides))
	return doc, nil
}

func readStats(path string) (rewind.Stats, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return rewind.Stats{}, fmt.Errorf("readStats: %w", err)
	}
	var s rewind.Stats
	if err := json.Unmarshal(b, &s); err != nil {
		return rewind.Stats{}, fmt.Errorf("readStats: decode %s: %w", path, err)
	}
	return s, nil
}

// statsDigest drops the per-day series; the model only needs the headline numbers.
type statsDigest struct {
	Year    int          `json:"year"`
	Persona string       `json:"hourPersona"`
	Stats   rewind.Stats `json:"stats"`
}

func buildDigest(s rewind.Stats, year, maxChars int) (string, error) {
	s.HeatmapData = nil
	s.StreakData = nil
	b, err := json.Marshal(statsDigest{
		Year:    year,
		Persona: strings.TrimSuffix(rewind.HourPersona(s.BusiestHour), "."),
		Stats:   s,
	})
	if err != nil {
		return "", fmt.Errorf("buildDigest: %w", err)
	}
	if maxChars > 0 {
		return fileutils.Truncate(string(b), maxChars), nil
	}
	return string(b), nil
}

func cleanNarrative(n Narrative) Narrative {
	n.Headline = strings.TrimSpace(n.Headline)
	n.Persona = strings.TrimSpace(n.Persona)
	n.Closing = strings.TrimSpace(n.Closing)
	slides := make([]NarrativeSlide, 0, len(n.Slides))
	for _, s := range n.Slides {
		s.Title = strings.TrimSpace(s.Title)
		s.Caption = strings.TrimSpace(s.Caption)
		if s.Title == "" && s.Caption == "" {
			continue
		}
		slides = append(slides, s)
		if len(slides) == maxSlides {
			break
		}
	}
	n.Slides = slides
	return n
}

type openAINarrator struct {
	client          *openai.Client
	model           string
	instructions    string
	maxOutputTokens int
}

var narrativeSchema = provider.GenerateSchema[Narrative]()

func (o openAINarrator) Narrate(ctx context.Context, digest string) (Narrative, error) {
	if o.client == nil {
		return Narrative{}, errors.New("openAINarrator: client is nil")
	}
	if o.model == "" {
		return Narrative{}, errors.New("openAINarrator: model is empty")
	}

	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "RewindNarrative",
			Schema:      narrativeSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Rewind narrative JSON"),
			Type:        "json_schema",
		},
	}

	params := responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(int64(o.maxOutputTokens)),
		Instructions:    openai.String(o.instructions),
		ServiceTier:     responses.ResponseNewParamsServiceTierFlex,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(digest, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := provider.CallWithRetry(ctx, o.client, params)
	if err != nil {
		return Narrative{}, err
	}

	var out Narrative
	if err := fileutils.DecodeModelJSON(resp.OutputText(), &out); err != nil {
		return Narrative{}, fmt.Errorf("unmarshal narrative: %w", err)
	}
	return out, nil
}

func loadPromptHeaderFromFile(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("prompt-file is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt-file: %w", err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", errors.New("prompt-file is empty after trimming whitespace")
	}
	return s, nil
}

func composeInstructions(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		header = strings.TrimSpace(defaultNarratorPromptHeader)
	}
	return header + "\n\n" + strings.TrimSpace(narratorPromptRequiredTail)
}
