package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"ai-review-be/internal/config"
	"ai-review-be/internal/pkg/logger"
	"ai-review-be/pkg/backend"
	"ai-review-be/pkg/interview/composer"
	"ai-review-be/pkg/interview/engine"
	"ai-review-be/pkg/interview/gate"
	"ai-review-be/pkg/interview/lexicon"
	"ai-review-be/pkg/interview/planner"
	"ai-review-be/pkg/interview/responder"
	"ai-review-be/pkg/llm"
	"ai-review-be/pkg/llm/factory"
	"ai-review-be/pkg/store"

	"github.com/fatih/color"
)

// printSubmitter shows the payload that would be posted instead of calling
// the commerce backend.
type printSubmitter struct{}

func (printSubmitter) Submit(_ context.Context, c *store.InterviewContext, attachments []string) error {
	b, err := json.MarshalIndent(backend.BuildSubmission(c, attachments), "", "  ")
	if err != nil {
		return err
	}
	color.New(color.FgMagenta).Println("[SUBMIT]")
	fmt.Println(string(b))
	return nil
}

func main() {
	item := flag.String("item", "무선 이어폰", "product name")
	category := flag.String("category", "electronics", "product category")
	offline := flag.Bool("offline", false, "run without an LLM (heuristics and templates only)")
	flag.Parse()

	cfg := config.Load()
	log := logger.NewNopLogger()

	var provider llm.LLMProvider
	if !*offline {
		p, err := factory.NewLLMProvider(factory.Config{
			Provider:    cfg.Ai.LLMProvider,
			Model:       cfg.Ai.LLMModel,
			BaseURL:     cfg.Ai.OllamaBaseURL,
			APIKey:      cfg.Ai.HuggingFaceKey,
			Timeout:     cfg.Ai.Timeout,
			MaxAttempts: cfg.Ai.MaxAttempts,
		})
		if err != nil {
			color.Red("LLM unavailable (%v), continuing offline", err)
		} else {
			provider = p
		}
	}

	lx := lexicon.Default()
	eng := engine.NewEngine(
		gate.NewGate(provider, lx, log),
		planner.NewPlanner(provider, lx, nil, planner.Config{
			SufficientSlots: cfg.Interview.SufficientSlots,
			MaxSlots:        cfg.Interview.MaxSlots,
		}, log),
		responder.NewResponder(provider, log),
		composer.NewComposer(provider, log),
		lx,
		engine.Config{ReaskLimit: cfg.Interview.ReaskLimit},
		log,
		engine.WithSubmitter(printSubmitter{}),
	)

	ctx := context.Background()
	c := store.NewContext("simulator")
	c.SubjectItem = *item
	c.Category = store.NormalizeCategory(*category)
	c.AccessToken = "simulator"

	color.Cyan("=== Review Interview Simulator (%s / %s) ===", c.SubjectItem, c.Category)
	color.New(color.Faint).Println("Type an answer. In CONFIRM, '네' submits and anything else revises. Ctrl+D quits.")
	show(eng.Begin(ctx, c))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		color.New(color.FgGreen, color.Bold).Print("YOU> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		show(eng.Handle(ctx, c, text))
		if c.Stage == store.StageDone {
			break
		}
	}
	fmt.Println()
	color.Yellow("Final stage: %s, answers: %d", c.Stage, len(c.Answers))
}

func show(r engine.Reply) {
	color.New(color.FgBlue).Printf("[%s] ", r.Stage)
	fmt.Println(r.Message)
	if r.Draft != nil {
		color.New(color.FgYellow).Printf("  score=%d price=%s recommend=%s\n", r.Draft.OverallScore, r.Draft.PriceFeel, r.Draft.Recommend)
	}
}
