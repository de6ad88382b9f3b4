package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"healthmate-be/pkg/llm"
)

// Decision is the binary routing outcome for an inbound message.
type Decision string

const (
	DecisionCasual  Decision = "casual"
	DecisionMedical Decision = "medical"
)

const classifierInstruction = `You are a classifier. Decide whether the user's message is asking for first-aid or medical instructions.
Answer with a single word: "Yes" if it is, "No" if it is not. Do not explain.`

// Router asks the model, at temperature zero, whether a message needs
// first-aid instructions. Anything other than a clear "yes" routes to casual
// chat: a garbled classifier reply must never produce confident medical
// guidance.
type Router struct {
	provider llm.LLMProvider
	cache    *gocache.Cache
}

// Verdict carries the parsed decision plus the raw token it was parsed from,
// for logging.
type Verdict struct {
	Decision Decision
	RawToken string
}

func New(provider llm.LLMProvider) *Router {
	return &Router{
		provider: provider,
		cache:    gocache.New(time.Hour, 2*time.Hour),
	}
}

// Classify returns the routing decision for message. Identical messages
// within the cache window reuse the previous verdict instead of paying for
// another completion.
func (r *Router) Classify(ctx context.Context, message string) (Verdict, error) {
	key := strings.ToLower(strings.TrimSpace(message))
	if cached, found := r.cache.Get(key); found {
		return cached.(Verdict), nil
	}

	reply, err := r.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: classifierInstruction},
		{Role: "user", Content: message},
	}, llm.WithTemperature(0))
	if err != nil {
		return Verdict{}, fmt.Errorf("classification failed: %w", err)
	}

	verdict := parseVerdict(reply)
	r.cache.Set(key, verdict, gocache.DefaultExpiration)
	return verdict, nil
}

// parseVerdict takes the first whitespace-delimited token of the reply and
// treats a case-insensitive "yes" as medical. Everything else, including an
// empty reply, is casual.
func parseVerdict(reply string) Verdict {
	fields := strings.Fields(reply)
	if len(fields) == 0 {
		return Verdict{Decision: DecisionCasual}
	}

	raw := fields[0]
	token := strings.ToLower(strings.Trim(raw, ".,!?:;\"'"))
	if token == "yes" {
		return Verdict{Decision: DecisionMedical, RawToken: raw}
	}
	return Verdict{Decision: DecisionCasual, RawToken: raw}
}
