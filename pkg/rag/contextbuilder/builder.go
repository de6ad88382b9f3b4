package contextbuilder

import (
	"fmt"
	"strings"

	"healthmate-be/pkg/store"
)

const (
	DefaultSeparator        = "\n\n---\n\n"
	DefaultMaxContextTokens = 2000

	// NoInformationSentinel is what downstream prompts see when retrieval
	// produced nothing usable.
	NoInformationSentinel = "No relevant information found in the knowledge base."
)

// ContextResult is the assembled prompt fragment, built fresh per query.
type ContextResult struct {
	Context     string `json:"context"`
	Citations   string `json:"citations"`
	NumPassages int    `json:"num_passages"`
	NumSources  int    `json:"num_sources"`
	TotalTokens int    `json:"total_tokens"`
	Truncated   bool   `json:"truncated"`
}

// PromptInput is the reshaped triple handed to the prompt template.
type PromptInput struct {
	Query     string
	Context   string
	Citations string
}

// Builder assembles retrieved passages into a token-bounded context block with
// [Source N] markers and a matching citations list.
type Builder struct {
	counter   TokenCounter
	maxTokens int
}

func NewBuilder(counter TokenCounter, maxTokens int) *Builder {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxContextTokens
	}
	return &Builder{counter: counter, maxTokens: maxTokens}
}

// BuildContext walks passages in the order given (the retriever already
// ranked them) assigning each source a citation number the first time it
// appears. Passages are included until the next one would push the running
// token count past the budget; inclusion stops there rather than skipping
// ahead, so the result is always a rank-order prefix.
func (b *Builder) BuildContext(passages []store.Passage, includeMetadata bool, separator string) ContextResult {
	if separator == "" {
		separator = DefaultSeparator
	}
	if len(passages) == 0 {
		return ContextResult{Context: NoInformationSentinel}
	}

	citationNumbers := make(map[string]int)
	var citationOrder []store.Citation
	var parts []string
	totalTokens := 0
	truncated := false

	for _, p := range passages {
		source := p.Metadata.Source
		if source != "" {
			if _, seen := citationNumbers[source]; !seen {
				citationNumbers[source] = len(citationNumbers) + 1
				citationOrder = append(citationOrder, store.Citation{
					Source: source,
					Path:   p.Metadata.Path,
					Pages:  p.Metadata.Pages,
				})
			}
		}

		formatted := p.Content
		if includeMetadata && source != "" {
			formatted = fmt.Sprintf("[Source %d] %s", citationNumbers[source], p.Content)
		}

		candidateTokens := b.counter.Count(formatted) + b.counter.Count(separator)
		if totalTokens+candidateTokens > b.maxTokens {
			truncated = true
			break
		}
		totalTokens += candidateTokens
		parts = append(parts, formatted)
	}

	if len(parts) == 0 {
		return ContextResult{Context: NoInformationSentinel, Truncated: truncated}
	}

	return ContextResult{
		Context:     strings.Join(parts, separator),
		Citations:   formatCitationBlock(citationNumbers, citationOrder, len(parts), passages),
		NumPassages: len(parts),
		NumSources:  countIncludedSources(passages[:len(parts)]),
		TotalTokens: totalTokens,
		Truncated:   truncated,
	}
}

// countIncludedSources counts distinct sources among the passages that made
// it into the context.
func countIncludedSources(included []store.Passage) int {
	seen := make(map[string]bool)
	for _, p := range included {
		if p.Metadata.Source != "" {
			seen[p.Metadata.Source] = true
		}
	}
	return len(seen)
}

// formatCitationBlock renders "<N>. <source> (<pages> pages)" lines in
// citation-number order, restricted to sources that actually appear in the
// included prefix.
func formatCitationBlock(numbers map[string]int, order []store.Citation, numIncluded int, passages []store.Passage) string {
	includedSources := make(map[string]bool)
	for _, p := range passages[:numIncluded] {
		if p.Metadata.Source != "" {
			includedSources[p.Metadata.Source] = true
		}
	}

	var lines []string
	for _, c := range order {
		if !includedSources[c.Source] {
			continue
		}
		if c.Pages > 0 {
			lines = append(lines, fmt.Sprintf("%d. %s (%d pages)", numbers[c.Source], c.Source, c.Pages))
		} else {
			lines = append(lines, fmt.Sprintf("%d. %s", numbers[c.Source], c.Source))
		}
	}
	return strings.Join(lines, "\n")
}

// FormatForPrompt reshapes a build result for the prompt template. Pure.
func FormatForPrompt(result ContextResult, query string) PromptInput {
	return PromptInput{
		Query:     query,
		Context:   result.Context,
		Citations: result.Citations,
	}
}
