package llm

import (
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/joseph-ayodele/medparams/internal/common"
)

const (
	// DefaultMaxContextTokens is the context length assumed for every model.
	DefaultMaxContextTokens = 128000
	// genericEncoding is used for model families tiktoken does not know.
	genericEncoding = "cl100k_base"
	// budget is budgetNum/budgetDen of the context; the rest is left for the
	// system turn and the response.
	budgetNum = 3
	budgetDen = 4
)

// TokenCounter estimates how many tokens text costs for a model.
type TokenCounter interface {
	Count(text, modelID string) (int, error)
}

// TokenCounterFunc adapts a function to TokenCounter.
type TokenCounterFunc func(text, modelID string) (int, error)

func (f TokenCounterFunc) Count(text, modelID string) (int, error) { return f(text, modelID) }

// HeuristicTokens is the coarse fallback: one token per four characters.
func HeuristicTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

// TiktokenCounter picks an encoding by model-family prefix and falls back to
// cl100k_base for unknown families. Encodings are cached per model id.
// A tokenizer that failed to load is remembered so the next call goes
// straight to the heuristic.
type TiktokenCounter struct {
	mu     sync.Mutex
	cache  map[string]*tiktoken.Tiktoken
	failed map[string]error
}

var offlineEncodings sync.Once

// NewTiktokenCounter switches tiktoken to the encodings embedded in the
// binary. The package default downloads them on first use, which would put
// an unbounded network call inside the budget check.
func NewTiktokenCounter() *TiktokenCounter {
	offlineEncodings.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	return &TiktokenCounter{cache: map[string]*tiktoken.Tiktoken{}, failed: map[string]error{}}
}

func (c *TiktokenCounter) Count(text, modelID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.failed[modelID]; ok {
		return 0, err
	}
	enc, ok := c.cache[modelID]
	if !ok {
		var err error
		enc, err = tiktoken.EncodingForModel(modelID)
		if err != nil {
			enc, err = tiktoken.GetEncoding(genericEncoding)
			if err != nil {
				err = fmt.Errorf("load tokenizer for %q: %w", modelID, err)
				c.failed[modelID] = err
				return 0, err
			}
		}
		c.cache[modelID] = enc
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// BudgetGuard rejects prompts that would not leave room for a response,
// before any network call is made.
type BudgetGuard struct {
	counter    TokenCounter
	maxContext int
	logger     *slog.Logger
}

// NewBudgetGuard builds a guard; a nil counter uses tiktoken and a
// non-positive maxContext uses DefaultMaxContextTokens.
func NewBudgetGuard(maxContext int, counter TokenCounter, logger *slog.Logger) *BudgetGuard {
	if maxContext <= 0 {
		maxContext = DefaultMaxContextTokens
	}
	if counter == nil {
		counter = NewTiktokenCounter()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BudgetGuard{counter: counter, maxContext: maxContext, logger: logger}
}

// MaxContext returns the configured context length.
func (g *BudgetGuard) MaxContext() int { return g.maxContext }

// Limit is the largest estimate that still fits: 75% of the context length.
func (g *BudgetGuard) Limit() int {
	return g.maxContext * budgetNum / budgetDen
}

// Estimate returns the token estimate for prompt, using the heuristic when
// the tokenizer fails.
func (g *BudgetGuard) Estimate(prompt, modelID string) int {
	n, err := g.counter.Count(prompt, modelID)
	if err != nil {
		g.logger.Warn("llm.budget.tokenizer_fallback", "model", modelID, "error", err)
		return HeuristicTokens(prompt)
	}
	return n
}

// Fits reports whether prompt is within the budget for modelID.
func (g *BudgetGuard) Fits(prompt, modelID string) bool {
	return g.Estimate(prompt, modelID) <= g.Limit()
}

// Check is Fits with a PROMPT_TOO_LARGE error describing the overrun.
func (g *BudgetGuard) Check(prompt, modelID string) error {
	est := g.Estimate(prompt, modelID)
	if est <= g.Limit() {
		return nil
	}
	g.logger.Warn("llm.budget.exceeded", "model", modelID, "estimated_tokens", est, "limit", g.Limit())
	return common.PromptTooLargeError(fmt.Sprintf(
		"prompt is too large: about %d tokens, limit is %d (75%% of %d)", est, g.Limit(), g.maxContext))
}
