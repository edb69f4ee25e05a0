package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by one model call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// Add folds another call's usage into u. The model of the latest call wins.
func (u TokenUsage) Add(o TokenUsage) TokenUsage {
	u.PromptTokens += o.PromptTokens
	u.CompletionTokens += o.CompletionTokens
	u.TotalTokens += o.TotalTokens
	if o.Model != "" {
		u.Model = o.Model
	}
	return u
}

// AgentMeta is what gets recorded for each briefing run.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
	Cached    bool
}
