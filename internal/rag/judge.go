package rag

import "strings"

// Judge escalation reasons, surfaced verbatim in the debug object.
const (
	ReasonWebDisabled           = "web_disabled"
	ReasonRAGConfident          = "rag_confident"
	ReasonForcedByUser          = "forced_by_user"
	ReasonDefinitionWithWeakRAG = "definition_with_weak_rag"
	ReasonNoHits                = "no_hits"
	ReasonDefaultNoSearch       = "default_no_search"
)

// definitionPatterns are lexical cues that a question is definitional or
// explanatory, where a weak local context is worth supplementing.
var definitionPatterns = []string{
	"what is", "define", "explain", "describe", "derivation", "proof", "how does", "why is",
}

// JudgePolicy holds the thresholds for the web-escalation decision.
type JudgePolicy struct {
	WebEnabled bool
	// MinHitsToSkip: at or above this many surviving hits the local context
	// counts as confident. Zero disables the gate.
	MinHitsToSkip int
	// MinScoreToSkip: at or above this top similarity score the local context
	// counts as confident. Zero disables the gate.
	MinScoreToSkip float64
}

// Decision is the judge's verdict.
type Decision struct {
	DoSearch         bool     `json:"do_search"`
	Reason           string   `json:"reason"`
	SuggestedQueries []string `json:"suggested_queries"`
}

// ShouldSearchWeb is a rule-based decision on whether to escalate a query to
// web search. It is intentionally a cheap heuristic, not a learned classifier:
// zero latency and cost in the common good-local-context case. Rules apply in
// strict priority order.
func ShouldSearchWeb(question string, hitCount int, topScore float64, force bool, policy JudgePolicy) Decision {
	if !policy.WebEnabled {
		return Decision{DoSearch: false, Reason: ReasonWebDisabled, SuggestedQueries: []string{}}
	}

	skipByHits := policy.MinHitsToSkip > 0 && hitCount >= policy.MinHitsToSkip
	skipByScore := policy.MinScoreToSkip > 0 && topScore >= policy.MinScoreToSkip
	if (skipByHits || skipByScore) && !force {
		return Decision{DoSearch: false, Reason: ReasonRAGConfident, SuggestedQueries: []string{}}
	}

	if force {
		return Decision{DoSearch: true, Reason: ReasonForcedByUser, SuggestedQueries: []string{question}}
	}

	if looksLikeDefinition(question) {
		return Decision{DoSearch: true, Reason: ReasonDefinitionWithWeakRAG, SuggestedQueries: []string{question}}
	}

	if hitCount == 0 {
		return Decision{DoSearch: true, Reason: ReasonNoHits, SuggestedQueries: []string{question}}
	}

	return Decision{DoSearch: false, Reason: ReasonDefaultNoSearch, SuggestedQueries: []string{}}
}

func looksLikeDefinition(question string) bool {
	q := strings.ToLower(question)
	for _, p := range definitionPatterns {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}
