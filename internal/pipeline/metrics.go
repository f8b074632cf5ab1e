package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// Metrics counts tier attempts and outcomes for one orchestrator instance.
// It is owned by that instance and must not be shared across orchestrators.
type Metrics struct {
	ASTAttempts      uint64
	ASTSuccesses     uint64
	CommandAttempts  uint64
	CommandSuccesses uint64
	RegexAttempts    uint64
	RegexSuccesses   uint64

	MinimalRecipeCreations uint64
	TotalParseTime         time.Duration
}

func (m *Metrics) Reset() {
	*m = Metrics{}
}

func (m *Metrics) attempt(tier string) {
	switch tier {
	case tierAST:
		m.ASTAttempts++
	case tierCommand:
		m.CommandAttempts++
	case tierRegex:
		m.RegexAttempts++
	}
}

func (m *Metrics) success(tier string) {
	switch tier {
	case tierAST:
		m.ASTSuccesses++
	case tierCommand:
		m.CommandSuccesses++
	case tierRegex:
		m.RegexSuccesses++
	}
}

// Render writes a human-readable summary with per-tier success rates.
func (m *Metrics) Render() string {
	var b strings.Builder
	b.WriteString("parsing diagnostics:\n")
	writeTier(&b, tierAST, m.ASTAttempts, m.ASTSuccesses)
	writeTier(&b, tierCommand, m.CommandAttempts, m.CommandSuccesses)
	writeTier(&b, tierRegex, m.RegexAttempts, m.RegexSuccesses)
	fmt.Fprintf(&b, "  stub recipes created: %d\n", m.MinimalRecipeCreations)
	fmt.Fprintf(&b, "  total parse time: %s\n", m.TotalParseTime)
	return b.String()
}

func writeTier(b *strings.Builder, name string, attempts, successes uint64) {
	rate := 0.0
	if attempts > 0 {
		rate = float64(successes) / float64(attempts) * 100
	}
	fmt.Fprintf(b, "  %-7s %d/%d attempts succeeded (%.1f%%)\n", name+":", successes, attempts, rate)
}
