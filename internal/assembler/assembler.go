// Package assembler renders the finished retrieval context into the bounded
// prompt handed to the model collaborator, plus the structured summary for
// programmatic consumers.
package assembler

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"license-navigator/internal/catalog"
	apperrors "license-navigator/internal/common/errors"
	"license-navigator/internal/common/logger"
	"license-navigator/internal/models"
)

// DefaultBudget caps the narrative length in characters.
const DefaultBudget = 6000

type Assembler struct {
	snapshot *catalog.Snapshot
	budget   int
	logger   logger.Logger
}

func New(snapshot *catalog.Snapshot, budget int, log logger.Logger) *Assembler {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Assembler{
		snapshot: snapshot,
		budget:   budget,
		logger:   log.With(map[string]interface{}{"component": "assembler"}),
	}
}

// Assemble renders the deterministic narrative and the structured summary.
// When the narrative would exceed the character budget, the oldest
// conversation turns are dropped first, then the lowest-scored license
// entries; the business analysis, cost and timeline sections are never cut.
// A context whose fixed sections alone exceed the budget is a PromptTooLarge
// condition.
func (a *Assembler) Assemble(rc *models.RetrievalContext) (*models.AssembledPrompt, error) {
	retained := a.presentable(rc)
	history := rc.History
	truncated := false

	narrative := a.render(rc, retained, history)
	for len(narrative) > a.budget && len(history) > 0 {
		history = history[1:]
		truncated = true
		narrative = a.render(rc, retained, history)
	}
	for len(narrative) > a.budget && len(retained) > 0 {
		retained = dropLowestScore(retained)
		truncated = true
		narrative = a.render(rc, retained, history)
	}
	if len(narrative) > a.budget {
		return nil, apperrors.NewPromptTooLargeError(len(narrative), a.budget)
	}

	if truncated {
		a.logger.Debug("narrative truncated to budget", map[string]interface{}{
			"queryId":  rc.QueryID,
			"retained": len(retained),
		})
	}

	return &models.AssembledPrompt{
		NarrativeText:     narrative,
		StructuredSummary: a.summarize(rc, retained),
		Truncated:         truncated,
	}, nil
}

// Minimal renders the fixed sections alone, hard-cut to the budget on a rune
// boundary. It is the degraded rendering for contexts whose fixed sections
// exceed the budget; the summary carries no license entries.
func (a *Assembler) Minimal(rc *models.RetrievalContext) *models.AssembledPrompt {
	narrative := a.render(rc, nil, nil)
	if len(narrative) > a.budget {
		cut := narrative[:a.budget]
		for len(cut) > 0 && !utf8.ValidString(cut) {
			cut = cut[:len(cut)-1]
		}
		narrative = cut
	}
	return &models.AssembledPrompt{
		NarrativeText:     narrative,
		StructuredSummary: a.summarize(rc, nil),
		Truncated:         true,
	}
}

// presentable returns the context's entries with every entry guaranteed at
// least one source URL, backfilled from the jurisdiction's official links.
func (a *Assembler) presentable(rc *models.RetrievalContext) []models.LicenseEntry {
	var fallback []string
	if j, ok := a.snapshot.GetJurisdiction(rc.Jurisdiction); ok {
		fallback = j.OfficialLinks
	}

	entries := rc.Licenses()
	out := make([]models.LicenseEntry, 0, len(entries))
	for _, e := range entries {
		if len(e.SourceURLs) == 0 {
			if len(fallback) == 0 {
				// an entry nobody can verify is dropped rather than shown
				continue
			}
			e.SourceURLs = append([]string(nil), fallback...)
		}
		out = append(out, e)
	}
	return out
}

// historySnippetLimit bounds each rendered conversation turn so prior
// answers do not crowd out the license sections.
const historySnippetLimit = 200

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= historySnippetLimit {
		return s
	}
	cut := s[:historySnippetLimit]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}

// dropLowestScore removes one entry: the lowest score, and among equals the
// one inserted last, so earlier origins survive longer.
func dropLowestScore(entries []models.LicenseEntry) []models.LicenseEntry {
	lowest := 0
	for i := 1; i < len(entries); i++ {
		if entries[i].Score <= entries[lowest].Score {
			lowest = i
		}
	}
	out := make([]models.LicenseEntry, 0, len(entries)-1)
	out = append(out, entries[:lowest]...)
	return append(out, entries[lowest+1:]...)
}

func (a *Assembler) render(rc *models.RetrievalContext, entries []models.LicenseEntry, history []models.Turn) string {
	top := rc.TopCandidate()
	totalCost := sumCosts(entries)
	timeline := timelineEnvelope(entries)

	var b strings.Builder

	b.WriteString("## Business Analysis\n")
	b.WriteString(fmt.Sprintf("Query: %s\n", rc.Query))
	b.WriteString(fmt.Sprintf("Business type: %s (confidence %.2f)\n", a.displayName(top.TypeID), top.Confidence))
	if len(top.MatchedKeywords) > 0 {
		b.WriteString(fmt.Sprintf("Matched terms: %s\n", strings.Join(top.MatchedKeywords, ", ")))
	}
	if rc.Jurisdiction != "" {
		name := rc.Jurisdiction
		if j, ok := a.snapshot.GetJurisdiction(rc.Jurisdiction); ok {
			name = j.Name
		}
		b.WriteString(fmt.Sprintf("Jurisdiction: %s\n", name))
	}
	if len(history) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, turn := range history {
			b.WriteString(fmt.Sprintf("- User: %s\n", snippet(turn.UserInput)))
			if turn.Response != "" {
				b.WriteString(fmt.Sprintf("  Assistant: %s\n", snippet(turn.Response)))
			}
		}
	}

	b.WriteString("\n## Licenses & Permits\n")
	if len(entries) == 0 {
		b.WriteString("No specific licenses identified for this query.\n")
	}
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("- %s (%s", e.Title, e.Category))
		if e.Jurisdiction != "" {
			b.WriteString(", " + e.Jurisdiction)
		}
		b.WriteString(")")
		if e.Cost != (models.CostRange{}) {
			b.WriteString(fmt.Sprintf(": $%d-$%d", e.Cost.Min, e.Cost.Max))
		}
		if e.Timeline != (models.TimelineRange{}) {
			b.WriteString(fmt.Sprintf(", %d-%d weeks", e.Timeline.MinWeeks, e.Timeline.MaxWeeks))
		}
		b.WriteString(fmt.Sprintf(" [%s]\n", e.Origin))
	}

	b.WriteString("\n## Cost Estimate\n")
	b.WriteString(fmt.Sprintf("Total estimated cost: $%d-$%d\n", totalCost.Min, totalCost.Max))

	b.WriteString("\n## Timeline\n")
	b.WriteString(fmt.Sprintf("Expected processing time: %d-%d weeks\n", timeline.MinWeeks, timeline.MaxWeeks))

	b.WriteString("\n## Sources\n")
	for _, u := range collectSources(a.snapshot, rc.Jurisdiction, entries) {
		b.WriteString("- " + u + "\n")
	}

	b.WriteString("\n## Next Steps\n")
	for i, step := range a.nextSteps(top.TypeID, rc.Jurisdiction) {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
	}

	return b.String()
}

func (a *Assembler) summarize(rc *models.RetrievalContext, entries []models.LicenseEntry) models.StructuredSummary {
	top := rc.TopCandidate()
	fresh := false
	for _, e := range entries {
		if e.Origin == models.OriginLive {
			fresh = true
			break
		}
	}
	return models.StructuredSummary{
		BusinessType:      top.TypeID,
		Confidence:        top.Confidence,
		Jurisdiction:      rc.Jurisdiction,
		Licenses:          entries,
		TotalCostEstimate: sumCosts(entries),
		TimelineEstimate:  timelineEnvelope(entries),
		DataFreshness:     fresh,
	}
}

func (a *Assembler) displayName(typeID string) string {
	if bt, ok := a.snapshot.GetBusinessType(typeID); ok {
		return bt.DisplayName
	}
	return typeID
}

func (a *Assembler) nextSteps(typeID, jurisdiction string) []string {
	steps := []string{
		"Confirm the license list with the issuing agencies before applying.",
		"Gather formation documents, proof of address and fee payments.",
	}
	if j, ok := a.snapshot.GetJurisdiction(jurisdiction); ok && len(j.OfficialLinks) > 0 {
		steps = append(steps, fmt.Sprintf("Start applications through the official %s portals listed above.", j.Name))
	}
	if bt, ok := a.snapshot.GetBusinessType(typeID); ok && len(bt.Resources) > 0 {
		steps = append(steps, "Review the industry resources listed above for sector-specific requirements.")
	}
	return steps
}

// sumCosts adds component ranges; the result is never negative because the
// inputs are validated non-negative at catalog load.
func sumCosts(entries []models.LicenseEntry) models.CostRange {
	var total models.CostRange
	for _, e := range entries {
		total = total.Add(e.Cost)
	}
	return total
}

// timelineEnvelope takes the widest single-license span rather than the sum:
// applications proceed in parallel, so the slowest license dominates.
func timelineEnvelope(entries []models.LicenseEntry) models.TimelineRange {
	var env models.TimelineRange
	for _, e := range entries {
		if e.Timeline.MinWeeks > env.MinWeeks {
			env.MinWeeks = e.Timeline.MinWeeks
		}
		if e.Timeline.MaxWeeks > env.MaxWeeks {
			env.MaxWeeks = e.Timeline.MaxWeeks
		}
	}
	return env
}

func collectSources(snapshot *catalog.Snapshot, jurisdiction string, entries []models.LicenseEntry) []string {
	var urls []string
	for _, e := range entries {
		urls = models.UnionSourceURLs(urls, e.SourceURLs)
	}
	if j, ok := snapshot.GetJurisdiction(jurisdiction); ok {
		urls = models.UnionSourceURLs(urls, j.OfficialLinks)
	}
	return urls
}
