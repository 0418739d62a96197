package content

import (
	"context"
	"fmt"
	"strings"
)

// Request identifies one document to generate. StableID pins the document's
// logical position so regeneration is reproducible.
type Request struct {
	StableID   string
	Archetype  string
	Company    string
	Department string
	TitleHint  string
	RunName    string

	// Regen forces fresh generation even when cached content exists.
	Regen bool
}

// Generator produces document content. Implementations are treated as
// opaque content sources; the engine only cares that identical requests
// yield identical content once cached.
type Generator interface {
	Generate(ctx context.Context, req Request) (*DocContent, error)
}

// TemplateGenerator produces deterministic synthetic content from archetype
// templates without any external service. It is the "template" generation
// mode and the fallback used by tests.
type TemplateGenerator struct{}

// Generate implements Generator.
func (TemplateGenerator) Generate(_ context.Context, req Request) (*DocContent, error) {
	if req.Archetype == "" {
		return nil, fmt.Errorf("generate content: archetype is required")
	}
	title := req.TitleHint
	if title == "" {
		title = archetypeTitle(req.Archetype, req.Department)
	}
	sections := archetypeSections(req)
	return &DocContent{
		Title:   title,
		Summary: fmt.Sprintf("%s reference for the %s department at %s.", humanize(req.Archetype), req.Department, req.Company),
		Sections: sections,
		Metadata: []string{
			"Generated document - synthetic content",
			"Ref: " + req.StableID,
		},
	}, nil
}

func archetypeSections(req Request) []DocSection {
	switch req.Archetype {
	case "policy":
		return []DocSection{
			{Heading: "Purpose", Paragraphs: []string{fmt.Sprintf("This policy defines expectations for the %s department.", req.Department)}},
			{Heading: "Scope", Paragraphs: []string{fmt.Sprintf("Applies to all members of %s at %s.", req.Department, req.Company)}},
			{Heading: "Requirements", Bullets: []string{"Review annually", "Track exceptions", "Report violations promptly"}},
		}
	case "runbook":
		return []DocSection{
			{Heading: "Overview", Paragraphs: []string{fmt.Sprintf("Operational procedures for %s services.", req.Department)}},
			{Heading: "Steps", Bullets: []string{"Confirm the alert", "Check the dashboard", "Escalate if unresolved after 30 minutes"}},
		}
	case "incident_report":
		return []DocSection{
			{Heading: "Summary", Paragraphs: []string{fmt.Sprintf("Post-incident review for a %s service disruption.", req.Department)}},
			{Heading: "Timeline", Bullets: []string{"Detection", "Mitigation", "Resolution"}},
			{Heading: "Follow-ups", Bullets: []string{"Add monitoring", "Update the runbook"}},
		}
	case "meeting_notes":
		return []DocSection{
			{Heading: "Attendees", Paragraphs: []string{fmt.Sprintf("%s team members.", req.Department)}},
			{Heading: "Decisions", Bullets: []string{"Agreed on priorities", "Scheduled follow-up"}},
		}
	case "prd":
		return []DocSection{
			{Heading: "Problem", Paragraphs: []string{fmt.Sprintf("A recurring need identified by the %s team.", req.Department)}},
			{Heading: "Proposal", Paragraphs: []string{"Deliver an incremental solution in two phases."}},
			{Heading: "Milestones", Bullets: []string{"Design review", "Alpha", "General availability"}},
		}
	case "onboarding":
		return []DocSection{
			{Heading: "Welcome", Paragraphs: []string{fmt.Sprintf("Getting started in %s at %s.", req.Department, req.Company)}},
			{Heading: "First Week", Bullets: []string{"Meet the team", "Set up access", "Ship something small"}},
		}
	case "qbr":
		return []DocSection{
			{Heading: "Highlights", Paragraphs: []string{fmt.Sprintf("Quarterly results for %s.", req.Department)}},
			{Heading: "Metrics", Bullets: []string{"Delivery", "Quality", "Headcount"}},
		}
	default:
		return []DocSection{
			{Heading: "Overview", Paragraphs: []string{fmt.Sprintf("Working document for the %s team.", req.Department)}},
		}
	}
}

func archetypeTitle(archetype, department string) string {
	return humanize(archetype) + " - " + department
}

func humanize(archetype string) string {
	words := strings.Split(archetype, "_")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}
