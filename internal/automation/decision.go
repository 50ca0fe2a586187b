// Package automation decides whether an analysis result warrants
// downstream action and builds the job payloads for it. Everything in
// this package is pure: decisions depend only on the feedback and
// analysis passed in, never on stored state or the clock.
package automation

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/lumenvoice/feedback-api/internal/domain"
)

// Skill identifiers for the built-in job kinds. Jobs of any other kind
// carry their own skill identifier.
const (
	SkillCreateTicket = "create_support_ticket"
	SkillSendAlert    = "send_alert_notification"
)

// Actionable is the single configuration table shared by the trigger
// rule and the ticket-category mapping. Topic labels present in the
// map are actionable; the value is the ticket category a top topic maps
// to. Topics may also carry a category without being actionable on
// their own (price, product, location).
type Actionable struct {
	TopicCategories map[string]topicEntry
	EntityTypes     map[string]struct{}
}

type topicEntry struct {
	Category   string
	Actionable bool
}

// DefaultActionable is the built-in actionable configuration.
var DefaultActionable = Actionable{
	TopicCategories: map[string]topicEntry{
		"service":     {Category: "customer_service", Actionable: true},
		"delivery":    {Category: "delivery", Actionable: true},
		"quality":     {Category: "quality", Actionable: true},
		"after-sales": {Category: "support", Actionable: true},
		"price":       {Category: "billing"},
		"product":     {Category: "product_issue"},
		"location":    {Category: "location"},
	},
	EntityTypes: map[string]struct{}{
		"product":      {},
		"location":     {},
		"organization": {},
	},
}

// Payload is the document stored on an automation job and posted to the
// dispatch target. Kind-specific fields are populated by BuildPayload
// and omitted otherwise.
type Payload struct {
	FeedbackID      uuid.UUID             `json:"feedback_id"`
	FeedbackContent string                `json:"feedback_content"`
	Source          domain.FeedbackSource `json:"source"`
	Author          string                `json:"author,omitempty"`
	Sentiment       domain.SentimentLabel `json:"sentiment"`
	Urgency         domain.UrgencyLevel   `json:"urgency"`
	Topics          []domain.TopicScore   `json:"topics"`
	Recommendation  string                `json:"recommendation,omitempty"`

	// Ticket fields
	TicketType string `json:"ticket_type,omitempty"`
	AutoAssign bool   `json:"auto_assign,omitempty"`
	Priority   string `json:"priority,omitempty"`
	Category   string `json:"category,omitempty"`

	// Alert fields
	AlertType string   `json:"alert_type,omitempty"`
	Severity  string   `json:"severity,omitempty"`
	Channels  []string `json:"channels,omitempty"`
}

// Engine evaluates the automation trigger rule against analysis results.
type Engine struct {
	actionable Actionable
}

// NewEngine creates an engine using the given actionable configuration.
func NewEngine(actionable Actionable) *Engine {
	return &Engine{actionable: actionable}
}

// NewDefaultEngine creates an engine with the built-in configuration.
func NewDefaultEngine() *Engine {
	return NewEngine(DefaultActionable)
}

// ShouldTrigger reports whether the analysis warrants automated action:
// the sentiment must be negative or the urgency at least medium, and
// either an actionable topic or an actionable entity type must be
// present.
func (e *Engine) ShouldTrigger(analysis *domain.Analysis) bool {
	urgent := analysis.Insights.Urgency == domain.UrgencyMedium ||
		analysis.Insights.Urgency == domain.UrgencyHigh
	if analysis.Sentiment.Label != domain.SentimentNegative && !urgent {
		return false
	}

	for _, topic := range effectiveTopics(analysis) {
		if entry, ok := e.actionable.TopicCategories[topic.Label]; ok && entry.Actionable {
			return true
		}
	}

	for _, entity := range analysis.Entities {
		if _, ok := e.actionable.EntityTypes[entity.Type]; ok {
			return true
		}
	}

	return false
}

// JobKinds returns the job kinds to enqueue for a triggered analysis,
// derived independently from the urgency: a ticket for medium or high
// urgency, plus an alert for high urgency.
func (e *Engine) JobKinds(analysis *domain.Analysis) []string {
	var kinds []string
	switch analysis.Insights.Urgency {
	case domain.UrgencyHigh:
		kinds = append(kinds, domain.JobKindTicket, domain.JobKindAlert)
	case domain.UrgencyMedium:
		kinds = append(kinds, domain.JobKindTicket)
	}
	return kinds
}

// BuildPayload assembles the job payload for the given kind.
func (e *Engine) BuildPayload(
	feedback *domain.Feedback,
	analysis *domain.Analysis,
	kind string,
) (json.RawMessage, error) {
	p := Payload{
		FeedbackID:      feedback.ID,
		FeedbackContent: feedback.Content,
		Source:          feedback.Source,
		Author:          feedback.AuthorName,
		Sentiment:       analysis.Sentiment.Label,
		Urgency:         analysis.Insights.Urgency,
		Topics:          effectiveTopics(analysis),
		Recommendation:  analysis.Insights.ActionRecommendation,
	}

	switch kind {
	case domain.JobKindTicket:
		p.TicketType = "customer_feedback"
		p.AutoAssign = true
		p.Priority = string(e.TicketPriority(analysis))
		p.Category = e.TicketCategory(analysis)
	case domain.JobKindAlert:
		p.AlertType = "urgent_feedback"
		p.Severity = e.AlertSeverity(analysis)
		p.Channels = []string{"slack", "email"}
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job payload: %w", err)
	}

	return raw, nil
}

// SkillFor maps a job kind to the skill identifier it dispatches to.
// Unknown kinds are treated as literal skill identifiers.
func SkillFor(kind string) string {
	switch kind {
	case domain.JobKindTicket:
		return SkillCreateTicket
	case domain.JobKindAlert:
		return SkillSendAlert
	default:
		return kind
	}
}

// TicketPriority derives a ticket priority from the analysis: high for
// high urgency or negative sentiment, otherwise tracking the urgency.
func (e *Engine) TicketPriority(analysis *domain.Analysis) domain.UrgencyLevel {
	if analysis.Insights.Urgency == domain.UrgencyHigh ||
		analysis.Sentiment.Label == domain.SentimentNegative {
		return domain.UrgencyHigh
	}
	if analysis.Insights.Urgency == domain.UrgencyMedium {
		return domain.UrgencyMedium
	}
	return domain.UrgencyLow
}

// TicketCategory maps the highest-scoring topic to a ticket category
// via the shared actionable table, defaulting to general.
func (e *Engine) TicketCategory(analysis *domain.Analysis) string {
	topics := effectiveTopics(analysis)
	if len(topics) == 0 {
		return "general"
	}

	if entry, ok := e.actionable.TopicCategories[topics[0].Label]; ok {
		return entry.Category
	}
	return "general"
}

// AlertSeverity maps the urgency onto alert severity levels.
func (e *Engine) AlertSeverity(analysis *domain.Analysis) string {
	switch analysis.Insights.Urgency {
	case domain.UrgencyHigh:
		return "critical"
	case domain.UrgencyMedium:
		return "warning"
	default:
		return "info"
	}
}

// effectiveTopics prefers the refined topic list over the raw
// classification when the refinement pass produced one.
func effectiveTopics(analysis *domain.Analysis) []domain.TopicScore {
	if len(analysis.RefinedTopics) > 0 {
		return analysis.RefinedTopics
	}
	return analysis.Topics
}
