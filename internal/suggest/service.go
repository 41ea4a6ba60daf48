package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"culturecompass/internal/comment"
	"culturecompass/internal/route"
)

// FailureMessage is shown to the caller whenever suggestions cannot be produced.
const FailureMessage = "Could not load AI comment suggestions at this time."

// ErrUnavailable is returned when the model call or its answer fails.
var ErrUnavailable = errors.New("suggestions unavailable")

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type RouteReader interface {
	Get(ctx context.Context, id string) (route.Route, error)
}

type FeedbackSource interface {
	FeedbackSummary(ctx context.Context, routeID string) (string, error)
}

type Service struct {
	routes   RouteReader
	feedback FeedbackSource
	gen      Generator
	log      *zap.SugaredLogger
}

// NewService wires the suggestion flow. feedback may be nil, in which case
// every route gets the empty-feedback summary.
func NewService(routes RouteReader, feedback FeedbackSource, gen Generator, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{routes: routes, feedback: feedback, gen: gen, log: log}
}

// Suggest returns candidate comments for a route in the order the model gave them.
func (s *Service) Suggest(ctx context.Context, routeID string) ([]string, error) {
	r, err := s.routes.Get(ctx, routeID)
	if err != nil {
		return nil, err
	}

	summary := comment.NoFeedback
	if s.feedback != nil {
		if got, err := s.feedback.FeedbackSummary(ctx, routeID); err != nil {
			s.log.Warnw("feedback summary failed", "route_id", routeID, "error", err)
		} else {
			summary = got
		}
	}

	text, err := s.gen.Generate(ctx, Prompt(r.Description, summary))
	if err != nil {
		s.log.Errorw("suggestion generation failed", "route_id", routeID, "error", err)
		return nil, ErrUnavailable
	}
	out, err := ParseSuggestions(text)
	if err != nil {
		s.log.Errorw("suggestion answer unreadable", "route_id", routeID, "error", err)
		return nil, ErrUnavailable
	}
	return out, nil
}

func Prompt(description, feedback string) string {
	return fmt.Sprintf(`You are an AI assistant designed to suggest relevant comments for users who have visited a particular route.
Based on the route description and community feedback, provide a list of suggested comments that the user can choose from.
Answer only with a JSON array of strings.

Route Description: %s
Community Feedback: %s

Suggested Comments:`, description, feedback)
}

// ParseSuggestions accepts a bare JSON array or an object with a
// suggestedComments array, optionally wrapped in a markdown code fence.
func ParseSuggestions(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, "`")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSpace(text)

	var list []string
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		var wrapped struct {
			SuggestedComments []string `json:"suggestedComments"`
		}
		if err2 := json.Unmarshal([]byte(text), &wrapped); err2 != nil || wrapped.SuggestedComments == nil {
			return nil, fmt.Errorf("parse suggestions: %w", err)
		}
		list = wrapped.SuggestedComments
	}

	out := make([]string, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
