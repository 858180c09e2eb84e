package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/trackteamhq/portal/internal/repository"
	"github.com/trackteamhq/portal/internal/service"
)

// Toolset is the fixed menu of queries the model may request. Every tool
// resolves to the same services the HTTP handlers use, invoked with the
// chatting user's own identity — the assistant holds no elevated
// credential, so an athlete asking about another athlete's results gets
// exactly what a direct API call would give them: nothing.
type Toolset struct {
	meets         repository.MeetRepository
	announcements repository.AnnouncementRepository
	accounts      *service.AccountService
	assignments   *service.AssignmentService
	results       *service.ResultService
}

func NewToolset(
	meets repository.MeetRepository,
	announcements repository.AnnouncementRepository,
	accounts *service.AccountService,
	assignments *service.AssignmentService,
	results *service.ResultService,
) *Toolset {
	return &Toolset{
		meets:         meets,
		announcements: announcements,
		accounts:      accounts,
		assignments:   assignments,
		results:       results,
	}
}

func objectSchema(props map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Definitions declares the tools to the model.
func (t *Toolset) Definitions() []openai.Tool {
	fns := []openai.FunctionDefinition{
		{
			Name:        "list_meets",
			Description: "List all meets on the team schedule with their dates and locations.",
			Parameters:  objectSchema(map[string]any{}, nil),
		},
		{
			Name:        "list_meet_assignments",
			Description: "List event assignments for a meet. Athletes see only their own assignments.",
			Parameters: objectSchema(map[string]any{
				"meet_id": map[string]any{"type": "string", "description": "UUID of the meet"},
			}, []string{"meet_id"}),
		},
		{
			Name:        "list_meet_results",
			Description: "List recorded results for a meet. Athletes see only their own results.",
			Parameters: objectSchema(map[string]any{
				"meet_id": map[string]any{"type": "string", "description": "UUID of the meet"},
			}, []string{"meet_id"}),
		},
		{
			Name:        "list_athlete_results",
			Description: "List all results for one athlete across meets.",
			Parameters: objectSchema(map[string]any{
				"athlete_id": map[string]any{"type": "string", "description": "UUID of the athlete"},
			}, []string{"athlete_id"}),
		},
		{
			Name:        "list_announcements",
			Description: "List current team announcements, pinned first.",
			Parameters:  objectSchema(map[string]any{}, nil),
		},
		{
			Name:        "get_roster",
			Description: "List active team accounts with names and roles. Coaching staff only.",
			Parameters:  objectSchema(map[string]any{}, nil),
		},
		{
			Name:        "upsert_assignment",
			Description: "Assign an athlete to an event at a meet, or change an existing assignment's status. Coaching staff only.",
			Parameters: objectSchema(map[string]any{
				"meet_id":    map[string]any{"type": "string", "description": "UUID of the meet"},
				"event_name": map[string]any{"type": "string", "description": "Event name, e.g. 100m"},
				"athlete_id": map[string]any{"type": "string", "description": "UUID of the athlete"},
				"status":     map[string]any{"type": "string", "enum": []string{"assigned", "alternate"}},
			}, []string{"meet_id", "event_name", "athlete_id", "status"}),
		},
	}

	tools := make([]openai.Tool, 0, len(fns))
	for i := range fns {
		tools = append(tools, openai.Tool{
			Type:     openai.ToolTypeFunction,
			Function: &fns[i],
		})
	}
	return tools
}

type meetIDArgs struct {
	MeetID string `json:"meet_id"`
}

type athleteIDArgs struct {
	AthleteID string `json:"athlete_id"`
}

type upsertAssignmentArgs struct {
	MeetID    string `json:"meet_id"`
	EventName string `json:"event_name"`
	AthleteID string `json:"athlete_id"`
	Status    string `json:"status"`
}

// Execute runs one requested tool call as the given user and returns the
// tool output as a JSON string. Authorization and validation failures are
// returned as the string (not as an error): they are an answer for the
// model to relay, not a fault in the call loop.
func (t *Toolset) Execute(ctx context.Context, userID uuid.UUID, name, arguments string) (string, error) {
	switch name {
	case "list_meets":
		meets, err := t.meets.List(ctx)
		if err != nil {
			return "", err
		}
		return marshalResult(meets)

	case "list_meet_assignments":
		var args meetIDArgs
		meetID, err := parseUUIDArg(arguments, &args, func() string { return args.MeetID })
		if err != nil {
			return err.Error(), nil
		}
		assignments, err := t.assignments.ListForMeet(ctx, userID, meetID)
		if err != nil {
			return toolFailure(err)
		}
		return marshalResult(assignments)

	case "list_meet_results":
		var args meetIDArgs
		meetID, err := parseUUIDArg(arguments, &args, func() string { return args.MeetID })
		if err != nil {
			return err.Error(), nil
		}
		results, err := t.results.ListForMeet(ctx, userID, meetID)
		if err != nil {
			return toolFailure(err)
		}
		return marshalResult(results)

	case "list_athlete_results":
		var args athleteIDArgs
		athleteID, err := parseUUIDArg(arguments, &args, func() string { return args.AthleteID })
		if err != nil {
			return err.Error(), nil
		}
		results, err := t.results.ListForAthlete(ctx, userID, athleteID)
		if err != nil {
			return toolFailure(err)
		}
		return marshalResult(results)

	case "list_announcements":
		announcements, err := t.announcements.List(ctx)
		if err != nil {
			return "", err
		}
		return marshalResult(announcements)

	case "get_roster":
		accounts, err := t.accounts.List(ctx, userID)
		if err != nil {
			return toolFailure(err)
		}
		return marshalResult(accounts)

	case "upsert_assignment":
		var args upsertAssignmentArgs
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "invalid tool arguments", nil
		}
		meetID, err := uuid.Parse(args.MeetID)
		if err != nil {
			return "meet_id is not a valid UUID", nil
		}
		outcome, err := t.assignments.Upsert(ctx, userID, meetID, args.EventName, args.AthleteID, args.Status)
		if err != nil {
			return toolFailure(err)
		}
		return marshalResult(outcome)

	default:
		return fmt.Sprintf("unknown tool %q", name), nil
	}
}

func parseUUIDArg(arguments string, target any, field func() string) (uuid.UUID, error) {
	if err := json.Unmarshal([]byte(arguments), target); err != nil {
		return uuid.Nil, fmt.Errorf("invalid tool arguments")
	}
	id, err := uuid.Parse(field())
	if err != nil {
		return uuid.Nil, fmt.Errorf("argument is not a valid UUID")
	}
	return id, nil
}

// toolFailure turns a service denial/validation error into tool output the
// model can explain, and passes everything else up as a real failure.
func toolFailure(err error) (string, error) {
	var svcErr service.Error
	if errors.As(err, &svcErr) {
		return svcErr.Message, nil
	}
	return "", err
}

func marshalResult(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal tool result: %w", err)
	}
	return string(b), nil
}
