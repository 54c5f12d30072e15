package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexivanou/weatherquery-api/internal/apperror"
	"github.com/alexivanou/weatherquery-api/internal/config"
	"github.com/alexivanou/weatherquery-api/internal/httpclient"
	"github.com/alexivanou/weatherquery-api/internal/model"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	upstreamName = "intent"
	toolName     = "extract_weather_intent"
)

// Extractor turns a weather question into an Intent using a chat completion
// API with a forced tool call.
type Extractor struct {
	http     *httpclient.Client
	cfg      config.IntentConfig
	validate *validator.Validate
	logger   *zap.Logger
}

// NewExtractor creates an intent extractor
func NewExtractor(hc *httpclient.Client, cfg config.IntentConfig, logger *zap.Logger) *Extractor {
	return &Extractor{
		http:     hc,
		cfg:      cfg,
		validate: validator.New(),
		logger:   logger,
	}
}

type chatMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
}

type toolCall struct {
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type toolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type tool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []tool        `json:"tools"`
	ToolChoice  tool          `json:"tool_choice"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// arguments mirrors Intent with presence tracking for required fields.
type arguments struct {
	IntentType       *model.IntentType `json:"intentType"`
	LocationProvided *bool             `json:"locationProvided"`
	Location         *string           `json:"location"`
	Date             *string           `json:"date"`
	StartDate        *string           `json:"startDate"`
	EndDate          *string           `json:"endDate"`
	StartHour        *int              `json:"startHour"`
	EndHour          *int              `json:"endHour"`
}

// Extract calls the provider once. ref anchors relative dates such as
// "tomorrow" or "this weekend".
func (e *Extractor) Extract(ctx context.Context, query string, ref time.Time) (*model.Intent, error) {
	req := chatRequest{
		Model: e.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(ref)},
			{Role: "user", Content: query},
		},
		Tools:       []tool{{Type: "function", Function: toolFunction{Name: toolName, Description: "Extract the structured weather intent from the user's question.", Parameters: Schema()}}},
		ToolChoice:  tool{Type: "function", Function: toolFunction{Name: toolName}},
		Temperature: 0,
	}
	headers := map[string]string{}
	if e.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + e.cfg.APIKey
	}

	var resp chatResponse
	if err := e.http.PostJSON(ctx, upstreamName, e.cfg.APIURL, headers, req, &resp); err != nil {
		return nil, classify(err)
	}

	intent, err := e.parse(resp)
	if err != nil {
		e.logger.Warn("Intent extraction produced no usable result", zap.String("query", query), zap.Error(err))
		return nil, apperror.Wrap(apperror.IntentExtractionFailed, err)
	}

	e.logger.Debug("Extracted intent",
		zap.String("intent_type", string(intent.IntentType)),
		zap.Bool("location_provided", intent.LocationProvided),
		zap.String("location", intent.LocationText()),
	)
	return intent, nil
}

func (e *Extractor) parse(resp chatResponse) (*model.Intent, error) {
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices returned")
	}

	for _, call := range resp.Choices[0].Message.ToolCalls {
		if call.Function.Name != toolName {
			continue
		}
		var args arguments
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return nil, fmt.Errorf("invalid tool arguments: %w", err)
		}
		if args.IntentType == nil || args.LocationProvided == nil {
			return nil, errors.New("tool arguments missing intentType or locationProvided")
		}

		intent := &model.Intent{
			IntentType:       *args.IntentType,
			LocationProvided: *args.LocationProvided,
			Location:         args.Location,
			Date:             args.Date,
			StartDate:        args.StartDate,
			EndDate:          args.EndDate,
			StartHour:        args.StartHour,
			EndHour:          args.EndHour,
		}
		if err := e.validate.Struct(intent); err != nil {
			return nil, fmt.Errorf("invalid intent: %w", err)
		}
		return intent, nil
	}
	return nil, errors.New("no extraction tool call returned")
}

// classify maps provider failures onto the AI_* codes.
func classify(err error) error {
	switch status := httpclient.StatusCode(err); {
	case status == http.StatusTooManyRequests:
		return apperror.Wrap(apperror.AIRateLimited, err)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperror.Wrap(apperror.AIAuthError, err)
	default:
		return apperror.Wrap(apperror.AIServiceError, err)
	}
}

func systemPrompt(ref time.Time) string {
	return fmt.Sprintf(`You extract weather query intents for U.S. locations.
Today is %s (%s). Resolve relative dates ("today", "tomorrow", "this weekend") against today and express dates as YYYY-MM-DD.
Use CURRENT for questions about conditions right now, DAY for a single date, HOURLY_WINDOW for a span of hours within a day (hours 0-23) and DATE_RANGE for several days.
Set locationProvided to false when the user names no place or refers to where they are.`,
		ref.Format("2006-01-02"), ref.Weekday())
}

// Schema is the JSON schema of the extraction tool's parameters.
func Schema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}
	hour := map[string]any{"type": []string{"integer", "null"}, "minimum": 0, "maximum": 23}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"intentType": map[string]any{
				"type": "string",
				"enum": []string{
					string(model.IntentCurrent),
					string(model.IntentDay),
					string(model.IntentHourlyWindow),
					string(model.IntentDateRange),
				},
			},
			"locationProvided": map[string]any{"type": "boolean"},
			"location":         nullableString,
			"date":             nullableString,
			"startDate":        nullableString,
			"endDate":          nullableString,
			"startHour":        hour,
			"endHour":          hour,
		},
		"required": []string{"intentType", "locationProvided"},
	}
}
