// Package ai is the admin assistant: a Gemini chat that can look up and
// adjust inventory and read sales figures through a fixed set of tools.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	DefaultModel = "gemini-2.0-flash-001"

	// maxToolRounds bounds how many times the model may chain tool calls
	// before we give up on a final answer.
	maxToolRounds = 5
)

// ErrNoAnswer is returned when the model produced no candidates.
var ErrNoAnswer = errors.New("assistant returned no answer")

type Agent struct {
	apiKey string
	model  string
	tools  *Toolbox
	log    *zap.Logger
	now    func() time.Time
}

func NewAgent(apiKey, model string, tools *Toolbox, log *zap.Logger) *Agent {
	if model == "" {
		model = DefaultModel
	}
	return &Agent{apiKey: apiKey, model: model, tools: tools, log: log, now: time.Now}
}

func (a *Agent) systemPrompt(userMessage string) string {
	return fmt.Sprintf(`SYSTEM: Today is %s. You are an Agentic POS Assistant.

	RULES:
	1. UPDATE: If a user asks to update a product by NAME (e.g. "Update Banana price"), you must NOT ask them for the ID. Instead:
	   - Call 'check_inventory' to find the ID.
	   - Call 'update_product_price' or 'restock_product' using that ID.

	2. READ: If a user asks for PRICE, STOCK, or DETAILS of a product:
	   - You MUST call 'check_inventory' to get the full list.
	   - Then read the JSON to find the specific item and answer the user.

	3. SALES: If the user asks for sales/revenue, use 'get_sales_report'.

	4. If a tool returns an "error", explain it to the user in plain words.

	USER: %s`, a.now().Format(time.DateOnly), userMessage)
}

// Ask runs one conversation turn, executing tool calls until the model
// answers in text.
func (a *Agent) Ask(ctx context.Context, message string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.Tools = Declarations()
	session := model.StartChat()

	resp, err := session.SendMessage(ctx, genai.Text(a.systemPrompt(message)))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls, text, err := split(resp)
		if err != nil {
			return "", err
		}
		if len(calls) == 0 {
			return text, nil
		}

		replies := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			a.log.Info("assistant tool call", zap.String("call", describe(call.Name, call.Args)))
			out, err := a.tools.Call(ctx, call.Name, call.Args)
			if err != nil {
				return "", err
			}
			replies = append(replies, genai.FunctionResponse{Name: call.Name, Response: out})
		}
		if resp, err = session.SendMessage(ctx, replies...); err != nil {
			return "", err
		}
	}

	_, text, err := split(resp)
	if err != nil {
		return "", err
	}
	return text, nil
}

// split separates tool calls from the first text part of a response.
func split(resp *genai.GenerateContentResponse) ([]genai.FunctionCall, string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, "", ErrNoAnswer
	}
	var calls []genai.FunctionCall
	text := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.FunctionCall:
			calls = append(calls, p)
		case genai.Text:
			if text == "" {
				text = string(p)
			}
		}
	}
	if text == "" {
		text = "I completed the action."
	}
	return calls, text, nil
}
