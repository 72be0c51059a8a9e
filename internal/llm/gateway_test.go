// File path: internal/llm/gateway_test.go
package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type scriptedProvider struct {
	responses []string
	calls     int
	lastSeen  []Message
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	p.lastSeen = messages
	if p.calls >= len(p.responses) {
		return "", errors.New("no scripted response left")
	}
	out := p.responses[p.calls]
	p.calls++
	return out, nil
}

func (p *scriptedProvider) Name() string { return "scripted" }

const validReply = `{"reply":"Thanks - which system handles reservations?",` +
	`"extractions":{"systems":[],"process_steps":[],"gaps":[],"journey_touchpoints":[],"sme_updates":{}},` +
	`"conflicts_detected":[],"open_questions":[],` +
	`"conversation_state":{"current_stage":"booking","should_move_to_next_stage":false,"stage_completion_estimate":0.2}}`

func TestGenerateParsesValidJSON(t *testing.T) {
	provider := &scriptedProvider{responses: []string{validReply}}
	reply, err := NewGateway(provider).Generate(context.Background(), "system", []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if reply.ConversationState.CurrentStage != "booking" {
		t.Fatalf("expected booking stage, got %q", reply.ConversationState.CurrentStage)
	}
	if provider.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", provider.calls)
	}
}

func TestGenerateStripsMarkdownFences(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"```json\n" + validReply + "\n```"}}
	reply, err := NewGateway(provider).Generate(context.Background(), "system", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(reply.Reply, "reservations") {
		t.Fatalf("unexpected reply: %q", reply.Reply)
	}
}

func TestGenerateRetriesOnceOnParseFailure(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"Sure! Here is the data you asked for.", validReply}}
	reply, err := NewGateway(provider).Generate(context.Background(), "system", []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if provider.calls != 2 {
		t.Fatalf("expected exactly 2 upstream calls, got %d", provider.calls)
	}
	if reply.Reply == "" {
		t.Fatalf("expected parsed reply")
	}
	// The corrective request carries the invalid output and an explicit
	// instruction.
	last := provider.lastSeen
	if len(last) < 3 {
		t.Fatalf("expected augmented retry transcript, got %d messages", len(last))
	}
	if last[len(last)-2].Role != "assistant" {
		t.Fatalf("expected invalid output echoed as assistant turn")
	}
	if !strings.Contains(last[len(last)-1].Content, "ONLY valid JSON") {
		t.Fatalf("expected correction instruction, got %q", last[len(last)-1].Content)
	}
}

func TestGenerateFailsAfterSecondParseFailure(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"nope", "still not json"}}
	_, err := NewGateway(provider).Generate(context.Background(), "system", nil)
	if err == nil {
		t.Fatalf("expected error after failed retry")
	}
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
	if !strings.Contains(err.Error(), "still not json") {
		t.Fatalf("expected raw sample in error, got %v", err)
	}
	if provider.calls != 2 {
		t.Fatalf("expected exactly 2 upstream calls, got %d", provider.calls)
	}
}

func TestGenerateSummaryDoesNotRetry(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"```\nPlain closing summary.\n```"}}
	reply, err := NewGateway(provider).GenerateSummary(context.Background(), "system", nil)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", provider.calls)
	}
	if reply.Reply != "Plain closing summary." {
		t.Fatalf("expected stripped raw text, got %q", reply.Reply)
	}
	if !reply.Extractions.Empty() {
		t.Fatalf("expected empty extractions on degraded summary")
	}
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		`{"a":1}`:                 `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range cases {
		if got := StripFences(in); got != want {
			t.Fatalf("StripFences(%q) = %q, want %q", in, got, want)
		}
	}
}
