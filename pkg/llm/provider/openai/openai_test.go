package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gridiron/pkg/llm"
	"github.com/papercomputeco/gridiron/pkg/llm/provider"
	"github.com/papercomputeco/gridiron/pkg/llm/provider/openai"
	"github.com/papercomputeco/gridiron/pkg/logger"
)

const completionResponse = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"model": "gpt-test",
	"choices": [{
		"index": 0,
		"message": {
			"role": "assistant",
			"content": "",
			"tool_calls": [{
				"id": "call_1",
				"type": "function",
				"function": {"name": "espn_matchup", "arguments": "{\"team1\":\"BUF\",\"team2\":\"KC\"}"}
			}]
		},
		"finish_reason": "tool_calls"
	}],
	"usage": {"prompt_tokens": 40, "completion_tokens": 10, "total_tokens": 50}
}`

const streamResponse = `data: {"id":"c","object":"chat.completion.chunk","model":"gpt-test","choices":[{"index":0,"delta":{"role":"assistant","content":"Chiefs "}}]}

data: {"id":"c","object":"chat.completion.chunk","model":"gpt-test","choices":[{"index":0,"delta":{"content":"by three."}}]}

data: {"id":"c","object":"chat.completion.chunk","model":"gpt-test","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_9","type":"function","function":{"name":"rag_search","arguments":"{\"query\":"}}]}}]}

data: {"id":"c","object":"chat.completion.chunk","model":"gpt-test","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"Chiefs\"}"}}]}}]}

data: {"id":"c","object":"chat.completion.chunk","model":"gpt-test","choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}

data: [DONE]

`

type capture struct {
	mu   sync.Mutex
	body map[string]any
}

func (c *capture) set(b map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.body = b
}

func (c *capture) get() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.body
}

var _ = Describe("OpenAI Provider", func() {
	var (
		ctx      context.Context
		server   *httptest.Server
		captured *capture
		payload  string
		stream   bool
	)

	BeforeEach(func() {
		ctx = context.Background()
		captured = &capture{}
		payload = completionResponse
		stream = false

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			var body map[string]any
			_ = json.Unmarshal(raw, &body)
			captured.set(body)

			if stream {
				w.Header().Set("Content-Type", "text/event-stream")
			} else {
				w.Header().Set("Content-Type", "application/json")
			}
			_, _ = io.WriteString(w, payload)
		}))
		DeferCleanup(server.Close)
	})

	newProvider := func() *openai.Provider {
		return openai.New(openai.Config{APIKey: "test", BaseURL: server.URL + "/v1"}, logger.Nop())
	}

	request := func() *llm.ChatRequest {
		return &llm.ChatRequest{
			Model:    "gpt-test",
			System:   "You are an NFL analyst.",
			Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "Bills or Chiefs?")},
			Tools: []llm.ToolDefinition{{
				Name:       "espn_matchup",
				Properties: map[string]any{"team1": map[string]any{"type": "string"}},
				Required:   []string{"team1"},
			}},
		}
	}

	It("defaults its name to openai", func() {
		Expect(newProvider().Name()).To(Equal("openai"))
	})

	It("satisfies the provider contract", func() {
		var _ provider.Provider = newProvider()
	})

	Describe("Chat", func() {
		It("sends the system prompt as the first message and tools as functions", func() {
			_, err := newProvider().Chat(ctx, request())
			Expect(err).NotTo(HaveOccurred())

			body := captured.get()
			msgs := body["messages"].([]any)
			Expect(msgs[0].(map[string]any)["role"]).To(Equal("system"))
			Expect(msgs[1].(map[string]any)["content"]).To(Equal("Bills or Chiefs?"))

			tool := body["tools"].([]any)[0].(map[string]any)
			Expect(tool["type"]).To(Equal("function"))
			fn := tool["function"].(map[string]any)
			Expect(fn["name"]).To(Equal("espn_matchup"))
			Expect(fn["parameters"].(map[string]any)["type"]).To(Equal("object"))
		})

		It("maps tool calls and finish reasons", func() {
			resp, err := newProvider().Chat(ctx, request())
			Expect(err).NotTo(HaveOccurred())

			Expect(resp.StopReason).To(Equal(llm.StopToolUse))
			uses := resp.Message.ToolUses()
			Expect(uses).To(HaveLen(1))
			Expect(uses[0].ToolUseID).To(Equal("call_1"))
			Expect(uses[0].ToolInput).To(Equal(map[string]any{"team1": "BUF", "team2": "KC"}))
			Expect(resp.Usage.TotalTokens).To(Equal(50))
		})

		It("sends tool results as tool messages", func() {
			req := request()
			req.Messages = append(req.Messages,
				llm.Message{Role: llm.RoleAssistant, Content: []llm.ContentBlock{{
					Type: llm.BlockToolUse, ToolUseID: "call_1", ToolName: "espn_matchup",
					ToolInput: map[string]any{"team1": "BUF"},
				}}},
				llm.Message{Role: llm.RoleUser, Content: []llm.ContentBlock{
					llm.NewToolResult("call_1", "timeout", true),
				}},
			)

			_, err := newProvider().Chat(ctx, req)
			Expect(err).NotTo(HaveOccurred())

			msgs := captured.get()["messages"].([]any)
			assistant := msgs[2].(map[string]any)
			Expect(assistant["tool_calls"]).To(HaveLen(1))
			tool := msgs[3].(map[string]any)
			Expect(tool["role"]).To(Equal("tool"))
			Expect(tool["tool_call_id"]).To(Equal("call_1"))
			Expect(tool["content"]).To(Equal("Error: timeout"))
		})
	})

	Describe("ChatStream", func() {
		BeforeEach(func() {
			stream = true
			payload = streamResponse
		})

		It("forwards content deltas and merges tool call fragments", func() {
			var deltas []string
			resp, err := newProvider().ChatStream(ctx, request(), func(c llm.StreamChunk) error {
				deltas = append(deltas, c.Text)
				return nil
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(deltas).To(Equal([]string{"Chiefs ", "by three."}))
			Expect(resp.Message.GetText()).To(Equal("Chiefs by three."))
			Expect(resp.StopReason).To(Equal(llm.StopToolUse))

			uses := resp.Message.ToolUses()
			Expect(uses).To(HaveLen(1))
			Expect(uses[0].ToolUseID).To(Equal("call_9"))
			Expect(uses[0].ToolInput).To(Equal(map[string]any{"query": "Chiefs"}))
		})
	})
})
