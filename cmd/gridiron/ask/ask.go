// Package askcmder provides the ask command, a terminal client for a running
// gridiron service.
package askcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gridiron/api"
	"github.com/papercomputeco/gridiron/pkg/cliui"
	"github.com/papercomputeco/gridiron/pkg/sse"
	"github.com/papercomputeco/gridiron/pkg/utils"
)

// DefaultAPITarget is the address of a locally running service.
const DefaultAPITarget = "http://localhost:8080"

// ErrStreamIncomplete is returned when the event stream ends without a
// terminal event.
var ErrStreamIncomplete = errors.New("answer stream ended early")

type askCommander struct {
	apiTarget string
	actorID   string
	sessionID string
	markdown  bool
	trace     bool
}

const askLongDesc string = `Ask a running gridiron service a question.

The answer is streamed as it is produced. With --markdown the full answer is
rendered for the terminal once complete. With --trace the tool calls made
while answering are listed after the answer.

Examples:
  gridiron ask "Who is favored in the AFC Championship?"
  gridiron ask "How has Josh Allen played this season?" --markdown
  gridiron ask "Compare the Chiefs and Bills" --actor alice --session s-1 --trace`

const askShortDesc string = "Ask a running gridiron service"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return cmder.run(ctx, cmd.OutOrStdout(), strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", DefaultAPITarget, "Gridiron service URL")
	cmd.Flags().StringVar(&cmder.actorID, "actor", "", "Actor id used for memory")
	cmd.Flags().StringVar(&cmder.sessionID, "session", "", "Session id used for memory")
	cmd.Flags().BoolVar(&cmder.markdown, "markdown", false, "Render the finished answer as markdown")
	cmd.Flags().BoolVar(&cmder.trace, "trace", false, "List tool calls made while answering")

	return cmd
}

func (c *askCommander) run(ctx context.Context, w io.Writer, question string) error {
	req := api.InvocationRequest{
		Prompt:    question,
		Stream:    true,
		Debug:     c.trace,
		ActorID:   c.actorID,
		SessionID: c.sessionID,
	}

	var onDelta func(string)
	if !c.markdown {
		onDelta = func(text string) { fmt.Fprint(w, text) }
	}

	done, err := Ask(ctx, http.DefaultClient, c.apiTarget, req, onDelta)
	if err != nil {
		if !c.markdown {
			fmt.Fprintln(w)
		}
		return err
	}

	if c.markdown {
		rendered, err := cliui.RenderMarkdown(done.FullText)
		if err != nil {
			fmt.Fprintln(w, done.FullText)
		} else {
			fmt.Fprint(w, rendered)
		}
	} else {
		fmt.Fprintln(w)
	}

	if c.trace {
		printTrace(w, done)
	}
	return nil
}

// Ask posts req to the service's invocations endpoint as a streaming request.
// Each delta is passed to onDelta, which may be nil. It returns the terminal
// done event, or the error carried by an error event.
func Ask(ctx context.Context, client *http.Client, target string, req api.InvocationRequest, onDelta func(string)) (*api.DoneEvent, error) {
	endpoint, err := url.JoinPath(target, "invocations")
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}

	req.Stream = true
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gridiron at %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody api.ErrorResponse
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &errBody) == nil && errBody.Error != "" {
			return nil, fmt.Errorf("request failed (HTTP %d): %s", resp.StatusCode, errBody.Error)
		}
		return nil, fmt.Errorf("request failed (HTTP %d): %s", resp.StatusCode, string(raw))
	}

	reader := sse.NewReader(resp.Body)
	for {
		ev, err := reader.Next()
		if err != nil {
			return nil, fmt.Errorf("reading answer stream: %w", err)
		}
		if ev == nil {
			return nil, ErrStreamIncomplete
		}

		switch ev.Type {
		case "delta":
			var delta api.DeltaEvent
			if err := json.Unmarshal([]byte(ev.Data), &delta); err != nil {
				return nil, fmt.Errorf("decoding delta: %w", err)
			}
			if onDelta != nil {
				onDelta(delta.Text)
			}
		case "done":
			var done api.DoneEvent
			if err := json.Unmarshal([]byte(ev.Data), &done); err != nil {
				return nil, fmt.Errorf("decoding done event: %w", err)
			}
			return &done, nil
		case "error":
			var errBody api.ErrorResponse
			if err := json.Unmarshal([]byte(ev.Data), &errBody); err != nil {
				return nil, fmt.Errorf("answer failed: %s", ev.Data)
			}
			return nil, fmt.Errorf("answer failed: %s", errBody.Error)
		}
	}
}

func printTrace(w io.Writer, done *api.DoneEvent) {
	fmt.Fprintf(w, "\n  %s %s\n",
		cliui.KeyStyle.Render("Stop reason:"),
		cliui.DimStyle.Render(done.StopReason),
	)
	if len(done.Debug) == 0 {
		fmt.Fprintf(w, "  %s\n\n", cliui.DimStyle.Render("No tools were called."))
		return
	}

	for _, entry := range done.Debug {
		data, _ := json.Marshal(entry.Data)
		preview := utils.Truncate(string(data), 117)
		fmt.Fprintf(w, "  %s %s %s\n",
			cliui.KeyStyle.Render(entry.Tool),
			cliui.DimStyle.Render(string(entry.Phase)),
			cliui.ValueStyle.Render(preview),
		)
	}
	fmt.Fprintln(w)
}

