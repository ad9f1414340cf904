// Package agentcore provides a memory.Driver backed by AWS Bedrock AgentCore
// Memory. Short-term turns are stored as conversational events; long-term
// records are extracted by the memory's configured strategies and retrieved
// by semantic search. Retention is enforced by the provider.
package agentcore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore/types"

	"github.com/papercomputeco/gridiron/pkg/memory"
)

// API is the subset of the AgentCore data plane client the driver uses.
type API interface {
	CreateEvent(ctx context.Context, in *bedrockagentcore.CreateEventInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.CreateEventOutput, error)
	ListEvents(ctx context.Context, in *bedrockagentcore.ListEventsInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.ListEventsOutput, error)
	RetrieveMemoryRecords(ctx context.Context, in *bedrockagentcore.RetrieveMemoryRecordsInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.RetrieveMemoryRecordsOutput, error)
}

// Config holds configuration for the AgentCore memory driver.
type Config struct {
	// MemoryID identifies the AgentCore memory resource.
	MemoryID string
}

// Driver implements memory.Driver against AgentCore Memory.
type Driver struct {
	client   API
	memoryID string
	logger   *slog.Logger
	now      func() time.Time
}

// NewDriver creates an AgentCore memory driver.
func NewDriver(client API, c Config, logger *slog.Logger) (*Driver, error) {
	if c.MemoryID == "" {
		return nil, memory.ErrNotConfigured
	}
	return &Driver{
		client:   client,
		memoryID: c.MemoryID,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// NewDriverFromConfig builds the AgentCore client from an AWS config.
func NewDriverFromConfig(cfg aws.Config, c Config, logger *slog.Logger) (*Driver, error) {
	return NewDriver(bedrockagentcore.NewFromConfig(cfg), c, logger)
}

// AppendTurns writes turns as a single conversational event.
func (d *Driver) AppendTurns(ctx context.Context, actorID, sessionID string, turns []memory.Turn) (string, error) {
	payload := make([]types.PayloadType, 0, len(turns))
	for _, t := range turns {
		payload = append(payload, &types.PayloadTypeMemberConversational{
			Value: types.Conversational{
				Content: &types.ContentMemberText{Value: t.Content},
				Role:    toRole(t.Role),
			},
		})
	}

	out, err := d.client.CreateEvent(ctx, &bedrockagentcore.CreateEventInput{
		MemoryId:       aws.String(d.memoryID),
		ActorId:        aws.String(actorID),
		SessionId:      aws.String(sessionID),
		EventTimestamp: aws.Time(d.now()),
		Payload:        payload,
	})
	if err != nil {
		return "", fmt.Errorf("%w: creating event: %v", memory.ErrStoreUnavailable, err)
	}
	if out.Event == nil || out.Event.EventId == nil {
		return "", nil
	}
	return *out.Event.EventId, nil
}

// RecentTurns lists the session's latest events and flattens their
// conversational payloads into chronological turns.
func (d *Driver) RecentTurns(ctx context.Context, actorID, sessionID string, limit int) ([]memory.Turn, error) {
	out, err := d.client.ListEvents(ctx, &bedrockagentcore.ListEventsInput{
		MemoryId:        aws.String(d.memoryID),
		ActorId:         aws.String(actorID),
		SessionId:       aws.String(sessionID),
		MaxResults:      aws.Int32(int32(limit)),
		IncludePayloads: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing events: %v", memory.ErrStoreUnavailable, err)
	}

	events := out.Events
	sort.SliceStable(events, func(i, j int) bool {
		return aws.ToTime(events[i].EventTimestamp).Before(aws.ToTime(events[j].EventTimestamp))
	})

	var turns []memory.Turn
	for _, ev := range events {
		for _, item := range ev.Payload {
			conv, ok := item.(*types.PayloadTypeMemberConversational)
			if !ok {
				continue
			}
			turns = append(turns, memory.Turn{
				Role:      memory.Role(conv.Value.Role),
				Content:   contentText(conv.Value.Content),
				ActorID:   actorID,
				SessionID: sessionID,
				CreatedAt: aws.ToTime(ev.EventTimestamp),
			})
		}
	}

	return memory.LastTurns(turns, limit), nil
}

// SearchLongTerm retrieves extracted memory records from namespace.
func (d *Driver) SearchLongTerm(ctx context.Context, query, namespace string, topK int) ([]memory.Record, error) {
	out, err := d.client.RetrieveMemoryRecords(ctx, &bedrockagentcore.RetrieveMemoryRecordsInput{
		MemoryId:  aws.String(d.memoryID),
		Namespace: aws.String(namespace),
		SearchCriteria: &types.SearchCriteria{
			SearchQuery: aws.String(query),
			TopK:        aws.Int32(int32(topK)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: retrieving memory records: %v", memory.ErrStoreUnavailable, err)
	}

	records := make([]memory.Record, 0, len(out.MemoryRecordSummaries))
	for _, s := range out.MemoryRecordSummaries {
		records = append(records, memory.Record{
			ID:        aws.ToString(s.MemoryRecordId),
			Content:   recordText(s.Content),
			Namespace: namespace,
			Score:     s.Score,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return scoreOf(records[i]) > scoreOf(records[j])
	})

	d.logger.Debug("retrieved agentcore records",
		"namespace", namespace,
		"records", len(records),
	)
	return records, nil
}

// Close is a no-op; the AWS client holds no releasable resources.
func (d *Driver) Close() error {
	return nil
}

func toRole(r memory.Role) types.Role {
	if r == memory.RoleAssistant {
		return types.RoleAssistant
	}
	return types.RoleUser
}

func contentText(c types.Content) string {
	if t, ok := c.(*types.ContentMemberText); ok {
		return t.Value
	}
	return ""
}

func recordText(c types.MemoryContent) string {
	if t, ok := c.(*types.MemoryContentMemberText); ok {
		return t.Value
	}
	return ""
}

// scoreOf orders unscored records after scored ones.
func scoreOf(r memory.Record) float64 {
	if r.Score == nil {
		return -1
	}
	return *r.Score
}

var _ memory.Driver = (*Driver)(nil)
