// Package ingestcmder provides the ingest command that loads knowledge-base
// chunks into the vector store.
package ingestcmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gridiron/cmd/gridiron/stack"
	"github.com/papercomputeco/gridiron/pkg/cliui"
	"github.com/papercomputeco/gridiron/pkg/config"
	"github.com/papercomputeco/gridiron/pkg/embeddings"
	"github.com/papercomputeco/gridiron/pkg/secrets"
	"github.com/papercomputeco/gridiron/pkg/vector"
)

// ErrNoChunks is returned for an input file without any usable chunk.
var ErrNoChunks = errors.New("no chunks to ingest")

// Input is one chunk in an ingest file.
type Input struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// Summary reports the outcome of one ingest run.
type Summary struct {
	Deleted  int64
	Embedded int
	Written  int
	Failures []vector.RecordError
	Total    int64
}

type ingestCommander struct {
	flags config.FlagSet

	replace  bool
	patterns []string

	debug          bool
	region         string
	secretsARN     string
	embeddingProv  string
	embeddingTgt   string
	embeddingModel string
	embeddingDims  uint
	vectorProv     string
	vectorTgt      string
}

var ingestFlags = []string{
	config.FlagDebug,
	config.FlagRegion,
	config.FlagSecretsARN,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
}

const ingestLongDesc string = `Load knowledge-base chunks into the vector store.

The input is a JSON array of {"category": "...", "text": "..."} objects.
Each chunk is embedded with the configured embedding provider and written
to the configured vector store. A chunk that fails to embed or write is
reported in the summary and never stops the run.

Use --replace to first remove every stored chunk whose category matches one
of the categories in the file, or --delete-pattern to name the patterns.

Examples:
  gridiron ingest playoffs.json
  gridiron ingest playoffs.json --replace
  gridiron ingest injuries.json --delete-pattern "Injury Report"`

const ingestShortDesc string = "Load knowledge-base chunks"

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{flags: config.Flags}

	cmd := &cobra.Command{
		Use:   "ingest <chunks.json>",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := stack.Load(cmd, ingestFlags)
			if err != nil {
				return err
			}
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), cfg, args[0])
		},
	}

	cmd.Flags().BoolVar(&cmder.replace, "replace", false, "Delete stored chunks sharing the file's categories before loading")
	cmd.Flags().StringSliceVar(&cmder.patterns, "delete-pattern", nil, "Delete stored chunks whose category contains this pattern before loading")

	config.AddBoolFlag(cmd, cmder.flags, config.FlagDebug, &cmder.debug)
	config.AddStringFlag(cmd, cmder.flags, config.FlagRegion, &cmder.region)
	config.AddStringFlag(cmd, cmder.flags, config.FlagSecretsARN, &cmder.secretsARN)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingProv, &cmder.embeddingProv)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingTgt, &cmder.embeddingTgt)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, cmder.flags, config.FlagEmbeddingDims, &cmder.embeddingDims)
	config.AddStringFlag(cmd, cmder.flags, config.FlagVectorStoreProv, &cmder.vectorProv)
	config.AddStringFlag(cmd, cmder.flags, config.FlagVectorStoreTgt, &cmder.vectorTgt)

	return cmd
}

func (c *ingestCommander) run(ctx context.Context, w io.Writer, cfg *config.Config, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := stack.NewLogger(cfg, true)

	inputs, err := ReadFile(path)
	if err != nil {
		return err
	}

	awsCfg, err := stack.AWS(ctx, cfg)
	if err != nil {
		return err
	}
	if err := stack.ApplySecrets(ctx, cfg, secrets.NewResolverFromConfig(awsCfg, log)); err != nil {
		return err
	}

	embedder, store, err := stack.KnowledgeBase(ctx, cfg, awsCfg, log)
	if err != nil {
		return err
	}
	defer embedder.Close()
	defer store.Close()

	patterns := c.patterns
	if c.replace {
		patterns = append(patterns, Categories(inputs)...)
	}

	summary, err := Ingest(ctx, w, embedder, store, inputs, patterns)
	if err != nil {
		return err
	}

	PrintSummary(w, summary)
	return nil
}

// ReadFile decodes an ingest file. Entries keep their file positions so
// failures can be reported against the file; blank entries are rejected
// later by Ingest.
func ReadFile(path string) ([]Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var raw []Input
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	for _, in := range raw {
		if strings.TrimSpace(in.Text) != "" {
			return raw, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoChunks, path)
}

// Categories returns the distinct non-empty categories in input order.
func Categories(inputs []Input) []string {
	seen := make(map[string]struct{}, len(inputs))
	var out []string
	for _, in := range inputs {
		if in.Category == "" {
			continue
		}
		if _, ok := seen[in.Category]; ok {
			continue
		}
		seen[in.Category] = struct{}{}
		out = append(out, in.Category)
	}
	return out
}

// Ingest deletes chunks matching patterns, then embeds and writes inputs.
// Blank entries and embedding failures are recorded per chunk like write
// failures. Every RecordError.Index is a position in inputs.
func Ingest(ctx context.Context, w io.Writer, embedder embeddings.Embedder, store vector.Driver, inputs []Input, patterns []string) (*Summary, error) {
	summary := &Summary{}

	if len(patterns) > 0 {
		err := cliui.Step(w, fmt.Sprintf("Deleting chunks matching %d patterns", len(patterns)), func() error {
			n, err := store.DeleteByCategory(ctx, patterns)
			summary.Deleted = n
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("deleting existing chunks: %w", err)
		}
	}

	var (
		chunks  []vector.Chunk
		indexes []int
	)
	_ = cliui.Step(w, fmt.Sprintf("Embedding %d chunks", len(inputs)), func() error {
		var firstErr error
		for i, in := range inputs {
			if strings.TrimSpace(in.Text) == "" {
				summary.Failures = append(summary.Failures, vector.RecordError{
					Index:    i,
					Category: in.Category,
					Err:      embeddings.ErrEmptyText,
				})
				continue
			}

			emb, err := embedder.Embed(ctx, in.Text)
			if err != nil {
				summary.Failures = append(summary.Failures, vector.RecordError{
					Index:    i,
					Category: in.Category,
					Err:      err,
				})
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			chunks = append(chunks, vector.Chunk{
				Category:  in.Category,
				Text:      in.Text,
				Embedding: emb,
			})
			indexes = append(indexes, i)
		}
		summary.Embedded = len(chunks)
		return firstErr
	})

	if len(chunks) > 0 {
		var result *vector.UpsertResult
		err := cliui.Step(w, fmt.Sprintf("Writing %d chunks", len(chunks)), func() error {
			var err error
			result, err = store.UpsertMany(ctx, chunks)
			if err == nil && len(result.Failures) > 0 {
				return result.Failures[0]
			}
			return err
		})
		if result == nil {
			return nil, fmt.Errorf("writing chunks: %w", err)
		}

		summary.Written = result.Written
		for _, f := range result.Failures {
			// UpsertMany indexes the embedded subset.
			if f.Index >= 0 && f.Index < len(indexes) {
				f.Index = indexes[f.Index]
			}
			summary.Failures = append(summary.Failures, f)
		}
	}

	total, err := store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting chunks: %w", err)
	}
	summary.Total = total

	return summary, nil
}

// PrintSummary writes the end-of-run report.
func PrintSummary(w io.Writer, s *Summary) {
	fmt.Fprintf(w, "\n  %s %s\n\n", cliui.SuccessMark, cliui.KeyStyle.Render("Ingestion complete"))

	row := func(label, value string) {
		fmt.Fprintf(w, "  %-10s %s\n", cliui.DimStyle.Render(label), cliui.ValueStyle.Render(value))
	}
	row("deleted", strconv.FormatInt(s.Deleted, 10))
	row("embedded", strconv.Itoa(s.Embedded))
	row("written", strconv.Itoa(s.Written))
	row("failed", strconv.Itoa(len(s.Failures)))
	row("stored", strconv.FormatInt(s.Total, 10))

	if len(s.Failures) > 0 {
		fmt.Fprintln(w)
		for _, f := range s.Failures {
			fmt.Fprintf(w, "  %s #%d %s\n", cliui.FailMark, f.Index, cliui.WarnStyle.Render(f.Error()))
		}
	}
	fmt.Fprintln(w)
}
