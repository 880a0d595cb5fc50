// Package pipeline runs the full diff sequence for one document pair and
// assembles the result into a single serializable report.
//
// Stages run in a fixed order: parse both sides, structural diff, tree
// alignment, canonical serialization, line diff, schema diff. Stage
// timings go to debug logs; the report itself carries only results.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/xmldelta/xmldelta/core/errors"
	"github.com/xmldelta/xmldelta/core/linediff"
	"github.com/xmldelta/xmldelta/core/schemadiff"
	"github.com/xmldelta/xmldelta/core/treealign"
	"github.com/xmldelta/xmldelta/core/treediff"
	"github.com/xmldelta/xmldelta/core/xmltree"
	"github.com/xmldelta/xmldelta/internal/input"
	"github.com/xmldelta/xmldelta/internal/logging"
)

// Options controls a pipeline run.
type Options struct {
	// Parse is applied to both inputs.
	Parse xmltree.Options
	// MaxCells overrides the line differ's LCS budget when positive.
	MaxCells int
	// Schema configures table/field extraction. The zero value means
	// extractor defaults.
	Schema schemadiff.Config
}

// InputSummary records one input's provenance and parse outcome.
type InputSummary struct {
	Path        string            `json:"path"`
	Bytes       int64             `json:"bytes"`
	Digest      string            `json:"digest"`
	Encoding    string            `json:"encoding"`
	Compression string            `json:"compression"`
	Warnings    []xmltree.Warning `json:"warnings,omitempty"`
	MixedCount  int               `json:"mixedCount,omitempty"`
}

// TreeSection holds the structural diff and the aligned display trees.
type TreeSection struct {
	Entries []treediff.Entry    `json:"entries"`
	Stats   treediff.Stats      `json:"stats"`
	OldTree *treealign.TreeNode `json:"oldTree"`
	NewTree *treealign.TreeNode `json:"newTree"`
}

// LineSection holds the canonical-text line diff.
type LineSection struct {
	Edits  []linediff.Edit      `json:"edits"`
	Coarse bool                 `json:"coarse,omitempty"`
	Stats  linediff.Stats       `json:"stats"`
	Inline linediff.InlineStats `json:"inline"`
}

// Report is the complete outcome of one run.
type Report struct {
	ID          string            `json:"id"`
	GeneratedAt string            `json:"generatedAt"`
	Old         InputSummary      `json:"old"`
	New         InputSummary      `json:"new"`
	Tree        TreeSection       `json:"tree"`
	Lines       LineSection       `json:"lines"`
	Schema      schemadiff.Result `json:"schema"`
	HasChanges  bool              `json:"hasChanges"`
}

// Run diffs oldIn against newIn and returns the assembled report. Parse
// failures on either side abort the run.
func Run(ctx context.Context, oldIn, newIn *input.Input, opts Options) (*Report, error) {
	rep := &Report{
		ID:          uuid.New().String(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	ctx = logging.WithReportID(ctx, rep.ID)

	oldRes, err := parseSide(ctx, "old", oldIn, opts.Parse)
	if err != nil {
		return nil, err
	}
	newRes, err := parseSide(ctx, "new", newIn, opts.Parse)
	if err != nil {
		return nil, err
	}
	rep.Old = summarize(oldIn, oldRes)
	rep.New = summarize(newIn, newRes)

	start := time.Now()
	entries := treediff.Diff(oldRes.Root, newRes.Root)
	treeStats := treediff.Summarize(entries)
	logging.PipelineStage(ctx, "tree_diff", time.Since(start), "entries", len(entries))

	start = time.Now()
	oldTree, newTree := treealign.Align(oldRes.Root, newRes.Root, entries)
	logging.PipelineStage(ctx, "align", time.Since(start))

	rep.Tree = TreeSection{
		Entries: entries,
		Stats:   treeStats,
		OldTree: oldTree,
		NewTree: newTree,
	}

	start = time.Now()
	oldLines := xmltree.SerializeLines(oldRes.Root)
	newLines := xmltree.SerializeLines(newRes.Root)
	logging.PipelineStage(ctx, "serialize", time.Since(start),
		"old_lines", len(oldLines), "new_lines", len(newLines))

	start = time.Now()
	var lineOpts []linediff.Option
	if opts.MaxCells > 0 {
		lineOpts = append(lineOpts, linediff.MaxCells(opts.MaxCells))
	}
	lineRes := linediff.Diff(oldLines, newLines, lineOpts...)
	lineStats := linediff.Summarize(lineRes.Edits)
	logging.PipelineStage(ctx, "line_diff", time.Since(start),
		"edits", len(lineRes.Edits), "coarse", lineRes.Coarse)

	rep.Lines = LineSection{
		Edits:  lineRes.Edits,
		Coarse: lineRes.Coarse,
		Stats:  lineStats,
		Inline: linediff.SummarizeInline(lineRes.Edits),
	}

	start = time.Now()
	oldTables := schemadiff.Extract(oldRes.Root, opts.Schema)
	newTables := schemadiff.Extract(newRes.Root, opts.Schema)
	rep.Schema = schemadiff.DiffSchemas(oldTables, newTables)
	logging.PipelineStage(ctx, "schema_diff", time.Since(start),
		"old_tables", len(oldTables), "new_tables", len(newTables))

	rep.HasChanges = treeStats.Changed() || lineStats.Changed() || rep.Schema.Stats.Changed()
	return rep, nil
}

func parseSide(ctx context.Context, side string, in *input.Input, opts xmltree.Options) (xmltree.Result, error) {
	start := time.Now()
	res := xmltree.Parse(in.Text, opts)
	logging.PipelineStage(ctx, "parse_"+side, time.Since(start), "path", in.Path)
	if !res.Success {
		return res, errors.Wrap(res.Err, "parsing "+side+" input "+in.Path)
	}
	if len(res.Warnings) > 0 {
		logging.ParseWarnings(ctx, side, len(res.Warnings), res.MixedCount)
	}
	return res, nil
}

func summarize(in *input.Input, res xmltree.Result) InputSummary {
	return InputSummary{
		Path:        in.Path,
		Bytes:       in.Bytes,
		Digest:      in.Digest,
		Encoding:    in.Encoding,
		Compression: in.Compression,
		Warnings:    res.Warnings,
		MixedCount:  res.MixedCount,
	}
}
