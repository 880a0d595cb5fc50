// Command xmldelta compares two XML documents three ways: structurally,
// line by line over the canonical serialization, and as table/field
// schemas. Extracted schemas can also be stored as named baselines and
// diffed against later documents.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/xmldelta/xmldelta/core/linediff"
	"github.com/xmldelta/xmldelta/core/schemadiff"
	"github.com/xmldelta/xmldelta/core/sqlite"
	"github.com/xmldelta/xmldelta/core/treealign"
	"github.com/xmldelta/xmldelta/core/treediff"
	"github.com/xmldelta/xmldelta/core/xmltree"
	"github.com/xmldelta/xmldelta/internal/baseline"
	"github.com/xmldelta/xmldelta/internal/input"
	"github.com/xmldelta/xmldelta/internal/logging"
	"github.com/xmldelta/xmldelta/internal/pipeline"
	"github.com/xmldelta/xmldelta/internal/profile"
)

const version = "0.1.0"

// errDifferences marks a successful run that found changes. main maps it
// to exit code 1 without printing anything.
var errDifferences = errors.New("differences found")

// CLI defines the command-line interface for xmldelta.
var CLI struct {
	// Global flags
	Select    string `help:"XPath expression; diff the first matching element instead of the root" placeholder:"XPATH"`
	Strict    bool   `help:"Treat mixed-content warnings as parse failures"`
	MaxCells  int    `name:"max-cells" help:"Line differ LCS budget (0 uses the default)"`
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" default:"json" enum:"json,text" help:"Log format"`
	DB        string `name:"db" default:"xmldelta.db" help:"Baseline database path" type:"path"`

	Tree     TreeCmd       `cmd:"" help:"Structural diff of two documents"`
	Lines    LinesCmd      `cmd:"" help:"Line diff of the canonical serializations"`
	Schema   SchemaCmd     `cmd:"" help:"Table/field schema diff"`
	Report   ReportCmd     `cmd:"" help:"Full JSON report for a document pair"`
	Baseline BaselineGroup `cmd:"" help:"Schema baseline storage (save, list, delete)"`
	Version  VersionCmd    `cmd:"" help:"Print version information"`
}

// BaselineGroup contains baseline storage operations.
type BaselineGroup struct {
	Save   BaselineSaveCmd   `cmd:"" help:"Extract a document's schema and store it under a name"`
	List   BaselineListCmd   `cmd:"" help:"List stored baselines"`
	Delete BaselineDeleteCmd `cmd:"" help:"Delete a stored baseline"`
}

func parseOptions() xmltree.Options {
	return xmltree.Options{Strict: CLI.Strict, Select: CLI.Select}
}

// loadAndParse loads one document and builds its canonical tree.
func loadAndParse(path string) (*input.Input, xmltree.Result, error) {
	in, err := input.Load(path)
	if err != nil {
		return nil, xmltree.Result{}, err
	}
	res := xmltree.Parse(in.Text, parseOptions())
	if !res.Success {
		return nil, res, fmt.Errorf("failed to parse %s: %w", path, res.Err)
	}
	if len(res.Warnings) > 0 {
		logging.ParseWarnings(context.Background(), path, len(res.Warnings), res.MixedCount)
	}
	return in, res, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func changeMarker(t treediff.ChangeType) string {
	switch t {
	case treediff.Added:
		return "+"
	case treediff.Removed:
		return "-"
	case treediff.Modified:
		return "~"
	}
	return " "
}

// TreeCmd diffs the element trees of two documents.
type TreeCmd struct {
	Old  string `arg:"" help:"Old document" type:"existingfile"`
	New  string `arg:"" help:"New document" type:"existingfile"`
	JSON bool   `help:"Output entries and aligned trees as JSON"`
}

func (c *TreeCmd) Run() error {
	_, oldRes, err := loadAndParse(c.Old)
	if err != nil {
		return err
	}
	_, newRes, err := loadAndParse(c.New)
	if err != nil {
		return err
	}

	entries := treediff.Diff(oldRes.Root, newRes.Root)
	stats := treediff.Summarize(entries)

	if c.JSON {
		oldTree, newTree := treealign.Align(oldRes.Root, newRes.Root, entries)
		if err := printJSON(pipeline.TreeSection{
			Entries: entries,
			Stats:   stats,
			OldTree: oldTree,
			NewTree: newTree,
		}); err != nil {
			return err
		}
	} else {
		for _, e := range entries {
			printTreeEntry(e)
		}
		fmt.Printf("Summary: %d added, %d removed, %d modified, %d unchanged\n",
			stats.Added, stats.Removed, stats.Modified, stats.Unchanged)
	}

	if stats.Changed() {
		return errDifferences
	}
	return nil
}

func printTreeEntry(e treediff.Entry) {
	if e.Type == treediff.Unchanged {
		return
	}
	fmt.Printf("%s %s\n", changeMarker(e.Type), e.Path)
	for _, ac := range e.AttrChanges {
		switch ac.Type {
		case treediff.Added:
			fmt.Printf("    +%s=%q\n", ac.Name, ac.NewValue)
		case treediff.Removed:
			fmt.Printf("    -%s=%q\n", ac.Name, ac.OldValue)
		default:
			fmt.Printf("    %s: %q -> %q\n", ac.Name, ac.OldValue, ac.NewValue)
		}
	}
	if e.Type == treediff.Modified && e.OldValue != e.NewValue {
		fmt.Printf("    value: %q -> %q\n", e.OldValue, e.NewValue)
	}
}

// LinesCmd diffs the canonical serializations line by line.
type LinesCmd struct {
	Old  string `arg:"" help:"Old document" type:"existingfile"`
	New  string `arg:"" help:"New document" type:"existingfile"`
	JSON bool   `help:"Output the edit script as JSON"`
}

func (c *LinesCmd) Run() error {
	_, oldRes, err := loadAndParse(c.Old)
	if err != nil {
		return err
	}
	_, newRes, err := loadAndParse(c.New)
	if err != nil {
		return err
	}

	oldLines := xmltree.SerializeLines(oldRes.Root)
	newLines := xmltree.SerializeLines(newRes.Root)

	var opts []linediff.Option
	if CLI.MaxCells > 0 {
		opts = append(opts, linediff.MaxCells(CLI.MaxCells))
	}
	res := linediff.Diff(oldLines, newLines, opts...)
	stats := linediff.Summarize(res.Edits)

	if c.JSON {
		if err := printJSON(pipeline.LineSection{
			Edits:  res.Edits,
			Coarse: res.Coarse,
			Stats:  stats,
			Inline: linediff.SummarizeInline(res.Edits),
		}); err != nil {
			return err
		}
	} else {
		if res.Coarse {
			fmt.Println("(coarse diff: inputs exceeded the LCS budget)")
		}
		for _, e := range res.Edits {
			switch e.Op {
			case linediff.OpDelete:
				fmt.Printf("- %s\n", e.Text)
			case linediff.OpInsert:
				fmt.Printf("+ %s\n", e.Text)
			default:
				fmt.Printf("  %s\n", e.Text)
			}
		}
		fmt.Printf("Summary: %d equal, %d added, %d removed, %d modified\n",
			stats.Equal, stats.Added, stats.Removed, stats.Modified)
	}

	if stats.Changed() {
		return errDifferences
	}
	return nil
}

// SchemaCmd diffs extracted table/field schemas. With --baseline the old
// side comes from the store and exactly one document is expected.
type SchemaCmd struct {
	Docs     []string `arg:"" name:"doc" help:"Documents to compare (two, or one with --baseline)" type:"existingfile"`
	Profile  string   `help:"Extraction profile (JSON or YAML)" type:"existingfile"`
	Baseline string   `help:"Diff against a stored baseline instead of a second document"`
	JSON     bool     `help:"Output items and stats as JSON"`
}

func (c *SchemaCmd) Run() error {
	cfg, err := schemaConfig(c.Profile)
	if err != nil {
		return err
	}

	var oldTables, newTables map[string]schemadiff.TableDef
	if c.Baseline != "" {
		if len(c.Docs) != 1 {
			return fmt.Errorf("--baseline compares one document against the store, got %d documents", len(c.Docs))
		}
		store, err := baseline.Open(CLI.DB)
		if err != nil {
			return err
		}
		defer store.Close()
		oldTables, _, err = store.Load(context.Background(), c.Baseline)
		if err != nil {
			return err
		}
		newTables, err = extractSchema(c.Docs[0], cfg)
		if err != nil {
			return err
		}
	} else {
		if len(c.Docs) != 2 {
			return fmt.Errorf("expected two documents, got %d", len(c.Docs))
		}
		oldTables, err = extractSchema(c.Docs[0], cfg)
		if err != nil {
			return err
		}
		newTables, err = extractSchema(c.Docs[1], cfg)
		if err != nil {
			return err
		}
	}

	res := schemadiff.DiffSchemas(oldTables, newTables)

	if c.JSON {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		printSchemaItems(res.Items)
		fmt.Printf("Tables: %d added, %d removed, %d modified, %d unchanged\n",
			res.Stats.TableAdded, res.Stats.TableRemoved, res.Stats.TableModified, res.Stats.TableUnchanged)
		fmt.Printf("Fields: %d added, %d removed, %d modified, %d unchanged\n",
			res.Stats.FieldAdded, res.Stats.FieldRemoved, res.Stats.FieldModified, res.Stats.FieldUnchanged)
	}

	if res.Stats.Changed() {
		return errDifferences
	}
	return nil
}

func schemaConfig(profilePath string) (schemadiff.Config, error) {
	if profilePath == "" {
		return schemadiff.DefaultConfig(), nil
	}
	return profile.Load(profilePath)
}

func extractSchema(path string, cfg schemadiff.Config) (map[string]schemadiff.TableDef, error) {
	_, res, err := loadAndParse(path)
	if err != nil {
		return nil, err
	}
	return schemadiff.Extract(res.Root, cfg), nil
}

func printSchemaItems(items []schemadiff.Item) {
	for _, it := range items {
		if it.Type == schemadiff.Unchanged {
			continue
		}
		switch it.Kind {
		case schemadiff.KindTable:
			fmt.Printf("%s table %s\n", schemaMarker(it.Type), it.Table)
		case schemadiff.KindField:
			fmt.Printf("  %s field %s.%s\n", schemaMarker(it.Type), it.Table, it.Field)
			for _, ac := range it.AttrChanges {
				switch ac.Type {
				case schemadiff.Added:
					fmt.Printf("      +%s=%q\n", ac.Name, ac.NewValue)
				case schemadiff.Removed:
					fmt.Printf("      -%s=%q\n", ac.Name, ac.OldValue)
				default:
					fmt.Printf("      %s: %q -> %q\n", ac.Name, ac.OldValue, ac.NewValue)
				}
			}
		}
	}
}

func schemaMarker(t schemadiff.ChangeType) string {
	switch t {
	case schemadiff.Added:
		return "+"
	case schemadiff.Removed:
		return "-"
	case schemadiff.Modified:
		return "~"
	}
	return " "
}

// ReportCmd runs the whole pipeline and emits one JSON report.
type ReportCmd struct {
	Old     string `arg:"" help:"Old document" type:"existingfile"`
	New     string `arg:"" help:"New document" type:"existingfile"`
	Profile string `help:"Extraction profile for the schema section" type:"existingfile"`
	Out     string `short:"o" help:"Write the report to a file instead of stdout" type:"path"`
}

func (c *ReportCmd) Run() error {
	cfg, err := schemaConfig(c.Profile)
	if err != nil {
		return err
	}
	oldIn, err := input.Load(c.Old)
	if err != nil {
		return err
	}
	newIn, err := input.Load(c.New)
	if err != nil {
		return err
	}

	rep, err := pipeline.Run(context.Background(), oldIn, newIn, pipeline.Options{
		Parse:    parseOptions(),
		MaxCells: CLI.MaxCells,
		Schema:   cfg,
	})
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	if c.Out != "" {
		if err := os.WriteFile(c.Out, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	} else {
		fmt.Println(string(data))
	}

	if rep.HasChanges {
		return errDifferences
	}
	return nil
}

// BaselineSaveCmd snapshots one document's schema into the store.
type BaselineSaveCmd struct {
	Name    string `arg:"" help:"Baseline name"`
	Doc     string `arg:"" help:"Document to snapshot" type:"existingfile"`
	Profile string `help:"Extraction profile (JSON or YAML)" type:"existingfile"`
}

func (c *BaselineSaveCmd) Run() error {
	cfg, err := schemaConfig(c.Profile)
	if err != nil {
		return err
	}
	in, res, err := loadAndParse(c.Doc)
	if err != nil {
		return err
	}
	tables := schemadiff.Extract(res.Root, cfg)

	store, err := baseline.Open(CLI.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	src := baseline.Source{Path: c.Doc, Digest: in.Digest, Profile: c.Profile}
	if err := store.Save(context.Background(), c.Name, tables, src); err != nil {
		return err
	}

	fields := 0
	for _, tbl := range tables {
		fields += len(tbl.Fields)
	}
	fmt.Printf("Saved baseline: %s\n", c.Name)
	fmt.Printf("  Source: %s\n", c.Doc)
	fmt.Printf("  Digest: %s\n", in.Digest)
	fmt.Printf("  Tables: %d\n", len(tables))
	fmt.Printf("  Fields: %d\n", fields)
	return nil
}

// BaselineListCmd lists stored baselines.
type BaselineListCmd struct {
	JSON bool `help:"Output as JSON"`
}

func (c *BaselineListCmd) Run() error {
	store, err := baseline.Open(CLI.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	metas, err := store.List(context.Background())
	if err != nil {
		return err
	}

	if c.JSON {
		return printJSON(metas)
	}
	if len(metas) == 0 {
		fmt.Printf("No baselines in %s\n", CLI.DB)
		return nil
	}
	fmt.Printf("Baselines in %s:\n\n", CLI.DB)
	for _, m := range metas {
		fmt.Printf("  %s\n", m.Name)
		fmt.Printf("    Created: %s\n", m.CreatedAt.Format("2006-01-02 15:04:05"))
		if m.SourcePath != "" {
			fmt.Printf("    Source:  %s\n", m.SourcePath)
		}
		if m.Profile != "" {
			fmt.Printf("    Profile: %s\n", m.Profile)
		}
		fmt.Printf("    Tables:  %d, Fields: %d\n", m.Tables, m.Fields)
		fmt.Println()
	}
	fmt.Printf("Total: %d baseline(s)\n", len(metas))
	return nil
}

// BaselineDeleteCmd removes a stored baseline.
type BaselineDeleteCmd struct {
	Name string `arg:"" help:"Baseline name"`
}

func (c *BaselineDeleteCmd) Run() error {
	store, err := baseline.Open(CLI.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(context.Background(), c.Name); err != nil {
		return err
	}
	fmt.Printf("Deleted baseline: %s\n", c.Name)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct {
	JSON bool `help:"Output as JSON"`
}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	if c.JSON {
		return printJSON(map[string]any{
			"version": version,
			"sqlite":  info,
		})
	}
	fmt.Printf("xmldelta %s\n", version)
	fmt.Printf("  SQLite driver: %s (%s, %s)\n", info.DriverName, info.DriverType, info.Package)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("xmldelta"),
		kong.Description("XML diff engine - structural, line, and schema comparison"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))

	err := ctx.Run()
	if err == nil {
		return
	}
	if errors.Is(err, errDifferences) {
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "xmldelta: error: %v\n", err)
	os.Exit(2)
}
