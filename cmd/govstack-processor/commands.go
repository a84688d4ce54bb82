package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/davecgh/go-spew/spew"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/grid"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/jsonpath"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/mapper"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/mapping"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/registration"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/schema"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/validation"
)

func (e *env) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)

	return fs
}

func (e *env) fail(err error) int {
	e.logger.Error("Command failed", "error", err)
	return exitFailure
}

func (e *env) printJSON(v any) int {
	data, err := jsonpath.MarshalIndent(v)
	if err != nil {
		return e.fail(err)
	}

	_, _ = fmt.Fprintln(e.stdout, string(data))

	return exitOK
}

// mapOutput is the printed form of a mapping result.
type mapOutput struct {
	PrimaryKey   string                   `json:"primaryKey"`
	Main         mapper.Record            `json:"main"`
	Buckets      map[string]mapper.Record `json:"buckets,omitempty"`
	ParentFormID string                   `json:"parentFormId,omitempty"`
	Parent       mapper.Record            `json:"parent,omitempty"`
	Arrays       []arrayOutput            `json:"arrays,omitempty"`
}

type arrayOutput struct {
	Section     string          `json:"section"`
	Destination string          `json:"destination"`
	Rows        []mapper.Record `json:"rows"`
}

func runMap(e *env, args []string) int {
	fs := e.flags("map")
	mappingPath := fs.String("mapping", "", "mapping document (required)")
	serviceID := fs.String("service", "", "expected service id")
	dump := fs.Bool("dump", false, "dump the result structure instead of JSON")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if *mappingPath == "" {
		_, _ = fmt.Fprintln(e.stderr, "map: -mapping is required")
		return exitUsage
	}

	spec, err := mapping.LoadFile(*mappingPath, *serviceID)
	if err != nil {
		return e.fail(err)
	}

	body, err := e.readInput(fs.Arg(0))
	if err != nil {
		return e.fail(err)
	}

	doc, err := registration.DecodeRequest(body)
	if err != nil {
		return e.fail(err)
	}

	res, err := mapper.New(spec, mapper.WithLogger(e.logger)).Map(doc)
	if err != nil {
		return e.fail(err)
	}

	if *dump {
		spew.Fdump(e.stdout, res)
		return exitOK
	}

	out := mapOutput{
		PrimaryKey:   res.PrimaryKey,
		Main:         res.Main,
		Buckets:      res.Buckets,
		ParentFormID: res.ParentFormID,
		Parent:       res.Parent,
	}

	for _, a := range res.Arrays {
		out.Arrays = append(out.Arrays, arrayOutput{Section: a.Section, Destination: a.Destination, Rows: a.Rows})
	}

	return e.printJSON(out)
}

func runValidate(e *env, args []string) int {
	fs := e.flags("validate")
	rulesPath := fs.String("rules", "", "validation rule document; only the fixed checks run when empty")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	var rules *validation.Rules

	if *rulesPath != "" {
		var err error
		if rules, err = validation.LoadRulesFile(*rulesPath); err != nil {
			return e.fail(err)
		}
	}

	body, err := e.readInput(fs.Arg(0))
	if err != nil {
		return e.fail(err)
	}

	doc, err := registration.DecodeRequest(body)
	if err != nil {
		return e.fail(err)
	}

	result := validation.NewValidator(rules, validation.WithLogger(e.logger)).Validate(doc)

	if code := e.printJSON(result.ToMap()); code != exitOK {
		return code
	}

	if !result.Valid() {
		_, _ = fmt.Fprint(e.stderr, result.Summary())
		return exitFailure
	}

	return exitOK
}

func runCheck(e *env, args []string) int {
	fs := e.flags("check")
	mappingPath := fs.String("mapping", "", "mapping document (required)")
	serviceID := fs.String("service", "", "expected service id")
	dsn := fs.String("dsn", "", "PostgreSQL DSN; enables the destination column check")
	dbSchema := fs.String("schema", schema.DefaultSchema, "PostgreSQL schema of the form tables")
	tablePrefix := fs.String("table-prefix", schema.DefaultTablePrefix, "table name prefix of the form tables")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if *mappingPath == "" {
		_, _ = fmt.Fprintln(e.stderr, "check: -mapping is required")
		return exitUsage
	}

	spec, err := mapping.LoadFile(*mappingPath, *serviceID)
	if err != nil {
		return e.fail(err)
	}

	opts := []mapping.CheckOption{mapping.WithGrids(grid.NewResolver(spec))}

	if *dsn != "" {
		db, err := schema.Open(*dsn)
		if err != nil {
			return e.fail(err)
		}

		defer func() { _ = db.Close() }()

		opts = append(opts, mapping.WithColumns(schema.NewPostgresColumns(db,
			schema.WithSchema(*dbSchema), schema.WithTablePrefix(*tablePrefix))))
	}

	diags := mapping.Check(context.Background(), spec, opts...)

	for _, d := range diags.All() {
		_, _ = fmt.Fprintf(e.stdout, "%s: %s\n", d.Severity, d)
	}

	_, _ = fmt.Fprintf(e.stdout, "%s: %d error(s), %d warning(s)\n",
		spec.Service.ID, len(diags.Errors), len(diags.Warnings))

	if diags.HasErrors() {
		return exitFailure
	}

	return exitOK
}
