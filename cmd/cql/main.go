// cql is a thin example CLI wiring the public facade end to end: compile a CQL file, evaluate one
// definition (or an ad hoc expression) against an optional FHIR resource, and print the result as
// JSON. It is a usage example, not a product surface (spec.md §1 Non-goals).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clinical-elm/cql"
	"github.com/clinical-elm/cql/fhir"
	"github.com/clinical-elm/cql/result"
	log "github.com/golang/glog"
)

var (
	cqlDir     = flag.String("cql_dir", "", "Directory holding one or more .cql files, named <LibraryName>.cql.")
	library    = flag.String("library", "", "Library name to evaluate (required unless -expr is set).")
	version    = flag.String("version", "", "Library version (optional).")
	define     = flag.String("define", "", "Definition name to evaluate within -library. If empty, every public definition is evaluated.")
	expr       = flag.String("expr", "", "An ad hoc CQL/FHIRPath expression to evaluate instead of -library/-define.")
	resource   = flag.String("resource", "", "Path to a JSON FHIR resource to evaluate against (optional).")
	timestamp  = flag.String("timestamp", "", "RFC3339 timestamp whose time zone becomes the evaluation location (optional). Only the zone is used; Today()/Now() still read the current time.")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Errorf("cql: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	subject := result.NewNull(nil)
	if *resource != "" {
		data, err := os.ReadFile(*resource)
		if err != nil {
			return fmt.Errorf("reading -resource: %w", err)
		}
		var raw any
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing -resource as JSON: %w", err)
		}
		subject = result.NewResource(fhir.NewNode(raw))
	}

	var opts []cql.Option
	if *cqlDir != "" {
		sources, err := loadCQLDir(*cqlDir)
		if err != nil {
			return err
		}
		opts = append(opts, cql.WithSource(func(name, ver string) (string, bool) {
			src, ok := sources[name]
			return src, ok
		}))
	}
	if *timestamp != "" {
		loc, err := time.Parse(time.RFC3339, *timestamp)
		if err != nil {
			return fmt.Errorf("parsing -timestamp: %w", err)
		}
		opts = append(opts, cql.WithLocation(loc.Location()))
	}
	engine := cql.New(opts...)

	if *expr != "" {
		log.V(1).Infof("evaluating ad hoc expression %q", *expr)
		v, err := engine.EvaluateExpression(ctx, *expr, subject, nil)
		if err != nil {
			return err
		}
		return printJSON(map[string]result.Value{"result": v})
	}

	if *library == "" {
		return fmt.Errorf("one of -expr or -library is required")
	}
	if *define != "" {
		log.V(1).Infof("evaluating %s.%s", *library, *define)
		v, err := engine.EvaluateDefinition(ctx, *library, *version, *define, subject, nil)
		if err != nil {
			return err
		}
		return printJSON(map[string]result.Value{*define: v})
	}

	log.V(1).Infof("evaluating all public definitions of %s", *library)
	all, err := engine.EvaluateAll(ctx, *library, *version, subject, nil)
	if err != nil {
		return err
	}
	return printJSON(all)
}

// loadCQLDir reads every *.cql file in dir, keyed by its base filename (without extension) as the
// library name, per this example CLI's file-per-library convention.
func loadCQLDir(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading -cql_dir: %w", err)
	}
	out := map[string]string{}
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".cql") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, ent.Name()))
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(ent.Name(), ".cql")
		out[name] = string(data)
		log.V(1).Infof("loaded library %s from %s", name, ent.Name())
	}
	return out, nil
}

// printJSON renders named results as indented JSON, one field per definition name.
func printJSON(vals map[string]result.Value) error {
	out := make(map[string]string, len(vals))
	for name, v := range vals {
		out[name] = v.String()
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
