package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/oefquery/internal/query"
	"github.com/roach88/oefquery/internal/schema"
)

// Spec section names at the top level of a CUE spec set.
const (
	SectionModel       = "model"
	SectionDescription = "description"
	SectionQuery       = "query"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// NamedDescription is a compiled description with its spec name.
type NamedDescription struct {
	Name        string
	Description *schema.Description
}

// NamedQuery is a compiled query with its spec name.
type NamedQuery struct {
	Name  string
	Query *query.Query
}

// Specs holds everything compiled from one CUE spec set, in declaration order.
type Specs struct {
	Models       []*schema.DataModel
	Descriptions []NamedDescription
	Queries      []NamedQuery
}

// Model returns the model with the given name.
func (s *Specs) Model(name string) (*schema.DataModel, bool) {
	for _, m := range s.Models {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// Description returns the description with the given spec name.
func (s *Specs) Description(name string) (*schema.Description, bool) {
	for _, d := range s.Descriptions {
		if d.Name == name {
			return d.Description, true
		}
	}
	return nil, false
}

// Query returns the query with the given spec name.
func (s *Specs) Query(name string) (*query.Query, bool) {
	for _, q := range s.Queries {
		if q.Name == name {
			return q.Query, true
		}
	}
	return nil, false
}

// Len returns the total number of compiled entries.
func (s *Specs) Len() int {
	return len(s.Models) + len(s.Descriptions) + len(s.Queries)
}

// CompileSpecs compiles the model, description and query sections of v.
// Models are compiled first so the other sections can refer to them by name.
// The returned Specs holds whatever compiled, even when errors are returned.
func CompileSpecs(v cue.Value, mode LoadMode) (*Specs, []error) {
	specs := &Specs{}
	var errs []error
	if err := v.Err(); err != nil {
		return specs, []error{formatCUEError(err)}
	}

	models := make(map[string]*schema.DataModel)

	// each section stops early only in fail-fast mode
	stop := func(err error) bool {
		errs = append(errs, err)
		return mode == LoadModeFailFast
	}

	if done := eachEntry(v, SectionModel, stop, func(label string, ev cue.Value) error {
		m, err := CompileModel(ev)
		if err != nil {
			return err
		}
		models[m.Name()] = m
		specs.Models = append(specs.Models, m)
		return nil
	}); done {
		return specs, errs
	}

	if done := eachEntry(v, SectionDescription, stop, func(label string, ev cue.Value) error {
		d, err := CompileDescription(ev, models)
		if err != nil {
			return err
		}
		specs.Descriptions = append(specs.Descriptions, NamedDescription{Name: label, Description: d})
		return nil
	}); done {
		return specs, errs
	}

	eachEntry(v, SectionQuery, stop, func(label string, ev cue.Value) error {
		q, err := CompileQuery(ev, models)
		if err != nil {
			return err
		}
		specs.Queries = append(specs.Queries, NamedQuery{Name: label, Query: q})
		return nil
	})

	return specs, errs
}

// eachEntry calls fn for every field under section. Errors are qualified
// with the entry path and handed to stop; it reports whether stop asked to
// end the walk.
func eachEntry(v cue.Value, section string, stop func(error) bool, fn func(string, cue.Value) error) bool {
	sv := v.LookupPath(cue.ParsePath(section))
	if !sv.Exists() {
		return false
	}
	iter, err := sv.Fields()
	if err != nil {
		return stop(qualify(section, formatCUEError(err)))
	}
	for iter.Next() {
		label := normalizeName(iter.Label())
		if err := fn(label, iter.Value()); err != nil {
			if stop(qualify(fmt.Sprintf("%s.%s", section, label), err)) {
				return true
			}
		}
	}
	return false
}
