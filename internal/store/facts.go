package store

import (
	"context"
	"fmt"

	"github.com/roach88/datalogq/internal/ir"
)

// LoadFacts returns every stored row as a ground rule, relations in catalog
// order and rows in insertion order.
func (s *Store) LoadFacts(ctx context.Context) ([]ir.Rule, error) {
	infos, err := s.Relations(ctx)
	if err != nil {
		return nil, err
	}

	var facts []ir.Rule
	for _, info := range infos {
		rows, err := s.Rows(ctx, info.Name)
		if err != nil {
			return nil, fmt.Errorf("load facts: %w", err)
		}
		for _, row := range rows {
			facts = append(facts, ir.NewFact(info.Name, row...))
		}
	}
	return facts, nil
}

// SaveFacts stores every fact of p, creating relations as needed. Derived
// rules are ignored. Returns the number of rows written.
func (s *Store) SaveFacts(ctx context.Context, p ir.Program) (int, error) {
	grouped := make(map[string]ir.Relation)
	var order []string
	arity := make(map[string]int)

	for _, r := range p.Rules {
		if !r.IsFact() {
			continue
		}
		row, ok := r.Head.GroundRow()
		if !ok {
			return 0, fmt.Errorf("save facts: fact %s is not ground", r)
		}
		name := r.Head.Predicate
		if _, seen := grouped[name]; !seen {
			order = append(order, name)
			arity[name] = len(row)
		}
		grouped[name] = append(grouped[name], row)
	}

	written := 0
	for _, name := range order {
		if err := s.CreateRelation(ctx, name, arity[name]); err != nil {
			return written, fmt.Errorf("save facts: %w", err)
		}
		if err := s.Insert(ctx, name, grouped[name]); err != nil {
			return written, fmt.Errorf("save facts: %w", err)
		}
		written += len(grouped[name])
	}
	return written, nil
}
