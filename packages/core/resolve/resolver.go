// Package resolve orders test definitions by their requires references.
// It produces a linear execution order in which every dependency precedes
// its dependents, plus the dependency "waves" the engine may dispatch
// concurrently. Resolution failures happen before any test executes.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/flowspec/packages/core/model"
)

// CycleError marks a requires cycle. It is fatal: zero tests run.
type CycleError struct {
	IDs []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic dependency among tests: %s", strings.Join(e.IDs, ", "))
}

// UnresolvedError names a requires reference with no matching test id.
type UnresolvedError struct {
	Test     string
	Requires string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("test %q requires unknown test id %q", e.Test, e.Requires)
}

// DuplicateIDError marks two definitions claiming the same id.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate test id %q", e.ID)
}

// CollisionError marks two tests with no dependency relation extracting the
// same variable name. Allowing it would make the shared scope a runtime
// race, so it is rejected at definition time instead.
type CollisionError struct {
	Name   string
	TestA  string
	TestB  string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("tests %q and %q both extract variable %q but share no dependency ordering", e.TestA, e.TestB, e.Name)
}

// Plan is a resolved execution schedule.
type Plan struct {
	// Order is the flat dependency-respecting order, tie-broken by the
	// original document order.
	Order []*model.TestDefinition
	// Waves groups Order into dependency levels: tests inside one wave have
	// no ordering relation and may run concurrently.
	Waves [][]*model.TestDefinition
}

// Resolve builds the execution plan for the given definitions. Disabled
// tests are kept in the plan (the engine skips them) so their ids still
// resolve; a non-disabled test requiring a disabled one fails resolution.
func Resolve(defs []*model.TestDefinition) (*Plan, error) {
	byID := make(map[string]*model.TestDefinition, len(defs))
	for _, td := range defs {
		if _, dup := byID[td.ID]; dup {
			return nil, &DuplicateIDError{ID: td.ID}
		}
		byID[td.ID] = td
	}

	for _, td := range defs {
		if td.Requires == "" {
			continue
		}
		req, ok := byID[td.Requires]
		if !ok {
			return nil, &UnresolvedError{Test: td.Label(), Requires: td.Requires}
		}
		if req.Disabled && !td.Disabled {
			return nil, &UnresolvedError{Test: td.Label(), Requires: td.Requires + " (disabled)"}
		}
	}

	plan, err := order(defs, byID)
	if err != nil {
		return nil, err
	}

	if err := checkExtractionCollisions(plan.Order, byID); err != nil {
		return nil, err
	}
	return plan, nil
}

// order runs Kahn's algorithm, emitting whole in-degree-zero waves at a
// time and sorting each wave by document order for a deterministic
// tie-break.
func order(defs []*model.TestDefinition, byID map[string]*model.TestDefinition) (*Plan, error) {
	inDegree := make(map[string]int, len(defs))
	dependents := make(map[string][]string, len(defs))
	for _, td := range defs {
		inDegree[td.ID] += 0
		if td.Requires != "" {
			dependents[td.Requires] = append(dependents[td.Requires], td.ID)
			inDegree[td.ID]++
		}
	}

	ready := make([]*model.TestDefinition, 0, len(defs))
	for _, td := range defs {
		if inDegree[td.ID] == 0 {
			ready = append(ready, td)
		}
	}

	plan := &Plan{}
	scheduled := 0
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			return ready[i].SourceOrder < ready[j].SourceOrder
		})
		wave := ready
		ready = nil

		plan.Waves = append(plan.Waves, wave)
		for _, td := range wave {
			plan.Order = append(plan.Order, td)
			scheduled++
			for _, dep := range dependents[td.ID] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					ready = append(ready, byID[dep])
				}
			}
		}
	}

	if scheduled != len(defs) {
		var stuck []string
		for _, td := range defs {
			if inDegree[td.ID] > 0 {
				stuck = append(stuck, td.ID)
			}
		}
		sort.Strings(stuck)
		return nil, &CycleError{IDs: stuck}
	}
	return plan, nil
}

// checkExtractionCollisions rejects two unrelated tests writing the same
// extracted variable name. Related tests (ancestor/descendant on the
// requires chain) may legitimately overwrite each other in order.
func checkExtractionCollisions(ordered []*model.TestDefinition, byID map[string]*model.TestDefinition) error {
	owner := make(map[string]*model.TestDefinition)
	for _, td := range ordered {
		for _, name := range td.ExtractedNames() {
			prev, taken := owner[name]
			if !taken {
				owner[name] = td
				continue
			}
			if prev == td || related(prev, td, byID) {
				continue
			}
			return &CollisionError{Name: name, TestA: prev.Label(), TestB: td.Label()}
		}
	}
	return nil
}

// related walks the single-parent requires chains to decide whether one
// test is an ancestor of the other.
func related(a, b *model.TestDefinition, byID map[string]*model.TestDefinition) bool {
	return ancestor(a, b, byID) || ancestor(b, a, byID)
}

func ancestor(maybeAncestor, td *model.TestDefinition, byID map[string]*model.TestDefinition) bool {
	for cur := td; cur != nil && cur.Requires != ""; {
		next := byID[cur.Requires]
		if next == nil {
			return false
		}
		if next == maybeAncestor {
			return true
		}
		cur = next
	}
	return false
}
