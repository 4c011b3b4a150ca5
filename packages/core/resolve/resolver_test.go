package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/flowspec/packages/core/model"
)

func def(id, requires string, order int) *model.TestDefinition {
	return &model.TestDefinition{
		Name:        id,
		ID:          id,
		Requires:    requires,
		SourceOrder: order,
		Stages:      []model.Stage{{Request: model.Request{Method: "GET", URL: "http://example.test"}}},
	}
}

func ids(defs []*model.TestDefinition) []string {
	out := make([]string, len(defs))
	for i, td := range defs {
		out[i] = td.ID
	}
	return out
}

func TestResolveLinearChain(t *testing.T) {
	plan, err := Resolve([]*model.TestDefinition{
		def("c", "b", 0),
		def("a", "", 1),
		def("b", "a", 2),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, ids(plan.Order))
	require.Len(t, plan.Waves, 3)
	assert.Equal(t, []string{"a"}, ids(plan.Waves[0]))
	assert.Equal(t, []string{"b"}, ids(plan.Waves[1]))
	assert.Equal(t, []string{"c"}, ids(plan.Waves[2]))
}

func TestResolveIndependentTestsShareAWave(t *testing.T) {
	plan, err := Resolve([]*model.TestDefinition{
		def("z", "", 0),
		def("m", "", 1),
		def("a", "", 2),
	})
	require.NoError(t, err)

	require.Len(t, plan.Waves, 1)
	// Ties break by document order, not id.
	assert.Equal(t, []string{"z", "m", "a"}, ids(plan.Waves[0]))
}

func TestResolveDiamond(t *testing.T) {
	plan, err := Resolve([]*model.TestDefinition{
		def("root", "", 0),
		def("left", "root", 1),
		def("right", "root", 2),
		def("tail", "left", 3),
	})
	require.NoError(t, err)

	require.Len(t, plan.Waves, 3)
	assert.Equal(t, []string{"root"}, ids(plan.Waves[0]))
	assert.Equal(t, []string{"left", "right"}, ids(plan.Waves[1]))
	assert.Equal(t, []string{"tail"}, ids(plan.Waves[2]))
}

func TestResolveCycleFailsWithoutPartialPlan(t *testing.T) {
	_, err := Resolve([]*model.TestDefinition{
		def("a", "b", 0),
		def("b", "a", 1),
		def("free", "", 2),
	})
	var cyc *CycleError
	require.ErrorAs(t, err, &cyc)
	assert.ElementsMatch(t, []string{"a", "b"}, cyc.IDs)
}

func TestResolveUnknownRequirement(t *testing.T) {
	_, err := Resolve([]*model.TestDefinition{
		def("a", "ghost", 0),
	})
	var unres *UnresolvedError
	require.ErrorAs(t, err, &unres)
	assert.Equal(t, "ghost", unres.Requires)
}

func TestResolveDuplicateID(t *testing.T) {
	_, err := Resolve([]*model.TestDefinition{
		def("same", "", 0),
		def("same", "", 1),
	})
	var dup *DuplicateIDError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "same", dup.ID)
}

func TestResolveDisabledDependencyFailsDependent(t *testing.T) {
	parent := def("parent", "", 0)
	parent.Disabled = true

	_, err := Resolve([]*model.TestDefinition{
		parent,
		def("child", "parent", 1),
	})
	var unres *UnresolvedError
	require.ErrorAs(t, err, &unres)
	assert.Contains(t, unres.Requires, "disabled")
}

func TestResolveDisabledLeafIsKept(t *testing.T) {
	leaf := def("leaf", "", 0)
	leaf.Disabled = true

	plan, err := Resolve([]*model.TestDefinition{leaf, def("other", "", 1)})
	require.NoError(t, err)
	assert.Equal(t, []string{"leaf", "other"}, ids(plan.Order))
}

func extracting(id, requires string, order int, varName string) *model.TestDefinition {
	td := def(id, requires, order)
	td.Stages[0].Response = &model.Response{
		Extract: []model.ExtractRule{{Name: varName, Field: "id"}},
	}
	return td
}

func TestResolveRejectsUnrelatedExtractionCollision(t *testing.T) {
	_, err := Resolve([]*model.TestDefinition{
		extracting("a", "", 0, "token"),
		extracting("b", "", 1, "token"),
	})
	var col *CollisionError
	require.ErrorAs(t, err, &col)
	assert.Equal(t, "token", col.Name)
}

func TestResolveAllowsExtractionOverwriteAlongChain(t *testing.T) {
	plan, err := Resolve([]*model.TestDefinition{
		extracting("a", "", 0, "token"),
		extracting("b", "a", 1, "token"),
		extracting("c", "b", 2, "token"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(plan.Order))
}
