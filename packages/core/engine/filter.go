package engine

import "github.com/abdul-hamid-achik/flowspec/packages/core/model"

// FilterByTags keeps the tests matching the requested tags: all of them
// when matchAll is set, any of them otherwise. Required ancestors of a
// matching test are kept regardless of their own tags so the dependency
// chain still resolves and extraction still flows. An empty tag list
// keeps everything.
func FilterByTags(defs []*model.TestDefinition, tags []string, matchAll bool) []*model.TestDefinition {
	if len(tags) == 0 {
		return defs
	}

	byID := make(map[string]*model.TestDefinition, len(defs))
	for _, td := range defs {
		byID[td.ID] = td
	}

	keep := make(map[string]struct{})
	for _, td := range defs {
		if !matchesTags(td, tags, matchAll) {
			continue
		}
		for cur := td; cur != nil; cur = byID[cur.Requires] {
			if _, seen := keep[cur.ID]; seen {
				break
			}
			keep[cur.ID] = struct{}{}
		}
	}

	var out []*model.TestDefinition
	for _, td := range defs {
		if _, ok := keep[td.ID]; ok {
			out = append(out, td)
		}
	}
	return out
}

func matchesTags(td *model.TestDefinition, tags []string, matchAll bool) bool {
	for _, tag := range tags {
		has := td.HasTag(tag)
		if matchAll && !has {
			return false
		}
		if !matchAll && has {
			return true
		}
	}
	return matchAll
}
