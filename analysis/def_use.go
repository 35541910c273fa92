package analysis

import (
	"github.com/chubbymaggie/falcon/il"
)

// useHaystack returns the set of variables used at the given location: the
// scalars of an edge's condition, the variables read by an instruction, or
// nothing for an empty block.
func useHaystack(loc AnalysisLocation, cfg *il.ControlFlowGraph) (map[il.MultiVar]bool, error) {
	haystack := make(map[il.MultiVar]bool)
	switch loc.Kind() {
	case KindEdge:
		e, err := loc.FindEdge(cfg)
		if err != nil {
			return nil, err
		}
		if condition := e.Condition(); condition != nil {
			for _, scalar := range condition.CollectScalars() {
				haystack[scalar.MultiVarClone()] = true
			}
		}
	case KindInstruction:
		instruction, err := loc.FindInstruction(cfg)
		if err != nil {
			return nil, err
		}
		for _, variable := range instruction.VariablesRead() {
			haystack[variable.MultiVarClone()] = true
		}
	case KindEmptyBlock:
		// An empty block uses nothing.
	}
	return haystack, nil
}

// chase walks every (location, reaching definition) pair whose definition is
// actually used at the location, invoking record for each.
func chase(
	reachingDefinitions map[AnalysisLocation]*Reaches,
	cfg *il.ControlFlowGraph,
	record func(def, use AnalysisLocation),
) error {
	for _, loc := range sortedLocations(reachingDefinitions) {
		// Build the haystack of uses to search the definitions against.
		haystack, err := useHaystack(loc, cfg)
		if err != nil {
			return err
		}

		// For each definition that reaches here.
		for _, defLocation := range reachingDefinitions[loc].In().Sorted() {
			if defLocation.Kind() != KindInstruction {
				continue
			}
			instruction, err := defLocation.FindInstruction(cfg)
			if err != nil {
				return err
			}
			// The definition must actually be used here.
			written, ok := instruction.VariableWritten()
			if !ok {
				continue
			}
			if haystack[written.MultiVarClone()] {
				record(defLocation, loc)
			}
		}
	}
	return nil
}

// DefUse computes def-use chains: a mapping from the location of each
// definition to the set of locations which may observe that definition.
//
// Every key of the reaching-definitions map is present in the result, mapped
// to an empty set when the definition has no uses.
func DefUse(
	reachingDefinitions map[AnalysisLocation]*Reaches,
	cfg *il.ControlFlowGraph,
) (map[AnalysisLocation]LocationSet, error) {
	du := make(map[AnalysisLocation]LocationSet, len(reachingDefinitions))
	for loc := range reachingDefinitions {
		du[loc] = make(LocationSet)
	}
	err := chase(reachingDefinitions, cfg, func(def, use AnalysisLocation) {
		du[def][use] = true
	})
	if err != nil {
		return nil, err
	}
	return du, nil
}

// UseDef computes use-def chains: a mapping from each location to the set of
// definition locations it may observe.
//
// Every key of the reaching-definitions map is present in the result, mapped
// to an empty set when the location uses no definitions.
func UseDef(
	reachingDefinitions map[AnalysisLocation]*Reaches,
	cfg *il.ControlFlowGraph,
) (map[AnalysisLocation]LocationSet, error) {
	ud := make(map[AnalysisLocation]LocationSet, len(reachingDefinitions))
	for loc := range reachingDefinitions {
		ud[loc] = make(LocationSet)
	}
	err := chase(reachingDefinitions, cfg, func(def, use AnalysisLocation) {
		ud[use][def] = true
	})
	if err != nil {
		return nil, err
	}
	return ud, nil
}
