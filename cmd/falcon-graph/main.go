// falcon-graph lifts the functions of LLVM IR assembly files into Falcon IL
// and dumps control flow graphs, dominator tables and def-use chains.
//
// Usage:
//
//	falcon-graph [-dot] [-doms] [-chains] FILE.ll...
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"bitbucket.org/zombiezen/cardcpx/natsort"
	"github.com/llir/llvm/asm"
	"github.com/mewkiz/pkg/term"
	"github.com/pkg/errors"

	"github.com/chubbymaggie/falcon/analysis"
	"github.com/chubbymaggie/falcon/il"
	"github.com/chubbymaggie/falcon/translator/llvmir"
)

// dbg logs debug messages to standard error, with the prefix "falcon-graph:".
var dbg = log.New(os.Stderr, term.RedBold("falcon-graph:")+" ", 0)

func main() {
	var (
		dumpDot    = flag.Bool("dot", false, "dump control flow graphs in DOT format")
		dumpDoms   = flag.Bool("doms", false, "dump dominator, immediate dominator and dominance frontier tables")
		dumpChains = flag.Bool("chains", false, "dump def-use chains")
	)
	flag.Parse()
	for _, path := range flag.Args() {
		if err := dump(path, *dumpDot, *dumpDoms, *dumpChains); err != nil {
			log.Fatalf("%+v", err)
		}
	}
}

// dump lifts every function of the given LLVM IR file and prints the
// requested analyses.
func dump(path string, dumpDot, dumpDoms, dumpChains bool) error {
	dbg.Printf("=== [ %s ] ===", path)
	module, err := asm.ParseFile(path)
	if err != nil {
		return errors.WithStack(err)
	}
	program, err := llvmir.TranslateModule(module)
	if err != nil {
		return errors.WithStack(err)
	}
	functions := program.Functions()
	sort.Slice(functions, func(i, j int) bool {
		return natsort.Less(functions[i].Name(), functions[j].Name())
	})
	for _, function := range functions {
		fmt.Printf("\n--- %s ---\n", function.Name())
		if dumpDot {
			fmt.Println(function.ControlFlowGraph().DotGraph())
		}
		if dumpDoms {
			if err := printDominators(function); err != nil {
				return err
			}
		}
		if dumpChains {
			if err := printChains(function); err != nil {
				return err
			}
		}
	}
	return nil
}

// printDominators prints the dominator, immediate dominator and dominance
// frontier tables of a function, rooted at its entry block.
func printDominators(function *il.Function) error {
	cfg := function.ControlFlowGraph()
	entry, ok := cfg.Entry()
	if !ok {
		dbg.Printf("skipping %s; no entry block", function.Name())
		return nil
	}
	dominators, err := cfg.Graph().ComputeDominators(entry)
	if err != nil {
		return errors.WithStack(err)
	}
	idoms, err := cfg.Graph().ComputeImmediateDominators(entry)
	if err != nil {
		return errors.WithStack(err)
	}
	frontiers, err := cfg.Graph().ComputeDominanceFrontiers(entry)
	if err != nil {
		return errors.WithStack(err)
	}
	for _, block := range cfg.Blocks() {
		index := block.Index()
		fmt.Printf("block 0x%X:\n", index)
		if doms, ok := dominators[index]; ok {
			fmt.Printf("\tdominators: %v\n", doms)
		}
		if idom, ok := idoms[index]; ok {
			fmt.Printf("\tidom: 0x%X\n", idom)
		}
		if df, ok := frontiers[index]; ok && len(df) > 0 {
			fmt.Printf("\tfrontier: %v\n", df)
		}
	}
	return nil
}

// printChains prints the def-use chains of a function.
func printChains(function *il.Function) error {
	cfg := function.ControlFlowGraph()
	reachingDefinitions, err := analysis.ReachingDefinitions(cfg)
	if err != nil {
		return errors.WithStack(err)
	}
	du, err := analysis.DefUse(reachingDefinitions, cfg)
	if err != nil {
		return errors.WithStack(err)
	}
	for _, def := range analysis.SortedKeys(du) {
		uses := du[def]
		if len(uses) == 0 {
			continue
		}
		fmt.Printf("%s:\n", def)
		for _, use := range uses.Sorted() {
			fmt.Printf("\t%s\n", use)
		}
	}
	return nil
}
