// Command basic builds a tiny project directly from Go — no plug-in
// file — to demonstrate the core driver end to end: a FileSetRule feeds
// a CopyRule, which feeds a ConcatRule, run through a goroutine-pool
// executor.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/anvil-build/anvil/builtin/rules"
	"github.com/anvil-build/anvil/engine"
	"github.com/anvil-build/anvil/executor"
	"github.com/anvil-build/anvil/project"
	"github.com/anvil-build/anvil/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "build failed:", err)
		os.Exit(1)
	}
}

func run() error {
	dir, err := os.MkdirTemp("", "anvil-basic-example-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	for _, name := range []string{"greeting.txt", "farewell.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name+"\n"), 0o644); err != nil {
			return err
		}
	}

	m := project.NewModule(filepath.Join(dir, "BUILD"))
	p := project.NewProject(dir, nil)
	if err := p.AddModule(m); err != nil {
		return err
	}

	srcs, err := project.NewRule("srcs", []string{"*.txt"}, nil, "", &rules.FileSetRule{})
	if err != nil {
		return err
	}
	copied, err := project.NewRule("copied", []string{srcs.Path()}, nil, "", &rules.CopyRule{})
	if err != nil {
		return err
	}
	joined, err := project.NewRule("joined", []string{copied.Path()}, nil, "",
		&rules.ConcatRule{})
	if err != nil {
		return err
	}
	if err := m.AddRules([]*project.Rule{srcs, copied, joined}); err != nil {
		return err
	}

	logger := types.DefaultLogger()
	cfg := types.NewConfig(
		types.WithLogger(logger),
		types.WithCallbacks(types.Callbacks{
			OnRuleBegin: func(rulePath string) { logger.Infof("begin %s", rulePath) },
			OnRuleSucceeded: func(rulePath string, outputs []string) {
				logger.Infof("succeeded %s -> %v", rulePath, outputs)
			},
			OnRuleFailed: func(rulePath string, err error) {
				logger.Errorf("failed %s: %v", rulePath, err)
			},
		}),
	)

	env := types.NewEnvironment(dir)
	bc := engine.NewBuildContext(env, p, executor.NewPool(4, logger), cfg)

	ok, err := bc.ExecuteSync([]string{joined.Path()})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("build did not succeed")
	}

	outputs := bc.RuleOutputs(joined.Path())
	content, err := os.ReadFile(outputs[0])
	if err != nil {
		return err
	}
	fmt.Printf("joined output:\n%s", content)
	return nil
}
