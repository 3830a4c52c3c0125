// Command plugin_loader demonstrates the goja-hosted build-file loader:
// rule types come from the process-wide registry, a small JS build file
// declares the project's rules, and the engine drives them to
// completion.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/anvil-build/anvil/builtin/rules"
	"github.com/anvil-build/anvil/engine"
	"github.com/anvil-build/anvil/executor"
	"github.com/anvil-build/anvil/plugin"
	"github.com/anvil-build/anvil/project"
	"github.com/anvil-build/anvil/registry"
	"github.com/anvil-build/anvil/types"
)

const buildScript = `
file_set({name: "srcs", srcs: ["*.txt"]});
copy({name: "copied", srcs: [":srcs"]});
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "build failed:", err)
		os.Exit(1)
	}
}

func run() error {
	dir, err := os.MkdirTemp("", "anvil-plugin-example-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	for _, name := range []string{"a.txt", "b.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name+"\n"), 0o644); err != nil {
			return err
		}
	}
	modulePath := filepath.Join(dir, "BUILD.js")
	if err := os.WriteFile(modulePath, []byte(buildScript), 0o644); err != nil {
		return err
	}

	reg := registry.New()
	if err := reg.Register(rules.FileSetType, func() types.RuleBody { return &rules.FileSetRule{} }); err != nil {
		return err
	}
	if err := reg.Register(rules.CopyType, func() types.RuleBody { return &rules.CopyRule{} }); err != nil {
		return err
	}

	logger := types.DefaultLogger()
	loader := plugin.NewLoader(reg, types.NewProperties(), logger)
	p := project.NewProject(dir, loader)

	m, err := loader.Resolve(modulePath)
	if err != nil {
		return err
	}
	if err := p.AddModule(m); err != nil {
		return err
	}

	env := types.NewEnvironment(dir)
	cfg := types.NewConfig(types.WithLogger(logger))
	bc := engine.NewBuildContext(env, p, executor.NewPool(2, logger), cfg)

	target := modulePath + ":copied"
	ok, err := bc.ExecuteSync([]string{target})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("build did not succeed")
	}

	fmt.Println("copied outputs:", bc.RuleOutputs(target))
	return nil
}
