// Command shovel is a generated project entrypoint, in the spirit of the
// teacher's own .pocket/main.go / .bld/main.go convention: since Go has no
// runtime "exec this file" import, the project's configuration *is* a small
// main.go that registers tasks and modules, then hands off to shovel.Main.
package main

import (
	"context"
	"path/filepath"

	"github.com/fredrikaverpil/shovel"
	"github.com/fredrikaverpil/shovel/checkers"
	"github.com/fredrikaverpil/shovel/config"
)

func main() {
	reg := shovel.Default()
	cfg := config.New()

	cfg.Add("PROJECT", config.NewGroup("PROJECT").
		Set("NAME", "shovel").
		Set("MODULE", "github.com/fredrikaverpil/shovel"))
	cfg.Add("BUILD", config.NewGroup("BUILD").
		Set("OUT", "dist/{PROJECT.NAME}"))
	cfg.Add("TASKS", shovel.TasksGroup(reg))

	shovel.Must(shovel.LoadAll(reg, cfg,
		lintModule(),
		testModule(),
	))

	shovel.ApplyEnvOverrides(cfg)
	shovel.Must(registerBuild(reg, cfg))

	shovel.Main(reg, cfg)
}

// registerBuild wires the build task, which depends on vet and fmt, guards
// re-execution with a FileHash checker over the module's Go sources, and
// cleans its output directory on request.
func registerBuild(reg *shovel.Registry, cfg *config.Config) error {
	sources, err := filepath.Glob("*.go")
	if err != nil {
		return err
	}

	out, err := cfg.Format("{BUILD.OUT}", nil)
	if err != nil {
		return err
	}

	reg.Register(&shovel.Task{
		Name:             "build",
		ShortDescription: "compile the project binary",
		Description:      "builds the module into {BUILD.OUT}",
		ConfigRefs:       []string{"{BUILD.OUT}"},
		Category:         "build",
		Dependencies:     []string{"vet", "fmt"},
		Checkers:         []shovel.Checker{checkers.NewFileHash(sources...)},
		Body: func(ctx context.Context, args []string) error {
			shovel.Printf(ctx, "compiling -> %s\n", out)
			return shovel.Exec(ctx, "go", append([]string{"build", "-o", out, "."}, args...)...)
		},
		Clean: func(ctx context.Context) error {
			return shovel.Exec(ctx, "rm", "-rf", out)
		},
	})
	return nil
}

func lintModule() shovel.Module {
	return shovel.Module{
		Name: "lint",
		Config: func() *config.Group {
			return config.NewGroup("LINT").Set("TIMEOUT", "5m")
		},
		Tasks: func(reg *shovel.Registry) {
			reg.Register(&shovel.Task{
				Name:             "vet",
				ShortDescription: "run go vet",
				Category:         "lint",
				Body: func(ctx context.Context, args []string) error {
					return shovel.Exec(ctx, "go", "vet", "./...")
				},
			})
			reg.Register(&shovel.Task{
				Name:             "fmt",
				ShortDescription: "check gofmt formatting",
				Category:         "lint",
				Body: func(ctx context.Context, args []string) error {
					return shovel.Exec(ctx, "gofmt", "-l", ".")
				},
			})
			reg.Register(&shovel.Task{
				Name:             "lint",
				ShortDescription: "run all lint checks",
				Parents:          []string{"check"},
				Dependencies:     []string{"vet", "fmt"},
			})
		},
	}
}

func testModule() shovel.Module {
	return shovel.Module{
		Name: "test",
		Tasks: func(reg *shovel.Registry) {
			reg.Register(&shovel.Task{
				Name:             "test",
				ShortDescription: "run the test suite",
				Category:         "test",
				Parent:           "check",
				Dependencies:     []string{"build"},
				Checkers:         []shovel.Checker{checkers.NewEnvVar("GOFLAGS")},
				Body: func(ctx context.Context, args []string) error {
					return shovel.Exec(ctx, "go", append([]string{"test", "./..."}, args...)...)
				},
			})
		},
	}
}
