// Package script runs JavaScript files as shreds.
//
// Each file becomes one shred with its own goja runtime. Scripts drive the
// scheduler through a handful of globals:
//
//	play(n)        let n samples pass, returns the samples yielded
//	waitOn(ev)     suspend until ev is raised
//	raise(ev)      wake every shred waiting on ev, returns how many woke
//	now()          current virtual time in samples
//	samples(n), ms(x), seconds(x), minutes(x), rate
//	print(...)     write a line to the runner's output
package script

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
	"github.com/spf13/afero"

	"vshred/internal/sched"
	"vshred/internal/units"
)

type Runner struct {
	sched *sched.Scheduler
	fs    afero.Fs
	rate  units.Rate
	out   io.Writer
}

func NewRunner(s *sched.Scheduler, fs afero.Fs, rate units.Rate, out io.Writer) *Runner {
	if rate <= 0 {
		rate = units.DefaultRate
	}
	return &Runner{sched: s, fs: fs, rate: rate, out: out}
}

// Load compiles the script at path and sporks a shred that runs it. Read and
// syntax errors are returned before anything is scheduled.
func (r *Runner) Load(path string) (*sched.Shred, error) {
	src, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("script: read %s: %w", path, err)
	}
	prog, err := goja.Compile(path, string(src), false)
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", path, err)
	}

	return r.sched.Spork(filepath.Base(path), func(ctx context.Context) error {
		vm, err := r.newRuntime(ctx)
		if err != nil {
			return err
		}
		_, err = vm.RunProgram(prog)
		return err
	}), nil
}

// LoadAll loads every path in order and stops at the first failure.
func (r *Runner) LoadAll(paths []string) ([]*sched.Shred, error) {
	shreds := make([]*sched.Shred, 0, len(paths))
	for _, p := range paths {
		sh, err := r.Load(p)
		if err != nil {
			return shreds, err
		}
		shreds = append(shreds, sh)
	}
	return shreds, nil
}

func (r *Runner) newRuntime(ctx context.Context) (*goja.Runtime, error) {
	vm := goja.New()
	registry := new(require.Registry)
	registry.Enable(vm)
	console.Enable(vm)

	globals := map[string]any{
		"play": func(n float64) int64 {
			return int64(r.sched.Yield(ctx, sched.VTime(n)))
		},
		"waitOn": func(ev string) {
			r.sched.WaitOn(ctx, ev)
		},
		"raise": func(ev string) int {
			return r.sched.RaiseAll(ev)
		},
		"now": func() int64 {
			return int64(r.sched.Now())
		},
		"samples": func(n float64) int64 { return int64(r.rate.Samples(n)) },
		"ms":      func(x float64) int64 { return int64(r.rate.Ms(x)) },
		"seconds": func(x float64) int64 { return int64(r.rate.Seconds(x)) },
		"minutes": func(x float64) int64 { return int64(r.rate.Minutes(x)) },
		"rate":    int64(r.rate),
		"print":   r.print,
	}
	for name, v := range globals {
		if err := vm.Set(name, v); err != nil {
			return nil, fmt.Errorf("script: set %s: %w", name, err)
		}
	}
	return vm, nil
}

func (r *Runner) print(call goja.FunctionCall) goja.Value {
	parts := make([]string, 0, len(call.Arguments))
	for _, v := range call.Arguments {
		parts = append(parts, fmt.Sprint(v.Export()))
	}
	fmt.Fprintln(r.out, strings.Join(parts, " "))
	return goja.Undefined()
}
