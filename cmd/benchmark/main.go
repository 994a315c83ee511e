package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/autonotify/module"
	"github.com/delaneyj/autonotify/weaver"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
)

var (
	profile = flag.String("profile", "default.pgo", "cpu profile output, empty to disable")
	workers = flag.Int("workers", 0, "planning workers, 0 for one per cpu")
)

func main() {
	flag.Parse()

	if *profile != "" {
		f, err := os.Create(*profile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	log.Printf("warming up")
	benchmarkWeave(false)
	benchmarkWeave(true)
}

var (
	tt    = []int{1, 10, 100}
	ww    = []int{1, 10, 100}
	dd    = []int{1, 10}
	iters = 100
)

// syntheticModule declares types with width NotifyChanged sources feeding a
// DependsOn chain of the given depth.
func syntheticModule(types, width, depth int) *module.Module {
	notify := module.Attribute{Type: weaver.DefaultMarkerReference + "." + weaver.DefaultNotifyMarker}

	m := &module.Module{
		Name:       "Synthetic",
		References: []string{weaver.DefaultMarkerReference},
	}
	for i := 0; i < types; i++ {
		t := &module.Type{
			Name:       fmt.Sprintf("Synthetic.Model%d", i),
			Interfaces: []string{module.NotifyPropertyChangedInterface},
		}
		t.AddEvent(weaver.DefaultEventName, module.PropertyChangedEventHandler)

		sources := make([]string, width)
		for j := range sources {
			sources[j] = fmt.Sprintf("Source%d", j)
			t.AddAutoProperty(sources[j], "int64", notify)
		}
		prev := sources
		for j := 0; j < depth; j++ {
			name := fmt.Sprintf("Derived%d", j)
			t.AddComputedProperty(name, module.MustParseBody("ldc 0\nret"), module.Attribute{
				Type: weaver.DefaultMarkerReference + "." + weaver.DefaultDependsOnMarker,
				Args: prev,
			})
			prev = []string{name}
		}
		m.Types = append(m.Types, t)
	}
	return m
}

func benchmarkWeave(shouldRender bool) {
	opts := weaver.DefaultOptions()
	if *workers > 0 {
		opts.Workers = *workers
	}

	tbl := table.NewWriter()
	tbl.SetTitle(fmt.Sprintf("Weave pass, %d workers", opts.Workers))
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "setters", "avg", "min", "p75", "p99", "max"})

	for _, types := range tt {
		for _, w := range ww {
			for _, d := range dd {
				tach := tachymeter.New(&tachymeter.Config{Size: iters})
				template := syntheticModule(types, w, d)

				setters := 0
				for i := 0; i < iters; i++ {
					m := template.Clone()
					start := time.Now()
					report, err := weaver.Weave(m, opts)
					tach.AddTime(time.Since(start))
					if err != nil {
						log.Fatal(err)
					}
					setters = report.Instrumented()
				}

				calc := tach.Calc()
				tbl.AppendRows([]table.Row{
					{
						fmt.Sprintf("weave: %d types %d * %d", types, w, d),
						setters,
						calc.Time.Avg,
						calc.Time.Min,
						calc.Time.P75,
						calc.Time.P99,
						calc.Time.Max,
					},
				})
			}
		}
	}

	if shouldRender {
		tbl.Render()
	}
}
