package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/delaneyj/autonotify/samples"
	"github.com/delaneyj/autonotify/vm"
	"github.com/delaneyj/autonotify/weaver"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

type benchmarkTestConfig struct {
	name        string // friendly name for the test, should be unique
	sample      string // embedded module to weave
	typeName    string // type to instantiate
	property    string // property written each iteration
	subscribers int    // handlers attached to the event
	iterations  int64  // number of writes
	expected    int64  // notifications per write, for verification
}

func main() {
	log.Print("Starting notify benchmark, please wait...")
	defer log.Print("Finished notify benchmark")

	perfTestCfgs := []benchmarkTestConfig{
		{
			name:        "no subscribers",
			sample:      samples.Point,
			typeName:    "AssemblyToProcess.Point",
			property:    "X",
			subscribers: 0,
			iterations:  200000,
			expected:    0,
		},
		{
			name:        "single dependent",
			sample:      samples.Point,
			typeName:    "AssemblyToProcess.Point",
			property:    "X",
			subscribers: 1,
			iterations:  200000,
			expected:    2,
		},
		{
			name:        "diamond",
			sample:      samples.Shapes,
			typeName:    "Shapes.Rectangle",
			property:    "Width",
			subscribers: 1,
			iterations:  100000,
			expected:    4,
		},
		{
			name:        "chain",
			sample:      samples.Chain,
			typeName:    "Chains.Invoice",
			property:    "Quantity",
			subscribers: 4,
			iterations:  50000,
			expected:    16,
		},
		{
			name:        "guarded setter",
			sample:      samples.Shapes,
			typeName:    "Shapes.Thermostat",
			property:    "Celsius",
			subscribers: 8,
			iterations:  50000,
			expected:    16,
		},
	}

	type results struct {
		count    int64
		duration time.Duration
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"test", "type", "property", "subscribers",
		"nTimes", "time", "notifications", "setRate",
	})

	testRepeats := 5
	for _, cfg := range perfTestCfgs {
		log.Printf("Running '%s' config", cfg.name)

		m, err := samples.Load(cfg.sample)
		if err != nil {
			log.Fatal(err)
		}
		if _, err := weaver.Weave(m, weaver.DefaultOptions()); err != nil {
			log.Fatal(err)
		}
		obj, err := vm.New(m).NewObject(cfg.typeName)
		if err != nil {
			log.Fatal(err)
		}

		counter := new(int64)
		for i := 0; i < cfg.subscribers; i++ {
			if _, err := obj.Subscribe(weaver.DefaultEventName, func(*vm.Object, *vm.PropertyChangedEventArgs) {
				*counter++
			}); err != nil {
				log.Fatal(err)
			}
		}

		runOnce := func() {
			for i := int64(0); i < cfg.iterations; i++ {
				if err := obj.Set(cfg.property, i); err != nil {
					log.Fatal(err)
				}
			}
		}
		// run once to warm up
		runOnce()

		bestResult := &results{
			duration: time.Hour,
		}
		for i := 0; i < testRepeats; i++ {
			log.Printf("Running '%s' config, iteration %d/%d %d%%", cfg.name, i+1, testRepeats, (i+1)*100/testRepeats)
			*counter = 0
			start := time.Now()
			runOnce()
			duration := time.Since(start)

			if duration < bestResult.duration {
				bestResult.duration = duration
				bestResult.count = *counter
			}
		}

		if want := cfg.expected * cfg.iterations; bestResult.count != want {
			log.Fatalf("%s: got %d notifications, want %d", cfg.name, bestResult.count, want)
		}

		setRate := float64(cfg.iterations) / (float64(bestResult.duration) / float64(time.Millisecond))

		table.Append([]string{
			cfg.name,
			cfg.typeName,
			cfg.property,
			fmt.Sprint(cfg.subscribers),
			humanize.Comma(cfg.iterations),
			fmt.Sprint(bestResult.duration),
			humanize.Comma(bestResult.count),
			humanize.Comma(int64(setRate)) + "/ms",
		})
	}
	table.Render()
}
