// Package weaver adds change notifications to compiled modules.
//
// A pass scans the module for types implementing the notification contract,
// builds a dependency graph per type from the NotifyChanged and DependsOn
// markers on their properties, synthesizes one notification helper per type
// and appends helper calls to the tail of every source property's setter.
//
// The whole module is planned before anything is modified: a pass either
// rewrites every type it selected or returns an error and leaves the module
// as it was.
package weaver

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/delaneyj/autonotify/module"
)

// Weaver runs weaving passes with a fixed set of options.
type Weaver struct {
	opts Options
}

// New returns a Weaver. Fewer than one worker means one.
func New(opts Options) *Weaver {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Weaver{opts: opts}
}

// Report describes what a pass changed.
type Report struct {
	Module           string
	RuntimeReference string
	ReferenceAdded   bool
	ReferenceCleaned bool
	Types            []TypeReport
}

// TypeReport lists the setters instrumented on one type.
type TypeReport struct {
	Type    string
	Helper  string
	Setters []SetterReport
}

// SetterReport names the properties a rewritten setter announces.
type SetterReport struct {
	Property string
	Setter   string
	Notifies []string
}

// Instrumented counts the rewritten setters.
func (r *Report) Instrumented() int {
	n := 0
	for _, t := range r.Types {
		n += len(t.Setters)
	}
	return n
}

type typePlan struct {
	scanned ScannedType
	helper  *module.Method
	setters []setterPlan
}

type setterPlan struct {
	property   *module.Property
	dependents []string
}

// Execute weaves m in place.
func (w *Weaver) Execute(m *module.Module) (*Report, error) {
	if m == nil {
		return nil, &StructuralError{Reason: "no module to weave"}
	}
	if m.HasAttribute(WovenAttribute) {
		return nil, fmt.Errorf("module %s: %w", m.Name, ErrAlreadyWoven)
	}

	logger := w.opts.logger()
	start := time.Now()
	logger.Printf("weaving %s", m.Name)

	scanned, err := Scan(m, w.opts)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", m.Name, err)
	}

	plans, err := w.planAll(scanned)
	if err != nil {
		return nil, fmt.Errorf("weaving %s: %w", m.Name, err)
	}

	report := &Report{Module: m.Name}
	if len(plans) > 0 {
		ref, added, err := importRuntimeTypes(m, w.opts)
		if err != nil {
			return nil, fmt.Errorf("weaving %s: %w", m.Name, err)
		}
		report.RuntimeReference = ref
		report.ReferenceAdded = added
	}
	if err := verify(plans); err != nil {
		return nil, fmt.Errorf("weaving %s: %w", m.Name, err)
	}

	// The module is only touched from here on.
	if report.ReferenceAdded {
		m.References = append(m.References, report.RuntimeReference)
	}
	for _, p := range plans {
		tr, err := w.apply(p)
		if err != nil {
			return nil, fmt.Errorf("weaving %s: %w", m.Name, err)
		}
		report.Types = append(report.Types, tr)
	}
	if w.opts.Clean {
		for _, st := range scanned {
			w.stripMarkers(st)
		}
		if !w.markersRemain(m) {
			report.ReferenceCleaned = m.RemoveReference(w.opts.MarkerReference)
		}
	}
	m.Attributes = append(m.Attributes, module.Attribute{Type: WovenAttribute})

	logger.Printf("wove %s: %d types, %d setters in %v", m.Name, len(report.Types), report.Instrumented(), time.Since(start))
	return report, nil
}

// planAll plans every scanned type on a bounded worker pool and returns the
// non-empty plans in module order.
func (w *Weaver) planAll(scanned []ScannedType) ([]*typePlan, error) {
	type result struct {
		index int
		plan  *typePlan
		err   error
	}

	work := make(chan int, len(scanned))
	results := make(chan result, len(scanned))

	var wg sync.WaitGroup
	for range min(w.opts.Workers, max(len(scanned), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				p, err := w.plan(scanned[idx])
				results <- result{index: idx, plan: p, err: err}
			}
		}()
	}

	for i := range scanned {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	indexed := make([]*typePlan, len(scanned))
	errs := make([]error, len(scanned))
	for r := range results {
		indexed[r.index] = r.plan
		errs[r.index] = r.err
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	var plans []*typePlan
	for _, p := range indexed {
		if p != nil {
			plans = append(plans, p)
		}
	}
	return plans, nil
}

// plan validates one type without modifying it. A nil plan means the type
// has nothing to weave.
func (w *Weaver) plan(st ScannedType) (*typePlan, error) {
	if len(st.Marked) == 0 {
		return nil, nil
	}

	g, err := BuildGraph(st.Type, st.Marked)
	if err != nil {
		return nil, err
	}

	marked := make(map[string]MarkedProperty, len(st.Marked))
	for _, mp := range st.Marked {
		marked[mp.Property.Name] = mp
	}

	var errs []error
	tp := &typePlan{scanned: st}
	owners := map[*module.Method]string{}
	for _, source := range g.Sources() {
		p := st.Type.Property(source)
		if p.Setter == nil {
			// A getter-only DependsOn property is announced from the sources
			// it names. Anything else would never be announced.
			if mp := marked[source]; !mp.SelfNotify() && len(mp.DependsOn()) > 0 {
				continue
			}
		}
		if _, err := CheckSetterShape(p); err != nil {
			errs = append(errs, err)
			continue
		}
		if owner, ok := owners[p.Setter]; ok {
			errs = append(errs, &InstrumentationShapeError{
				Type:     st.Type.Name,
				Property: p.Name,
				Reason:   fmt.Sprintf("setter %s is shared with property %s", p.Setter.Name, owner),
			})
			continue
		}
		owners[p.Setter] = p.Name
		tp.setters = append(tp.setters, setterPlan{property: p, dependents: g.Dependents(source)})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(tp.setters) == 0 {
		return nil, nil
	}

	tp.helper, err = SynthesizeHelper(st.Type, st.Event, w.opts)
	if err != nil {
		return nil, err
	}
	return tp, nil
}

func (w *Weaver) apply(tp *typePlan) (TypeReport, error) {
	t := tp.scanned.Type
	t.AddMethod(tp.helper)

	tr := TypeReport{Type: t.Name, Helper: tp.helper.Name}
	for _, sp := range tp.setters {
		if err := InstrumentSetter(sp.property, tp.helper, sp.dependents); err != nil {
			return tr, err
		}
		tr.Setters = append(tr.Setters, SetterReport{
			Property: sp.property.Name,
			Setter:   sp.property.Setter.Name,
			Notifies: sp.dependents,
		})
		w.opts.logger().Printf("%s.%s notifies %v", t.Name, sp.property.Name, sp.dependents)
	}
	return tr, nil
}

// verify rechecks every planned setter right before the first mutation, so
// apply can only fail on a module changed while it was being planned.
func verify(plans []*typePlan) error {
	var errs []error
	for _, tp := range plans {
		for _, sp := range tp.setters {
			if _, err := CheckSetterShape(sp.property); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (w *Weaver) stripMarkers(st ScannedType) {
	for _, mp := range st.Marked {
		p := mp.Property
		kept := p.Attributes[:0]
		for _, a := range p.Attributes {
			if !isMarker(a, w.opts) {
				kept = append(kept, a)
			}
		}
		if len(kept) == 0 {
			kept = nil
		}
		p.Attributes = kept
	}
}

func (w *Weaver) markersRemain(m *module.Module) bool {
	for _, t := range m.Types {
		for _, p := range t.Properties {
			for _, a := range p.Attributes {
				if isMarker(a, w.opts) {
					return true
				}
			}
		}
	}
	return false
}

// Weave runs a pass with opts over m.
func Weave(m *module.Module, opts Options) (*Report, error) {
	return New(opts).Execute(m)
}
