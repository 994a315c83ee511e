package vm

// PropertyChangedEventArgs is the payload raised for a changed property.
type PropertyChangedEventArgs struct {
	PropertyName string
}

// Handler receives property change notifications.
type Handler func(sender *Object, e *PropertyChangedEventArgs)

type subscription struct {
	fn Handler
}

// Delegate is an immutable, ordered chain of handlers. Combining or removing
// returns a new chain, so an invocation in flight keeps the snapshot it
// started with. An empty chain is represented by nil.
type Delegate struct {
	subs []*subscription
}

func combine(d *Delegate, s *subscription) *Delegate {
	n := &Delegate{}
	if d != nil {
		n.subs = make([]*subscription, 0, len(d.subs)+1)
		n.subs = append(n.subs, d.subs...)
	}
	n.subs = append(n.subs, s)
	return n
}

func remove(d *Delegate, s *subscription) *Delegate {
	if d == nil {
		return nil
	}
	for i := len(d.subs) - 1; i >= 0; i-- {
		if d.subs[i] != s {
			continue
		}
		if len(d.subs) == 1 {
			return nil
		}
		n := &Delegate{subs: make([]*subscription, 0, len(d.subs)-1)}
		n.subs = append(n.subs, d.subs[:i]...)
		n.subs = append(n.subs, d.subs[i+1:]...)
		return n
	}
	return d
}

// Len is the number of handlers in the chain.
func (d *Delegate) Len() int {
	if d == nil {
		return 0
	}
	return len(d.subs)
}

func (d *Delegate) invoke(sender *Object, e *PropertyChangedEventArgs) {
	for _, s := range d.subs {
		s.fn(sender, e)
	}
}
