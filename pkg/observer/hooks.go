package observer

import "time"

// ScanStats summarizes one scan pass.
type ScanStats struct {
	Bound    int // new instances created
	Unbound  int // instances torn down
	Updated  int // instances that received a new payload
	Unknown  int // attributes under the prefix with no registered observer
	Failed   int // factory and teardown failures
	Skipped  int // added elements already detached when the pass ran
	Duration time.Duration
}

// Hooks observes the lifecycle of bindings. Implementations are called on
// the dispatch goroutine and must not block.
type Hooks interface {
	OnBind(el Element, name Name)
	OnUnbind(el Element, name Name)
	OnUpdate(el Element, name Name)
	OnError(el Element, name Name, err error)
	OnScan(stats ScanStats)
}

// NopHooks ignores every callback. Embed it to implement a subset of Hooks.
type NopHooks struct{}

func (NopHooks) OnBind(Element, Name) {}
func (NopHooks) OnUnbind(Element, Name) {}
func (NopHooks) OnUpdate(Element, Name) {}
func (NopHooks) OnError(Element, Name, error) {}
func (NopHooks) OnScan(ScanStats) {}

// multiHooks fans callbacks out in registration order.
type multiHooks []Hooks

func (m multiHooks) OnBind(el Element, name Name) {
	for _, h := range m {
		h.OnBind(el, name)
	}
}

func (m multiHooks) OnUnbind(el Element, name Name) {
	for _, h := range m {
		h.OnUnbind(el, name)
	}
}

func (m multiHooks) OnUpdate(el Element, name Name) {
	for _, h := range m {
		h.OnUpdate(el, name)
	}
}

func (m multiHooks) OnError(el Element, name Name, err error) {
	for _, h := range m {
		h.OnError(el, name, err)
	}
}

func (m multiHooks) OnScan(stats ScanStats) {
	for _, h := range m {
		h.OnScan(stats)
	}
}

// JoinHooks combines several Hooks into one. Nil entries are dropped.
func JoinHooks(hooks ...Hooks) Hooks {
	var out multiHooks
	for _, h := range hooks {
		if h == nil {
			continue
		}
		if m, ok := h.(multiHooks); ok {
			out = append(out, m...)
			continue
		}
		out = append(out, h)
	}
	switch len(out) {
	case 0:
		return NopHooks{}
	case 1:
		return out[0]
	}
	return out
}
