package maglev

// traceTable contains optional callbacks called on table changes.
// Nil callbacks are skipped.
type traceTable struct {
	OnRebuild func(size, n int) traceTableRebuild
	OnPermute func(b string, offset, skip int)
	OnPublish func(size int, backends []string)
}

type traceTableRebuild struct {
	OnDone func(rounds int)
}

// Compose returns a new traceTable which has functional fields composed
// both from t and x.
func (t traceTable) Compose(x traceTable) (ret traceTable) {
	switch {
	case t.OnRebuild == nil:
		ret.OnRebuild = x.OnRebuild
	case x.OnRebuild == nil:
		ret.OnRebuild = t.OnRebuild
	default:
		h1 := t.OnRebuild
		h2 := x.OnRebuild
		ret.OnRebuild = func(size, n int) traceTableRebuild {
			r1 := h1(size, n)
			r2 := h2(size, n)
			return r1.Compose(r2)
		}
	}
	switch {
	case t.OnPermute == nil:
		ret.OnPermute = x.OnPermute
	case x.OnPermute == nil:
		ret.OnPermute = t.OnPermute
	default:
		h1 := t.OnPermute
		h2 := x.OnPermute
		ret.OnPermute = func(b string, offset, skip int) {
			h1(b, offset, skip)
			h2(b, offset, skip)
		}
	}
	switch {
	case t.OnPublish == nil:
		ret.OnPublish = x.OnPublish
	case x.OnPublish == nil:
		ret.OnPublish = t.OnPublish
	default:
		h1 := t.OnPublish
		h2 := x.OnPublish
		ret.OnPublish = func(size int, backends []string) {
			h1(size, backends)
			h2(size, backends)
		}
	}
	return ret
}

func (t traceTableRebuild) Compose(x traceTableRebuild) (ret traceTableRebuild) {
	switch {
	case t.OnDone == nil:
		ret.OnDone = x.OnDone
	case x.OnDone == nil:
		ret.OnDone = t.OnDone
	default:
		h1 := t.OnDone
		h2 := x.OnDone
		ret.OnDone = func(rounds int) {
			h1(rounds)
			h2(rounds)
		}
	}
	return ret
}

func (t traceTable) onRebuild(size, n int) traceTableRebuild {
	fn := t.OnRebuild
	if fn == nil {
		return traceTableRebuild{}
	}
	return fn(size, n)
}

func (t traceTable) onPermute(b string, offset, skip int) {
	if fn := t.OnPermute; fn != nil {
		fn(b, offset, skip)
	}
}

func (t traceTable) onPublish(size int, backends []string) {
	if fn := t.OnPublish; fn != nil {
		fn(size, backends)
	}
}

func (t traceTableRebuild) onDone(rounds int) {
	if fn := t.OnDone; fn != nil {
		fn(rounds)
	}
}
