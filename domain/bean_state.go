package domain

// BeanState is the binding state of a stateful bean.
type BeanState int

const (
	// BeanStateUnbound is the initial state: no backing instance.
	BeanStateUnbound BeanState = iota
	// BeanStateBound means invocations are forwarded to a live backing instance.
	BeanStateBound
	// BeanStateBroken means a previously bound instance failed verification or reported itself unavailable.
	BeanStateBroken
)

func (s BeanState) String() string {
	switch s {
	case BeanStateUnbound:
		return "UNBOUND"
	case BeanStateBound:
		return "BOUND"
	case BeanStateBroken:
		return "BROKEN"
	default:
		return "UNKNOWN"
	}
}
