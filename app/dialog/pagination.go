package dialog

// Direction is a pagination step.
type Direction int

const (
	Next Direction = iota
	Prev
)

// Affordance tells which navigation buttons make sense at an index.
type Affordance struct {
	HasPrev bool
	HasNext bool
}

// Advance moves index one step in dir, clamped to [0, length-1].
// Callers guarantee length > 0.
func Advance(length, index int, dir Direction) int {
	if length <= 0 {
		return 0
	}
	index = clamp(index, length)
	switch dir {
	case Next:
		return min(length-1, index+1)
	case Prev:
		return max(0, index-1)
	}
	return index
}

// Affordances reports which directions are available from index.
func Affordances(length, index int) Affordance {
	if length <= 0 {
		return Affordance{}
	}
	index = clamp(index, length)
	return Affordance{
		HasPrev: index > 0,
		HasNext: index < length-1,
	}
}

func clamp(index, length int) int {
	return max(0, min(length-1, index))
}
