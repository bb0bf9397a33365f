package scanner

// State стадия жизненного цикла тайла в координаторе
type State int

const (
	// StateUnseen тайл не загружен либо вытеснен
	StateUnseen State = iota
	// StateLoading запись создаётся
	StateLoading
	// StateCached запись в хранилище
	StateCached
	// StateDisposed запись в хранилище, ресурсы освобождены
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUnseen:
		return "unseen"
	case StateLoading:
		return "loading"
	case StateCached:
		return "cached"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}
