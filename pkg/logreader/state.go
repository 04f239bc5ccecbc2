package logreader

// State is the Log Reader's state machine: ON while backend access is
// succeeding, ERROR after the first failed backend access (spec.md
// §4.3's "state (ON -> ERROR on first failed backend access)").
type State int

const (
	StateON State = iota
	StateERROR
)

func (s State) String() string {
	if s == StateERROR {
		return "ERROR"
	}
	return "ON"
}
