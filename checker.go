package shovel

// Checker is a completion fingerprint owned by a task record. The engine
// never inspects a checker's fingerprint directly — it only clones, checks,
// and saves.
//
// Check reports whether the clone's live fingerprint matches what was
// persisted by the last Save. Clone must snapshot the live fingerprint at
// the moment it is called so a later Save writes exactly what was checked,
// even if the task body goes on to mutate whatever the checker observes.
// ID returns a stable identifier used to name the checker's persisted state
// (e.g. a file under .builder/).
type Checker interface {
	Check() (bool, error)
	Save() error
	Clone() Checker
	ID() string
}
