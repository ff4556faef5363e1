package feature

// Journal is an undo log over the state that notification grows: recorded
// contexts, generated reactions, dependents and notifier flags.  Changes are
// staged while a window is open.  A window that fails undoes everything
// staged since it opened; closing the outermost window commits.
//
// A nil *Journal is valid and commits every change at once.
type Journal struct {
	entries []journalEntry
	open    int
}

type journalEntry struct {
	undo   func()
	commit func()
}

// Begin opens a window and returns its mark for End.
func (j *Journal) Begin() int {
	if j == nil {
		return 0
	}
	j.open++
	return len(j.entries)
}

// End closes the window opened at mark.  A non-nil err undoes the entries
// staged since mark, newest first, and discards them.  When the outermost
// window closes, the commit hooks of the surviving entries run in staging
// order.
func (j *Journal) End(mark int, err error) {
	if j == nil || j.open == 0 {
		return
	}
	j.open--
	if err != nil {
		for i := len(j.entries) - 1; i >= mark; i-- {
			if undo := j.entries[i].undo; undo != nil {
				undo()
			}
		}
		clear(j.entries[mark:])
		j.entries = j.entries[:mark]
	}
	if j.open > 0 {
		return
	}
	staged := j.entries
	j.entries = nil
	for _, e := range staged {
		if e.commit != nil {
			e.commit()
		}
	}
}

// Record stages a change.  undo reverts it if an enclosing window fails.
// commit, when non-nil, runs once the outermost window succeeds.  Outside
// any window the change is final: commit runs at once and undo is dropped.
func (j *Journal) Record(undo, commit func()) {
	if j == nil || j.open == 0 {
		if commit != nil {
			commit()
		}
		return
	}
	j.entries = append(j.entries, journalEntry{undo: undo, commit: commit})
}

// Open reports whether a window is open.
func (j *Journal) Open() bool { return j != nil && j.open > 0 }

// Staged returns the number of entries awaiting commit.
func (j *Journal) Staged() int {
	if j == nil {
		return 0
	}
	return len(j.entries)
}
