package game

// Command is an immutable snapshot sufficient to reverse exactly one move
// or draw. It is captured strictly before the mutation it reverses.
type Command struct {
	CardID       int       // Card the action touched
	FromPos      Position  // Its position before the action
	PrevActiveID int       // Active card before the action
	PrevState    CardState // Its visibility before the action
	PrevOrder    int       // Its stacking order before the action
}

// History is the LIFO stack of recorded commands, one per accepted player
// action. Depth is unbounded; it is cleared only when a session
// (re)starts.
type History struct {
	commands []Command
}

// Push appends a command. It always succeeds.
func (h *History) Push(cmd Command) {
	h.commands = append(h.commands, cmd)
}

// CanUndo reports whether there is a command to pop.
func (h *History) CanUndo() bool {
	return len(h.commands) > 0
}

// Pop removes and returns the most recent command. The second return is
// false when the stack is empty; the zero Command it comes with must not
// be acted on.
func (h *History) Pop() (Command, bool) {
	if len(h.commands) == 0 {
		return Command{}, false
	}
	cmd := h.commands[len(h.commands)-1]
	h.commands = h.commands[:len(h.commands)-1]
	return cmd, true
}

// Len returns the number of recorded commands.
func (h *History) Len() int {
	return len(h.commands)
}

// Clear drops the whole history.
func (h *History) Clear() {
	h.commands = h.commands[:0]
}
