package tui

// RowUpdateMsg updates a single row's fields by column name. Seconds, when
// positive, is added to the measured total shown in the footer.
type RowUpdateMsg struct {
	Key     string
	Fields  map[string]string
	Seconds float64
}

// WorkDoneMsg signals that all background work has completed.
type WorkDoneMsg struct{}

// ErrorMsg signals a fatal error; the TUI should quit.
type ErrorMsg struct {
	Err error
}
