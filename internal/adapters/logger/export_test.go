package logger

// Exported for white-box testing.
var (
	CollectErrorEntries = collectErrorEntries
	FormatErrorEntries  = formatErrorEntries
)

// Message returns an entry's message.
func (e errorEntry) Message() string { return e.message }

// Meta returns an entry's metadata.
func (e errorEntry) Meta() map[string]any { return e.metadata }
