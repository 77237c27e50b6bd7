package nlquery

// suggestedQueries is returned with every response so the caller always has
// a forward path, including after failures.
var suggestedQueries = []string{
	"Show me patients with expired certificates",
	"Find all unfit medical examinations from last month",
	"List workers with vision test failures",
	"Show documents pending validation",
	"Find workers with hearing test failures",
	"List patients with expiring certificates next month",
	"Find workers with drug test failures",
	"List workers needing follow-up actions",
}

// SuggestedQueries returns example questions the structured pipeline can answer.
func SuggestedQueries() []string {
	out := make([]string, len(suggestedQueries))
	copy(out, suggestedQueries)
	return out
}
