package loaders

import "taskloom/internal/dag"

// Loaded bundles the normalized agenda and depend documents plus the
// Graph built from them, so callers that only need the Graph (the
// reactor, offline mode) and callers that also need Procedures (the
// WorkerPool, to render effective commands) share one load path.
type Loaded struct {
	Agenda *AgendaResult
	Depend map[string][]string
	Graph  *dag.Graph
}

// Load reads, validates, and normalizes the agenda and depend documents
// at the given paths and builds the Graph from them. Loading is
// all-or-nothing: the first violation anywhere in the pipeline is
// returned and nothing partial is handed back.
func Load(agendaPath, dependPath string) (*Loaded, error) {
	agenda, err := LoadAgenda(agendaPath)
	if err != nil {
		return nil, err
	}

	depend, err := LoadDepend(dependPath)
	if err != nil {
		return nil, err
	}

	g, err := dag.Build(agenda.Tasks, depend)
	if err != nil {
		return nil, err
	}

	return &Loaded{Agenda: agenda, Depend: depend, Graph: g}, nil
}
