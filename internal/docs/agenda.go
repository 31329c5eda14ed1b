package docs

// Agenda is the top-level shape of the agenda document: the procedures
// available, the stages that gate them, and the concrete tasks to run.
//
// Fields mirror the teacher's core.Task yaml tags (name/inputs/outputs as
// plain lists, no implied or derived fields), extended with the
// procedure/stage vocabulary this system adds on top.
type Agenda struct {
	Procs  map[string][]string `yaml:"procs"`
	Stages [][]string          `yaml:"stages"`
	Tasks  []AgendaTask        `yaml:"tasks"`
}

// AgendaTask is one task entry in the agenda's tasks list.
type AgendaTask struct {
	Desc    string              `yaml:"desc"`
	Proc    string              `yaml:"proc"`
	Args    map[string][]string `yaml:"args"`
	Inputs  []string            `yaml:"inputs"`
	Outputs []string            `yaml:"outputs"`
}

// Depend is the top-level shape of the depend document: a map from file
// path to the list of file paths its freshness depends on. A missing
// depend file is treated as an empty Depend, not an error.
type Depend map[string][]string
