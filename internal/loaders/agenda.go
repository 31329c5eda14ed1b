package loaders

import (
	"taskloom/internal/docs"
	"taskloom/internal/model"
)

// AgendaResult is the normalized agenda: tasks carry a resolved Stage and
// are ready to hand to dag.Build once paired with a depend map.
type AgendaResult struct {
	Tasks      []model.Task
	Procedures map[string]model.Procedure
	Stages     []model.Stage
}

// LoadAgenda reads, parses, and validates the agenda document at path.
func LoadAgenda(path string) (*AgendaResult, error) {
	a, err := docs.LoadAgenda(path)
	if err != nil {
		return nil, err
	}
	return NormalizeAgenda(a)
}

// NormalizeAgenda validates a parsed Agenda and turns it into dag.Build
// inputs, reporting the first violation per spec.md §4.7.
func NormalizeAgenda(a *docs.Agenda) (*AgendaResult, error) {
	procedures, err := normalizeProcedures(a.Procs)
	if err != nil {
		return nil, err
	}

	stages, err := normalizeStages(a.Stages, procedures)
	if err != nil {
		return nil, err
	}

	tasks, err := normalizeTasks(a.Tasks, procedures, stages)
	if err != nil {
		return nil, err
	}

	return &AgendaResult{Tasks: tasks, Procedures: procedures, Stages: stages}, nil
}

func normalizeProcedures(raw map[string][]string) (map[string]model.Procedure, error) {
	procedures := make(map[string]model.Procedure, len(raw))
	for name, rawWords := range raw {
		if len(rawWords) == 0 {
			return nil, loadf(ErrEmptyCommand, name, "procedure has no command words")
		}
		words := make([]model.Word, 0, len(rawWords))
		for _, w := range rawWords {
			words = append(words, model.ParseWord(w))
		}
		procedures[name] = model.Procedure{Name: name, Words: words}
	}
	return procedures, nil
}

func normalizeStages(raw [][]string, procedures map[string]model.Procedure) ([]model.Stage, error) {
	stages := make([]model.Stage, 0, len(raw))
	for idx, procNames := range raw {
		set := make(map[string]struct{}, len(procNames))
		for _, name := range procNames {
			if _, ok := procedures[name]; !ok {
				return nil, loadf(ErrUnknownStageProc, name, "stage %d admits an undefined procedure", idx)
			}
			set[name] = struct{}{}
		}
		stages = append(stages, model.Stage{Index: idx, Procedures: set})
	}
	return stages, nil
}

func normalizeTasks(raw []docs.AgendaTask, procedures map[string]model.Procedure, stages []model.Stage) ([]model.Task, error) {
	tasks := make([]model.Task, 0, len(raw))
	outputOwner := make(map[string]string, len(raw))

	for i, t := range raw {
		key := t.Desc
		if key == "" {
			key = t.Proc
		}

		proc, ok := procedures[t.Proc]
		if !ok {
			return nil, loadf(ErrUndefinedProcedure, t.Proc, "task %d", i)
		}

		if _, err := proc.Render(t.Args); err != nil {
			return nil, loadf(ErrParamMismatch, key, "%v", err)
		}

		stage, ok := model.StageOf(stages, t.Proc)
		if !ok {
			return nil, loadf(ErrNoAdmittingStage, t.Proc, "task %d", i)
		}

		for _, out := range t.Outputs {
			if owner, exists := outputOwner[out]; exists {
				return nil, loadf(ErrDuplicateOutput, out, "declared by both %q and %q", owner, key)
			}
			outputOwner[out] = key
		}

		tasks = append(tasks, model.Task{
			Desc:    t.Desc,
			Proc:    t.Proc,
			Args:    t.Args,
			Inputs:  t.Inputs,
			Outputs: t.Outputs,
			Stage:   stage,
		})
	}

	return tasks, nil
}
