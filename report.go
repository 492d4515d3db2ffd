package trawler

import "github.com/aretw0/trawler/pkg/domain"

// TaskReport summarises one task execution.
type TaskReport struct {
	ID     int           `json:"id"`
	Ledger domain.Ledger `json:"ledger"`
	Failed int           `json:"failed"`
	Error  string        `json:"error,omitempty"`
	Err    error         `json:"-"`
}

// Report is the outcome of Workflow.Execute. Tasks lists the tasks that ran,
// including the one that halted the workflow.
type Report struct {
	Tasks  []TaskReport `json:"tasks"`
	Halted bool         `json:"halted"`
	Err    error        `json:"-"`
}

func (r *Report) add(id int, ledger domain.Ledger, err error) {
	tr := TaskReport{
		ID:     id,
		Ledger: ledger,
		Failed: ledger.Count(domain.OutcomeFailed),
		Err:    err,
	}
	if err != nil {
		tr.Error = err.Error()
	}
	r.Tasks = append(r.Tasks, tr)
}

// FailedActions returns the number of recovered not-found failures across all tasks.
func (r *Report) FailedActions() int {
	n := 0
	for _, t := range r.Tasks {
		n += t.Failed
	}
	return n
}
