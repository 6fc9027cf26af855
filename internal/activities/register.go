package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.CreateOutlineActivity)
	w.RegisterActivity(a.ExpandSectionActivity)
	w.RegisterActivity(a.PersistPaperActivity)
}
