package api

import (
	"github.com/scorely/scorely/internal/history"
	"github.com/scorely/scorely/internal/profiles"
	"github.com/scorely/scorely/internal/runs"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Profiles profiles.System
	History  history.System
	Runs     runs.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime, maxBody int64) *Domain {
	profilesSystem := profiles.New(
		runtime.Database.Connection(),
		runtime.Logger,
	)

	historySystem := history.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	runsSystem := runs.New(
		runtime.Gateway,
		runs.NewStateStore(runtime.Database.Connection(), runtime.Logger),
		profilesSystem,
		historySystem,
		runtime.Storage,
		runtime.Logger,
		maxBody,
	)

	return &Domain{
		Profiles: profilesSystem,
		History:  historySystem,
		Runs:     runsSystem,
	}
}
