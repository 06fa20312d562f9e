package migrator

import (
	"context"
	"fmt"
	"strings"

	"toggl2clockify/clockify"
)

type Phase int

const (
	PhaseClients Phase = iota + 1
	PhaseTags
	PhaseGroups
	PhaseProjects
	PhaseTasks
	PhaseEntries
	PhaseArchive
)

const phaseCount = 7

// PhaseStatus counts the items a phase saw and what became of them.
type PhaseStatus struct {
	Entries int
	OK      int
	Skipped int
	Failed  int
}

func (s PhaseStatus) String() string {
	return fmt.Sprintf("(entries=%d, ok=%d, skips=%d, err=%d)", s.Entries, s.OK, s.Skipped, s.Failed)
}

// Tally counts one create outcome. Forbidden counts as failed.
func (s *PhaseStatus) Tally(outcome clockify.Outcome) {
	switch outcome {
	case clockify.OutcomeCreated:
		s.OK++
	case clockify.OutcomeAlreadyExists:
		s.Skipped++
	default:
		s.Failed++
	}
}

type phase struct {
	number Phase
	title  string
	skip   bool
	run    func(ctx context.Context, ws workspace) (PhaseStatus, error)
}

var bannerRule = strings.Repeat("-", 61)

func (m *Migrator) runPhase(ctx context.Context, ws workspace, p phase) error {
	m.log.Info(bannerRule)
	m.log.Info(fmt.Sprintf("Phase %d of %d: %s", p.number, phaseCount, p.title))
	m.log.Info(bannerRule)

	var status PhaseStatus
	if p.skip {
		m.log.Info(fmt.Sprintf("... skipping phase %d", p.number))
	} else {
		var err error
		status, err = p.run(ctx, ws)
		if err != nil {
			m.log.Error(fmt.Sprintf("Phase %d of %d (%s) aborted %s", p.number, phaseCount, p.title, status))
			m.record(ctx, ws, p, status)
			return fmt.Errorf("phase %d (%s): %w", p.number, p.title, err)
		}
	}

	m.log.Info(bannerRule)
	m.log.Info(fmt.Sprintf("Phase %d of %d (%s) completed %s", p.number, phaseCount, p.title, status))
	m.log.Info(bannerRule)
	m.record(ctx, ws, p, status)
	return nil
}
