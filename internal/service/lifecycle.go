package service

import (
	"context"

	"github.com/looplab/fsm"
)

// Lifecycle states of one (vehicle, document type) pair within a scan
const (
	statePending           = "pending"
	stateNotEligible       = "not_eligible"
	stateEligible          = "eligible"
	stateContactResolved   = "contact_resolved"
	stateContactMissing    = "contact_missing"
	stateChannelsAttempted = "channels_attempted"
	stateLedgerUpdated     = "ledger_updated"
	stateDone              = "done"
)

const (
	eventSkip     = "skip"
	eventQualify  = "qualify"
	eventResolve  = "resolve"
	eventMiss     = "miss"
	eventDispatch = "dispatch"
	eventRecord   = "record"
	eventFinish   = "finish"
)

var lifecycleEvents = fsm.Events{
	{Name: eventSkip, Src: []string{statePending}, Dst: stateNotEligible},
	{Name: eventQualify, Src: []string{statePending}, Dst: stateEligible},
	{Name: eventResolve, Src: []string{stateEligible}, Dst: stateContactResolved},
	{Name: eventMiss, Src: []string{stateEligible}, Dst: stateContactMissing},
	{Name: eventDispatch, Src: []string{stateContactResolved}, Dst: stateChannelsAttempted},
	{Name: eventRecord, Src: []string{stateChannelsAttempted}, Dst: stateLedgerUpdated},
	{Name: eventFinish, Src: []string{stateNotEligible, stateContactMissing, stateChannelsAttempted, stateLedgerUpdated}, Dst: stateDone},
}

// lifecycle tracks how far a document got through the scan
type lifecycle struct {
	machine *fsm.FSM
}

func newLifecycle() *lifecycle {
	return &lifecycle{machine: fsm.NewFSM(statePending, lifecycleEvents, fsm.Callbacks{})}
}

func (l *lifecycle) fire(ctx context.Context, event string) error {
	return l.machine.Event(ctx, event)
}

func (l *lifecycle) current() string {
	return l.machine.Current()
}

// finish moves a terminal lifecycle to done and returns the state it ended
// in. A lifecycle interrupted mid-way is left where it stopped.
func (l *lifecycle) finish(ctx context.Context) string {
	outcome := l.machine.Current()
	if l.machine.Can(eventFinish) {
		_ = l.machine.Event(ctx, eventFinish)
	}
	return outcome
}
