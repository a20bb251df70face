package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// executeDue pops and executes every event whose timestamp is <= the clock.
// Executing an event never schedules another one, so the loop terminates.
func (sim *Simulator) executeDue() int {
	n := 0
	for {
		ev, ok := sim.queue.PopDue(sim.clock)
		if !ok {
			return n
		}
		ev.Execute(sim)
		sim.Metrics.EventsProcessed++
		n++
	}
}

// danglingReference handles an event naming an id absent from the registry.
func (sim *Simulator) danglingReference(kind string, id int, ev Event) {
	if sim.config.StrictReferences {
		panic(fmt.Sprintf("%s event at t=%v references unknown %s %d", ev.Type(), ev.Timestamp(), kind, id))
	}
	sim.Metrics.DanglingEvents++
	logrus.Debugf("[t=%.4f] %s: dropping reference to unknown %s %d", sim.clock, ev.Type(), kind, id)
}
