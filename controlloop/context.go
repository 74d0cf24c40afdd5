package controlloop

import (
	"github.com/junctionlab/signalcore/adapter"
	"github.com/junctionlab/signalcore/config"
	"github.com/junctionlab/signalcore/decision"
	"github.com/junctionlab/signalcore/memory"
	"github.com/junctionlab/signalcore/metrics"
	"github.com/junctionlab/signalcore/persistence"
	"github.com/junctionlab/signalcore/predictor"
)

// Context wires together one instance of every component the run loop
// drives each tick.
type Context struct {
	Adapter    adapter.Adapter
	Metrics    *metrics.Engine
	Predictor  *predictor.Engine
	Memory     *memory.Store
	Decision   *decision.Controller
	Experience *persistence.ExperienceStore
	EventLog   *persistence.EventLog
	Thresholds config.Thresholds
}

// NewContext assembles a Context from its constituent components; the
// caller owns their lifetimes (e.g. closing persistence handles).
func NewContext(ad adapter.Adapter, th config.Thresholds, exp *persistence.ExperienceStore, evlog *persistence.EventLog) *Context {
	return &Context{
		Adapter:    ad,
		Metrics:    metrics.NewEngine(ad, th),
		Predictor:  predictor.NewEngine(th),
		Memory:     memory.NewStore(10000),
		Decision:   decision.NewController(ad, th),
		Experience: exp,
		EventLog:   evlog,
		Thresholds: th,
	}
}
