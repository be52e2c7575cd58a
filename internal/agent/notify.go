package agent

import (
	"github.com/shubharthaksangharsha/morpheusAI/internal/event"
	"github.com/shubharthaksangharsha/morpheusAI/internal/logging"
	"github.com/shubharthaksangharsha/morpheusAI/internal/permission"
)

// NotifyRejected logs a sandbox rejection and publishes it on bus, which
// may be nil. It reports whether err was a rejection.
func NotifyRejected(bus *event.Bus, worker string, err error) bool {
	rej, ok := permission.AsRejected(err)
	if !ok {
		return false
	}
	logging.Warn().
		Str("worker", worker).
		Str("reason", string(rej.Reason)).
		Str("detail", rej.Detail).
		Msg("sandbox rejected operation")
	if bus != nil {
		bus.Publish(event.Event{
			Type: event.SandboxRejected,
			Data: event.SandboxRejectedData{Worker: worker, Reason: string(rej.Reason), Detail: rej.Detail},
		})
	}
	return true
}
