package debugserver

import (
	"context"

	"github.com/desimkit/desim"
)

// ObservingHandler wraps an EventHandler so that every event delivered to
// it is also reported to a Server, without the wrapped handler or the
// kernel knowing the server exists.
type ObservingHandler struct {
	Next   desim.EventHandler
	Server *Server
}

// HandleEvent implements desim.EventHandler.
func (h ObservingHandler) HandleEvent(ctx context.Context, ev desim.Event) error {
	h.Server.Observe(EventTrace{
		EventID: ev.ID,
		Time:    ev.Time,
		Src:     ev.Src,
		Dst:     ev.Dst,
		Type:    desim.TypeTag(ev.Payload),
	})
	return h.Next.HandleEvent(ctx, ev)
}
