// Package command issues mutating "code" requests against a path and
// records the outcome on the console.
package command

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kennedn/apinav/internal/gateway"
	"github.com/kennedn/apinav/internal/navpath"
	"github.com/rs/zerolog"
)

type Sender interface {
	Send(ctx context.Context, path string, opts gateway.Options) *gateway.Response
	URL(path string) string
}

type Recorder interface {
	Record(label string, payload any)
}

type Dispatcher struct {
	gw      Sender
	console Recorder
	log     zerolog.Logger
}

func NewDispatcher(gw Sender, console Recorder, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		gw:      gw,
		console: console,
		log:     log.With().Str("component", "command").Logger(),
	}
}

// Query builds "<path>?code=<code>[&value=<value>]". The value parameter
// is only added when value is non-empty.
func Query(p navpath.Path, code, value string) string {
	q := navpath.Encode(p) + "?code=" + navpath.EscapeComponent(code)
	if value != "" {
		q += "&value=" + navpath.EscapeComponent(value)
	}
	return q
}

// Execute POSTs code (and optional value) to p. Success and failure both
// end up on the console; nothing is returned to the caller.
func (d *Dispatcher) Execute(ctx context.Context, p navpath.Path, code, value string) {
	query := Query(p, code, value)
	label := "POST " + d.gw.URL(query)

	resp := d.gw.Send(ctx, query, gateway.Options{Method: http.MethodPost})
	if !resp.OK || resp.Status != http.StatusOK {
		d.log.Info().Int("status", resp.Status).Str("query", query).Msg("command failed")
		d.console.Record(label, fmt.Sprintf("%d %s", resp.Status, resp.Text))
		return
	}

	d.log.Debug().Str("query", query).Msg("command ok")
	switch {
	case resp.JSON != nil:
		d.console.Record(label, resp.JSON)
	default:
		d.console.Record(label, resp.Text)
	}
}
