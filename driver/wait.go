package driver

import (
	"context"
	"time"

	"github.com/rlch/formrun"
)

type condition func(formrun.ElementState) bool

func isAttached(s formrun.ElementState) bool { return s.Found }

func isVisible(s formrun.ElementState) bool { return s.Found && s.Visible }

// waitFor polls sel until cond holds or within elapses. Expiry yields a
// FieldNotReadyError naming name; a cancelled parent context is returned as is.
func (d *Driver) waitFor(ctx context.Context, sel, name string, within time.Duration, cond condition) (formrun.ElementState, error) {
	wctx, cancel := context.WithTimeout(ctx, within)
	defer cancel()

	ticker := time.NewTicker(d.timeouts.Poll)
	defer ticker.Stop()

	for {
		el, err := d.browser.Query(wctx, sel)

		switch {
		case err == nil && cond(el):
			return el, nil
		case ctx.Err() != nil:
			return formrun.ElementState{}, ctx.Err()
		case err != nil && wctx.Err() == nil:
			return formrun.ElementState{}, interaction("query", name, err)
		}

		select {
		case <-ctx.Done():
			return formrun.ElementState{}, ctx.Err()
		case <-wctx.Done():
			return formrun.ElementState{}, &formrun.FieldNotReadyError{Field: name, Wait: within}
		case <-ticker.C:
		}
	}
}
