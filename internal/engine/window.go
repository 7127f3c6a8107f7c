package engine

import "time"

// touchWindow moves id to the tail of the co-access window, dropping the
// head if the window exceeds its size.
func (e *Engine) touchWindow(id string) {
	for i, w := range e.window {
		if w == id {
			e.window = append(e.window[:i], e.window[i+1:]...)
			break
		}
	}
	e.window = append(e.window, id)
	if len(e.window) > CoAccessWindowSize {
		e.window = e.window[len(e.window)-CoAccessWindowSize:]
	}
}

// seedWindow reconstructs the co-access window from the last hour of the
// access log. The full log slice is consumed in ascending order and
// deduplicated keeping the most recent occurrence of each id; the trailing
// truncation to the window size happens once, at the end.
func (e *Engine) seedWindow(now time.Time) error {
	ids, err := e.DB.RecentAccessNeuronIDs(now.Add(-WindowSeedHorizon))
	if err != nil {
		return err
	}

	var window []string
	for _, id := range ids {
		for i, w := range window {
			if w == id {
				window = append(window[:i], window[i+1:]...)
				break
			}
		}
		window = append(window, id)
	}
	if len(window) > CoAccessWindowSize {
		window = window[len(window)-CoAccessWindowSize:]
	}
	e.window = window

	// The log may reference neurons pruned since — drop them so the Hebbian
	// step never strengthens against a missing endpoint.
	return e.pruneWindow()
}

// pruneWindow removes window entries whose neurons no longer exist.
func (e *Engine) pruneWindow() error {
	kept := e.window[:0]
	for _, id := range e.window {
		n, err := e.DB.GetNeuron(id)
		if err != nil {
			return err
		}
		if n != nil {
			kept = append(kept, id)
		}
	}
	e.window = kept
	return nil
}

// windowLen reports the current window size (test hook).
func (e *Engine) windowLen() int {
	return len(e.window)
}
