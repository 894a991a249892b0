package world

import "time"

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Height     uint64  `json:"height"`
	InboxDepth int     `json:"inbox_depth"`
	LastTxs    int     `json:"last_block_txs"`
	StepMS     float64 `json:"step_ms"`

	Accepted       uint64            `json:"accepted_total"`
	Rejected       uint64            `json:"rejected_total"`
	RejectedByCode map[string]uint64 `json:"rejected_by_code,omitempty"`

	Participants int `json:"participants"`
	Territories  int `json:"territories"`
}

type BlockStats struct {
	Height     uint64
	TxCount    int
	Codes      []string
	Step       time.Duration
	InboxDepth int
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	m := w.metrics.Load()
	if m == nil {
		return WorldMetrics{}
	}
	return *m
}

func (w *World) recordMetrics(height uint64, receipts []Receipt, step time.Duration) {
	prev := w.Metrics()
	next := WorldMetrics{
		Height:         height,
		InboxDepth:     len(w.inbox),
		LastTxs:        len(receipts),
		StepMS:         float64(step.Microseconds()) / 1000.0,
		Accepted:       prev.Accepted,
		Rejected:       prev.Rejected,
		RejectedByCode: make(map[string]uint64, len(prev.RejectedByCode)+1),
		Participants:   len(w.state.Participants),
		Territories:    len(w.state.Territories),
	}
	for k, v := range prev.RejectedByCode {
		next.RejectedByCode[k] = v
	}
	for _, r := range receipts {
		if r.Err == nil {
			next.Accepted++
			continue
		}
		next.Rejected++
		next.RejectedByCode[r.Code()]++
	}
	w.metrics.Store(&next)
}
