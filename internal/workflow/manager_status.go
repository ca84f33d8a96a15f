package workflow

import "hlsbot/internal/queue"

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running   bool        `json:"running"`
	LastError string      `json:"last_error,omitempty"`
	LastJob   string      `json:"last_job,omitempty"`
	Queue     queue.Stats `json:"queue"`
}

// Status returns the latest workflow information.
func (m *Manager) Status() StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{Running: m.running, LastJob: m.lastJob}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	m.mu.RUnlock()
	summary.Queue = m.queue.Stats()
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(id string) {
	m.mu.Lock()
	m.lastJob = id
	m.mu.Unlock()
}
