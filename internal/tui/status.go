// Package tui renders reviewloop's live "status" view: a small terminal
// dashboard polling the service's own read API rather than a direct store
// connection, so it works identically against a local or remote instance.
package tui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// runSummary is the subset of a Run's fields the status view renders.
type runSummary struct {
	ID        string    `json:"id"`
	CommitID  string    `json:"commit_id"`
	Branch    string    `json:"branch"`
	PRNumber  int       `json:"pr_number"`
	RunType   string    `json:"run_type"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

type metricsSummary struct {
	RunsTotal        int            `json:"runs_total"`
	RunsByStatus     map[string]int `json:"runs_by_status"`
	TokensTotal      int            `json:"tokens_total"`
	EstimatedCostUSD float64        `json:"estimated_cost_usd"`
	SuccessRate      float64        `json:"success_rate"`
}

// apiClient fetches status data from a running reviewloop instance.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{baseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{Timeout: 5 * time.Second}}
}

func (c *apiClient) history(limit int) ([]runSummary, error) {
	var runs []runSummary
	if err := c.getJSON(fmt.Sprintf("/api/history?limit=%d", limit), &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (c *apiClient) metrics() (metricsSummary, error) {
	var m metricsSummary
	err := c.getJSON("/api/metrics", &m)
	return m, err
}

func (c *apiClient) getJSON(path string, out any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// tickMsg signals it's time to refresh.
type tickMsg time.Time

// refreshMsg carries freshly polled data, or an error.
type refreshMsg struct {
	runs    []runSummary
	metrics metricsSummary
	err     error
}

// StatusModel is the Bubble Tea model for `reviewloop status`. The run
// table renders into a bubbles/viewport so a history longer than the
// terminal can scroll, the way the pack's own event-log panel does.
type StatusModel struct {
	client     *apiClient
	interval   time.Duration
	runs       []runSummary
	metrics    metricsSummary
	lastUpdate time.Time
	err        error
	quitting   bool

	viewport viewport.Model
	ready    bool
}

// NewStatusModel builds a status view polling baseURL every interval.
func NewStatusModel(baseURL string, interval time.Duration) *StatusModel {
	return &StatusModel{client: newAPIClient(baseURL), interval: interval}
}

// Init starts the refresh loop.
func (m *StatusModel) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.tick())
}

const footerHeight = 4

func (m *StatusModel) renderTable() string {
	var b strings.Builder
	if len(m.runs) == 0 {
		b.WriteString(dimStyle.Render("No runs yet."))
		return b.String()
	}
	fmt.Fprintf(&b, "%-10s %-8s %-22s %s\n", "COMMIT", "PR", "TYPE", "STATUS")
	for _, r := range m.runs {
		commit := r.CommitID
		if len(commit) > 8 {
			commit = commit[:8]
		}
		pr := "-"
		if r.PRNumber != 0 {
			pr = fmt.Sprintf("#%d", r.PRNumber)
		}
		fmt.Fprintf(&b, "%-10s %-8s %-22s %s\n", commit, pr, r.RunType, styleStatus(r.Status))
	}
	return b.String()
}

func (m *StatusModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *StatusModel) refresh() tea.Cmd {
	return func() tea.Msg {
		runs, err := m.client.history(10)
		if err != nil {
			return refreshMsg{err: err}
		}
		metrics, err := m.client.metrics()
		if err != nil {
			return refreshMsg{err: err}
		}
		return refreshMsg{runs: runs, metrics: metrics}
	}
}

// Update handles Bubble Tea messages.
func (m *StatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - footerHeight
		}
		m.viewport.SetContent(m.renderTable())
	case tickMsg:
		return m, m.refresh()
	case refreshMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, m.tick()
		}
		m.runs = msg.runs
		m.metrics = msg.metrics
		m.err = nil
		m.lastUpdate = time.Now()
		if m.ready {
			m.viewport.SetContent(m.renderTable())
		}
		return m, m.tick()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the current state.
func (m *StatusModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("reviewloop status"))
	b.WriteString("\n\n")

	if m.err != nil {
		fmt.Fprintf(&b, "%s\n\n", failStyle.Render("error: "+m.err.Error()))
	}

	if m.ready {
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(m.renderTable())
	}

	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Runs: %d   Success rate: %.0f%%   Tokens: %d   Cost: $%.4f\n",
		m.metrics.RunsTotal, m.metrics.SuccessRate*100, m.metrics.TokensTotal, m.metrics.EstimatedCostUSD)

	if !m.lastUpdate.IsZero() {
		fmt.Fprintf(&b, "Last updated: %s", m.lastUpdate.Format("15:04:05"))
	}
	b.WriteString(dimStyle.Render("  (press 'q' to quit, ↑/↓ to scroll)"))

	return b.String()
}

func styleStatus(status string) string {
	switch status {
	case "completed":
		return okStyle.Render(status)
	case "completed_with_issues":
		return warnStyle.Render(status)
	case "failed":
		return failStyle.Render(status)
	default:
		return dimStyle.Render(status)
	}
}
