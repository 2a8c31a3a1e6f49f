package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	cl "finsim/internal/cli"
	"finsim/internal/sim"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FD7FF"))
	labelStyle = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("#A8A8A8"))
	alertStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F5F"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

const maxPlayEvents = 8

func newPlayCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Interactive dashboard for the selected session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("play needs an interactive terminal; use `fsim status` instead")
			}
			cur, err := currentSession()
			if err != nil {
				return err
			}
			m := newPlayModel(cmd.Context(), newClient(apiBase), *apiBase, cur.SessionID)
			defer m.close()
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

type stateMsg sessionState

type advanceMsg advancePayload

type errMsg struct{ err error }

type streamMsg struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type streamClosedMsg struct{}

type playModel struct {
	ctx       context.Context
	client    *cl.Client
	apiBase   string
	sessionID string

	state   *sessionState
	events  []sim.Event
	status  string
	busy    bool
	width   int
	lastDay uint32

	conn *websocket.Conn
	bars map[string]progress.Model
}

func newPlayModel(ctx context.Context, client *cl.Client, apiBase, sessionID string) *playModel {
	bars := make(map[string]progress.Model, 6)
	for _, name := range []string{"stress", "emotion", "karma", "logic", "reputation", "energy"} {
		opt := progress.WithDefaultGradient()
		if name == "stress" {
			opt = progress.WithGradient("#5FAF5F", "#FF5F5F")
		}
		bars[name] = progress.New(opt, progress.WithWidth(30))
	}
	return &playModel{
		ctx:       ctx,
		client:    client,
		apiBase:   strings.TrimRight(apiBase, "/"),
		sessionID: sessionID,
		bars:      bars,
		status:    "connecting...",
	}
}

func (m *playModel) close() {
	if m.conn != nil {
		_ = m.conn.Close()
	}
}

func (m *playModel) Init() tea.Cmd {
	return tea.Batch(m.fetchState(), m.dialStream())
}

func (m *playModel) fetchState() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, 30*time.Second)
		defer cancel()
		out, err := m.client.State(ctx, m.sessionID)
		if err != nil {
			return errMsg{err}
		}
		state, err := decodeInto[sessionState](out)
		if err != nil {
			return errMsg{err}
		}
		return stateMsg(state)
	}
}

// dialStream opens the session's websocket. A failed dial is not fatal; the
// dashboard still refreshes after each of its own actions.
func (m *playModel) dialStream() tea.Cmd {
	return func() tea.Msg {
		wsURL := "ws" + strings.TrimPrefix(m.apiBase, "http") + cl.SessionPath(m.sessionID, "stream")
		conn, _, err := websocket.DefaultDialer.DialContext(m.ctx, wsURL, nil)
		if err != nil {
			return streamClosedMsg{}
		}
		m.conn = conn
		return m.readStream()
	}
}

func (m *playModel) readStream() tea.Msg {
	if m.conn == nil {
		return streamClosedMsg{}
	}
	_, raw, err := m.conn.ReadMessage()
	if err != nil {
		return streamClosedMsg{}
	}
	var msg streamMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return streamClosedMsg{}
	}
	return msg
}

func (m *playModel) act(method, path string, body any, advance bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, 30*time.Second)
		defer cancel()
		out, err := m.client.Do(ctx, method, path, body, uuid.NewString())
		if err != nil {
			return errMsg{err}
		}
		if advance {
			payload, err := decodeInto[advancePayload](out)
			if err != nil {
				return errMsg{err}
			}
			return advanceMsg(payload)
		}
		state, err := decodeInto[sessionState](out)
		if err != nil {
			return errMsg{err}
		}
		return stateMsg(state)
	}
}

func (m *playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		for name, bar := range m.bars {
			bar.Width = max(10, min(30, m.width/3))
			m.bars[name] = bar
		}
		return m, nil
	case tea.KeyMsg:
		if m.busy && msg.String() != "q" && msg.String() != "ctrl+c" {
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "d":
			m.busy, m.status = true, "advancing one day..."
			return m, m.act(http.MethodPost, cl.SessionPath(m.sessionID, "advance"), map[string]any{"days": 1}, true)
		case "w":
			m.busy, m.status = true, "advancing one week..."
			return m, m.act(http.MethodPost, cl.SessionPath(m.sessionID, "advance"), map[string]any{"days": 7}, true)
		case "m":
			m.busy, m.status = true, "advancing one month..."
			return m, m.act(http.MethodPost, cl.SessionPath(m.sessionID, "advance"), map[string]any{"days": sim.DaysPerMonth}, true)
		case "r":
			m.busy, m.status = true, "resting..."
			return m, m.act(http.MethodPost, cl.SessionPath(m.sessionID, "rest"), map[string]any{}, false)
		case "g":
			m.busy, m.status = true, "refreshing..."
			return m, m.fetchState()
		}
		return m, nil
	case stateMsg:
		s := sessionState(msg)
		m.state, m.busy, m.status = &s, false, "ready"
		return m, nil
	case advanceMsg:
		s := msg.State
		m.state, m.busy = &s, false
		m.pushReport(msg.Report)
		return m, nil
	case streamMsg:
		if msg.Type == "update" {
			var u struct {
				Op     string             `json:"op"`
				State  sessionState       `json:"state"`
				Report *sim.AdvanceReport `json:"report"`
			}
			if err := json.Unmarshal(msg.Data, &u); err == nil {
				m.state = &u.State
				if u.Report != nil && u.Op == "advance" {
					m.pushReport(*u.Report)
				}
			}
		}
		return m, m.readStream
	case streamClosedMsg:
		return m, nil
	case errMsg:
		m.busy = false
		m.status = "error: " + msg.err.Error()
		return m, nil
	}
	return m, nil
}

// pushReport records an advance once. The same report can arrive both as the
// response to our request and on the stream.
func (m *playModel) pushReport(r sim.AdvanceReport) {
	if r.To.TotalDays <= m.lastDay {
		return
	}
	m.lastDay = r.To.TotalDays
	m.status = fmt.Sprintf("advanced %d days", r.Days)
	m.events = append(m.events, r.Events...)
	if len(m.events) > maxPlayEvents {
		m.events = m.events[len(m.events)-maxPlayEvents:]
	}
}

func (m *playModel) View() string {
	if m.state == nil {
		return titleStyle.Render("fsim") + "\n\n" + m.status + "\n"
	}
	s := m.state
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s | %s", s.Name, s.Clock.String())))
	b.WriteString("\n\n")

	money := []string{
		labelStyle.Render("Cash") + formatPaise(s.Ledger.Cash),
		labelStyle.Render("Net worth") + signedPaise(s.Ledger.NetWorth),
		labelStyle.Render("Cashflow") + signedPaise(s.Ledger.Cashflow) + "/mo",
		labelStyle.Render("Debt") + formatPaise(s.Ledger.Liabilities),
		labelStyle.Render("Credit") + fmt.Sprintf("%d", s.CreditScore),
	}
	w := s.Wellbeing
	stats := []struct {
		name  string
		value int
	}{
		{"stress", w.Stress}, {"emotion", w.Emotion}, {"karma", w.Karma},
		{"logic", w.Logic}, {"reputation", w.Reputation}, {"energy", w.Energy},
	}
	wellbeing := make([]string, 0, len(stats))
	for _, st := range stats {
		bar := m.bars[st.name]
		wellbeing = append(wellbeing, labelStyle.Render(st.name)+bar.ViewAs(float64(st.value)/float64(sim.StatMax))+fmt.Sprintf(" %3d", st.value))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(strings.Join(money, "\n")),
		" ",
		panelStyle.Render(strings.Join(wellbeing, "\n")),
	))
	b.WriteString("\n")

	switch {
	case w.HospitalizedTurnsLeft > 0:
		b.WriteString(alertStyle.Render(fmt.Sprintf("Hospitalized for %d more days", w.HospitalizedTurnsLeft)) + "\n")
	case w.BreakdownTurnsLeft > 0:
		b.WriteString(alertStyle.Render(fmt.Sprintf("Breakdown for %d more days", w.BreakdownTurnsLeft)) + "\n")
	case w.BlackoutTurnsLeft > 0:
		b.WriteString(alertStyle.Render(fmt.Sprintf("Blackout for %d more days", w.BlackoutTurnsLeft)) + "\n")
	}

	if len(m.events) > 0 {
		lines := make([]string, 0, len(m.events))
		for _, ev := range m.events {
			line := fmt.Sprintf("day %-5d %-16s %s", ev.Day, ev.Kind, ev.Ref)
			if ev.Amount != 0 {
				line += " " + signedPaise(ev.Amount)
			}
			lines = append(lines, line)
		}
		b.WriteString(panelStyle.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}
	b.WriteString(m.status + "\n")
	b.WriteString(helpStyle.Render("d day  w week  m month  r rest  g refresh  q quit"))
	return b.String()
}
