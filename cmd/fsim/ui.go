package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"finsim/internal/sim"

	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

// sessionState mirrors the server's session view.
type sessionState struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	AutoAdvance bool                   `json:"auto_advance"`
	Clock       sim.Clock              `json:"clock"`
	Ledger      sim.LedgerState        `json:"ledger"`
	Instruments sim.InstrumentsView    `json:"instruments"`
	Wellbeing   sim.WellbeingState     `json:"wellbeing"`
	Sectors     []sim.SectorInvestment `json:"sectors"`
	CreditScore int                    `json:"credit_score"`
	Reviews     []sim.YearReview       `json:"reviews"`
}

type sessionSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	AutoAdvance bool      `json:"auto_advance"`
	TotalDays   uint32    `json:"total_days"`
	NetWorth    int64     `json:"net_worth"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type sessionsPayload struct {
	Sessions []sessionSummary `json:"sessions"`
}

type advancePayload struct {
	Report sim.AdvanceReport `json:"report"`
	State  sessionState      `json:"state"`
}

type sectorsPayload struct {
	Sectors []sim.SectorSpec `json:"sectors"`
}

type transactionsPayload struct {
	Transactions []sim.Transaction `json:"transactions"`
}

type replayPayload struct {
	Results []struct {
		Status int `json:"status"`
	} `json:"results"`
}

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	normalized := make(map[string]struct{}, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if _, ok := normalized[text]; ok {
			return text, nil
		}
		printWarn("Invalid option. Please pick one of the listed values.")
	}
}

func renderState(s sessionState) {
	accent.Printf("\n== %s | %s ==\n", s.Name, s.Clock.String())
	fmt.Printf("Cash:          %s\n", formatPaise(s.Ledger.Cash))
	fmt.Printf("Net Worth:     %s\n", colorizePaise(s.Ledger.NetWorth))
	fmt.Printf("Cashflow/mo:   %s\n", colorizePaise(s.Ledger.Cashflow))
	fmt.Printf("Assets:        %s\n", formatPaise(s.Ledger.AssetValue))
	fmt.Printf("Liabilities:   %s\n", formatPaise(s.Ledger.Liabilities))
	fmt.Printf("Credit Score:  %d\n", s.CreditScore)
	if s.AutoAdvance {
		printInfo("Auto-advance is on.")
	}

	fmt.Println()
	accent.Println("Wellbeing")
	w := s.Wellbeing
	fmt.Printf("Stress %3d  Emotion %3d  Karma %3d  Logic %3d  Reputation %3d  Energy %3d\n",
		w.Stress, w.Emotion, w.Karma, w.Logic, w.Reputation, w.Energy)
	switch {
	case w.HospitalizedTurnsLeft > 0:
		printError(fmt.Sprintf("Hospitalized: %d more days. Discretionary actions are frozen.", w.HospitalizedTurnsLeft))
	case w.BreakdownTurnsLeft > 0:
		printError(fmt.Sprintf("Breakdown: %d more days. Discretionary actions are frozen.", w.BreakdownTurnsLeft))
	case w.BlackoutTurnsLeft > 0:
		printWarn(fmt.Sprintf("Blackout: %d more days.", w.BlackoutTurnsLeft))
	}

	in := s.Instruments
	if len(in.Bonds) > 0 {
		fmt.Println()
		accent.Println("Bonds")
		fmt.Printf("%-5s %-11s %14s %8s %6s %-10s\n", "ID", "KIND", "PRINCIPAL", "RATE", "LEFT", "STATUS")
		for _, b := range in.Bonds {
			fmt.Printf("%-5s %-11s %14s %7.2f%% %6d %-10s\n", b.ID, b.BondKind, formatPaise(b.Principal), bpsPercent(int64(b.RateBps)), b.TurnsRemaining, b.Status)
		}
	}
	if len(in.Loans) > 0 {
		fmt.Println()
		accent.Println("Loans")
		fmt.Printf("%-5s %-10s %14s %12s %8s %6s %7s %-9s %-8s\n", "ID", "KIND", "OUTSTANDING", "EMI", "RATE", "LEFT", "MISSED", "STATUS", "AUTOPAY")
		for _, l := range in.Loans {
			auto := "no"
			if l.AutoPay {
				auto = "yes"
			}
			fmt.Printf("%-5s %-10s %14s %12s %7.2f%% %6d %7d %-9s %-8s\n",
				l.ID, l.LoanKind, formatPaise(l.Outstanding), formatPaise(l.EMI), bpsPercent(int64(l.RateBps)),
				l.RemainingMonths, l.MissedPayments, l.Status, auto)
		}
	}
	if len(in.Assets) > 0 {
		fmt.Println()
		accent.Println("Assets")
		fmt.Printf("%-5s %-20s %14s %12s %12s\n", "ID", "NAME", "VALUE", "INCOME", "UPKEEP")
		for _, a := range in.Assets {
			fmt.Printf("%-5s %-20s %14s %12s %12s\n", a.ID, truncate(a.Name, 20), formatPaise(a.Value), formatPaise(a.MonthlyIncome), formatPaise(a.MaintenanceCost))
		}
	}
	if in.CreditLine.Balance > 0 {
		fmt.Println()
		fmt.Printf("Credit line: %s of %s used\n", formatPaise(in.CreditLine.Balance), formatPaise(in.CreditLine.Limit))
	}
	if len(s.Sectors) > 0 {
		fmt.Println()
		accent.Println("Businesses")
		fmt.Printf("%-12s %14s %8s %14s\n", "SECTOR", "INVESTED", "CITIES", "REVENUE/MO")
		for _, sec := range s.Sectors {
			fmt.Printf("%-12s %14s %8d %14s\n", sec.SectorID, formatPaise(sec.TotalInvested), len(sec.Cities), formatPaise(sec.MonthlyRevenue))
		}
	}
	fmt.Println()
}

func renderSessions(raw map[string]any) error {
	payload, err := decodeInto[sessionsPayload](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== SESSIONS ==")
	if len(payload.Sessions) == 0 {
		printInfo("No sessions yet. Run `fsim new`.")
		return nil
	}
	fmt.Printf("%-36s %-20s %8s %16s %-5s %-16s\n", "ID", "NAME", "DAY", "NET WORTH", "AUTO", "UPDATED")
	for _, s := range payload.Sessions {
		auto := "no"
		if s.AutoAdvance {
			auto = "yes"
		}
		fmt.Printf("%-36s %-20s %8d %16s %-5s %-16s\n",
			s.ID, truncate(s.Name, 20), s.TotalDays, formatPaise(s.NetWorth), auto, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Println()
	return nil
}

func renderAdvance(raw map[string]any) error {
	payload, err := decodeInto[advancePayload](raw)
	if err != nil {
		return err
	}
	r := payload.Report
	accent.Printf("\n== %s -> %s ==\n", r.From.String(), r.To.String())
	if len(r.Events) == 0 {
		printInfo("A quiet stretch. Nothing happened.")
	}
	for _, ev := range r.Events {
		printEvent(ev)
	}
	for _, rv := range r.Reviews {
		accent.Printf("Year %d review: net worth %s, wealth %s, wellbeing %s\n", rv.Year, formatPaise(rv.NetWorth), rv.WealthBand, rv.WellbeingBand)
	}
	fmt.Printf("\nCash %s | Net worth %s\n\n", formatPaise(payload.State.Ledger.Cash), colorizePaise(payload.State.Ledger.NetWorth))
	return nil
}

func printEvent(ev sim.Event) {
	line := fmt.Sprintf("day %-5d %-16s", ev.Day, ev.Kind)
	if ev.Ref != "" {
		line += " " + ev.Ref
	}
	if ev.Amount != 0 {
		line += " " + signedPaise(ev.Amount)
	}
	if ev.Detail != "" {
		line += " " + ev.Detail
	}
	switch ev.Kind {
	case sim.EventPaymentMissed, sim.EventPenaltyRaised, sim.EventAssetsSeized, sim.EventBondDefaulted,
		sim.EventHospitalized, sim.EventBreakdown, sim.EventAutoPayFailed:
		printError(line)
	case sim.EventBlackout, sim.EventCreditInterest, sim.EventDebtWiped:
		printWarn(line)
	case sim.EventBondMatured, sim.EventLoanPaidOff, sim.EventLoanActivated:
		printSuccess(line)
	default:
		printInfo(line)
	}
}

func renderPaid(raw map[string]any, field, label string) error {
	v, ok := raw[field].(float64)
	if !ok {
		return renderSimpleOK(raw, "")
	}
	printSuccess(fmt.Sprintf("%s %s.", label, formatPaise(int64(v))))
	return nil
}

func renderSectors(raw map[string]any) error {
	payload, err := decodeInto[sectorsPayload](raw)
	if err != nil {
		return err
	}
	for _, s := range payload.Sectors {
		accent.Printf("\n== %s (%s) ==\n", s.Name, s.ID)
		fmt.Printf("Base revenue per city: %s/mo\n", formatPaise(s.BaseRatePerCity))
		fmt.Printf("%-10s %-18s %-24s %14s %8s\n", "CATEGORY", "ID", "NAME", "COST", "BONUS")
		for _, m := range s.Modifiers {
			bonus := "-"
			if m.BonusBps != 0 {
				bonus = fmt.Sprintf("%+.1f%%", bpsPercent(m.BonusBps))
			}
			fmt.Printf("%-10s %-18s %-24s %14s %8s\n", m.Category, m.ID, truncate(m.Name, 24), formatPaise(m.Cost), bonus)
		}
	}
	fmt.Println()
	return nil
}

func renderTransactions(raw map[string]any) error {
	payload, err := decodeInto[transactionsPayload](raw)
	if err != nil {
		return err
	}
	accent.Println("\n== TRANSACTIONS ==")
	if len(payload.Transactions) == 0 {
		printInfo("No transactions yet.")
		return nil
	}
	fmt.Printf("%-6s %-10s %16s  %s\n", "DAY", "CATEGORY", "AMOUNT", "DESCRIPTION")
	for _, tx := range payload.Transactions {
		fmt.Printf("%-6d %-10s %16s  %s\n", tx.Day, tx.Category, colorizePaise(tx.Amount), truncate(tx.Description, 48))
	}
	fmt.Println()
	return nil
}

func renderSimpleOK(_ map[string]any, successMessage string) error {
	if successMessage != "" {
		printSuccess(successMessage)
		return nil
	}
	printInfo("Done.")
	return nil
}

func decodeInto[T any](in any) (T, error) {
	var out T
	raw, err := json.Marshal(in)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

func colorizePaise(v int64) string {
	text := signedPaise(v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func bpsPercent(bps int64) float64 {
	return float64(bps) / 100
}

func formatPaise(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole := v / sim.PaisePerRupee
	frac := v % sim.PaisePerRupee
	return fmt.Sprintf("%sRs %s.%02d", sign, comma(whole), frac)
}

func signedPaise(v int64) string {
	if v > 0 {
		return "+" + formatPaise(v)
	}
	return formatPaise(v)
}

func comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
