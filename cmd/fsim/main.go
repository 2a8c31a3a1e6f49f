package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	cl "finsim/internal/cli"
	"finsim/internal/config"
	"finsim/internal/sim"
	"finsim/internal/syncq"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "fsim",
		Short:        "Personal finance simulator client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")

	root.AddCommand(
		newNewCmd(&apiBase),
		newListCmd(&apiBase),
		newUseCmd(&apiBase),
		newStatusCmd(&apiBase),
		newDeleteCmd(&apiBase),
		newAdvanceCmd(&apiBase),
		newBondCmd(&apiBase),
		newLoanCmd(&apiBase),
		newAssetCmd(&apiBase),
		newSectorsCmd(&apiBase),
		newInvestCmd(&apiBase),
		newCreditCmd(&apiBase),
		newBudgetCmd(&apiBase),
		newRestCmd(&apiBase),
		newAutoCmd(&apiBase),
		newTxCmd(&apiBase),
		newSnapshotCmd(&apiBase),
		newSyncCmd(&apiBase),
		newPlayCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func currentSession() (cl.Current, error) {
	cur, err := cl.LoadCurrent()
	if err != nil {
		return cl.Current{}, err
	}
	return cur, nil
}

// write sends a keyed session action. When the server cannot be reached the
// request is queued with its key so `fsim sync` can deliver it later.
func write(cmd *cobra.Command, apiBase *string, method, path string, body any) (map[string]any, error) {
	idem := uuid.NewString()
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	out, err := newClient(apiBase).Do(ctx, method, path, body, idem)
	if err != nil {
		return nil, queueOnNetworkError(err, method, path, body, idem)
	}
	return out, nil
}

func queueOnNetworkError(err error, method, path string, body any, idem string) error {
	if cl.IsAPIError(err) {
		return err
	}
	raw, mErr := json.Marshal(body)
	if mErr != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if qErr := syncq.Push(syncq.Command{
		Method:         method,
		Path:           path,
		Body:           raw,
		IdempotencyKey: idem,
	}); qErr != nil {
		return fmt.Errorf("request failed (%v) and could not be queued: %w", err, qErr)
	}
	printWarn("Server unreachable. Action queued; run `fsim sync` when back online.")
	return nil
}

func newNewCmd(apiBase *string) *cobra.Command {
	var cash, income, expenses float64
	var seed uint64
	var auto bool
	cmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Start a new game session and select it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) > 0 {
				name = strings.TrimSpace(args[0])
			} else {
				var err error
				if name, err = promptRequired("Player name"); err != nil {
					return err
				}
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).CreateSession(ctx, map[string]any{
				"name":                  name,
				"starting_cash_paise":   sim.RupeesToPaise(cash),
				"main_income_paise":     sim.RupeesToPaise(income),
				"living_expenses_paise": sim.RupeesToPaise(expenses),
				"seed":                  seed,
				"auto_advance":          auto,
			})
			if err != nil {
				return err
			}
			state, err := decodeInto[sessionState](out)
			if err != nil {
				return err
			}
			if err := cl.SaveCurrent(cl.Current{SessionID: state.ID, Name: state.Name}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Session %s created and selected.", state.ID))
			renderState(state)
			return nil
		},
	}
	cmd.Flags().Float64Var(&cash, "cash", 50_000, "starting cash in rupees")
	cmd.Flags().Float64Var(&income, "income", 30_000, "monthly main income in rupees")
	cmd.Flags().Float64Var(&expenses, "expenses", 15_000, "monthly living expenses in rupees")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().BoolVar(&auto, "auto", false, "let the server advance this session on its schedule")
	return cmd
}

func newListCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).ListSessions(ctx)
			if err != nil {
				return err
			}
			return renderSessions(out)
		},
	}
}

func newUseCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "use <session_id>",
		Short: "Select the session other commands act on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).State(ctx, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			state, err := decodeInto[sessionState](out)
			if err != nil {
				return err
			}
			if err := cl.SaveCurrent(cl.Current{SessionID: state.ID, Name: state.Name}); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Now playing %s (%s).", state.Name, state.ID))
			return nil
		},
	}
}

func newStatusCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show the selected session",
		Aliases: []string{"dash"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currentSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).State(ctx, cur.SessionID)
			if err != nil {
				return err
			}
			state, err := decodeInto[sessionState](out)
			if err != nil {
				return err
			}
			renderState(state)
			return nil
		},
	}
}

func newDeleteCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [session_id]",
		Short: "Delete a session (defaults to the selected one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, _ := cl.LoadCurrent()
			id := cur.SessionID
			if len(args) > 0 {
				id = strings.TrimSpace(args[0])
			}
			if id == "" {
				return fmt.Errorf("session id required")
			}
			choice, err := promptChoice("Delete session "+id+"?", []string{"yes", "no"}, "no")
			if err != nil {
				return err
			}
			if choice != "yes" {
				printInfo("Kept.")
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := newClient(apiBase).DeleteSession(ctx, id); err != nil {
				return err
			}
			if id == cur.SessionID {
				if err := cl.ClearCurrent(); err != nil {
					return err
				}
			}
			printSuccess("Session deleted.")
			return nil
		},
	}
}

func newAdvanceCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "advance [days]",
		Short: "Advance time by whole days",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currentSession()
			if err != nil {
				return err
			}
			days := int64(1)
			if len(args) > 0 {
				if days, err = positiveInt(args[0], "days"); err != nil {
					return err
				}
			}
			out, err := write(cmd, apiBase, http.MethodPost, cl.SessionPath(cur.SessionID, "advance"), map[string]any{"days": days})
			if err != nil || out == nil {
				return err
			}
			return renderAdvance(out)
		},
	}
}

func newBondCmd(apiBase *string) *cobra.Command {
	var kind string
	var amount float64
	var rate int32
	var turns uint32
	cmd := &cobra.Command{
		Use:   "bond",
		Short: "Buy a bond",
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currentSession()
			if err != nil {
				return err
			}
			if kind == "" {
				if kind, err = promptChoice("Bond kind", []string{"government", "corporate", "junk"}, "government"); err != nil {
					return err
				}
			}
			out, err := write(cmd, apiBase, http.MethodPost, cl.SessionPath(cur.SessionID, "bonds"), map[string]any{
				"kind":         kind,
				"amount_paise": sim.RupeesToPaise(amount),
				"rate_bps":     rate,
				"turns":        turns,
			})
			if err != nil || out == nil {
				return err
			}
			return renderSimpleOK(out, fmt.Sprintf("Bought %s bond for %s.", kind, formatPaise(sim.RupeesToPaise(amount))))
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "government, corporate or junk")
	cmd.Flags().Float64Var(&amount, "amount", 0, "principal in rupees")
	cmd.Flags().Int32Var(&rate, "rate-bps", 600, "total return over the term in basis points")
	cmd.Flags().Uint32Var(&turns, "turns", 12, "term in months")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newLoanCmd(apiBase *string) *cobra.Command {
	loan := &cobra.Command{
		Use:   "loan",
		Short: "Loan commands",
	}

	var kind string
	var amount float64
	var rate int32
	var months uint32
	var autoPay bool
	apply := &cobra.Command{
		Use:   "apply",
		Short: "Apply for a loan (disbursed after approval)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currentSession()
			if err != nil {
				return err
			}
			if kind == "" {
				if kind, err = promptChoice("Loan kind", []string{"personal", "education", "business"}, "personal"); err != nil {
					return err
				}
			}
			out, err := write(cmd, apiBase, http.MethodPost, cl.SessionPath(cur.SessionID, "loans"), map[string]any{
				"kind":         kind,
				"amount_paise": sim.RupeesToPaise(amount),
				"rate_bps":     rate,
				"months":       months,
				"auto_pay":     autoPay,
			})
			if err != nil || out == nil {
				return err
			}
			l, err := decodeInto[struct {
				Loan sim.Loan `json:"loan"`
			}](out)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Loan %s submitted: EMI %s for %d months.", l.Loan.ID, formatPaise(l.Loan.EMI), l.Loan.TermMonths))
			return nil
		},
	}
	apply.Flags().StringVar(&kind, "kind", "", "personal, education or business")
	apply.Flags().Float64Var(&amount, "amount", 0, "principal in rupees")
	apply.Flags().Int32Var(&rate, "rate-bps", 1200, "annual rate in basis points")
	apply.Flags().Uint32Var(&months, "months", 12, "term in months")
	apply.Flags().BoolVar(&autoPay, "auto-pay", true, "pay EMIs automatically when due")
	_ = apply.MarkFlagRequired("amount")

	emi := &cobra.Command{
		Use:   "emi <loan_id>",
		Short: "Pay one EMI now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currentSession()
			if err != nil {
				return err
			}
			out, err := write(cmd, apiBase, http.MethodPost, cl.SessionPath(cur.SessionID, "loans", args[0], "emi"), map[string]any{})
			if err != nil || out == nil {
				return err
			}
			return renderPaid(out, "paid_paise", "EMI paid")
		},
	}

	prepay := &cobra.Command{
		Use:   "prepay <loan_id> <rupees>",
		Short: "Pay an arbitrary amount against a loan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currentSession()
			if err != nil {
				return err
			}
			paise, err := rupeesArg(args[1])
			if err != nil {
				return err
			}
			out, err := write(cmd, apiBase, http.MethodPost, cl.SessionPath(cur.SessionID, "loans", args[0], "prepay"), map[string]any{"amount_paise": paise})
			if err != nil || out == nil {
				return err
			}
			return renderPaid(out, "paid_paise", "Prepaid")
		},
	}

	autopay := &cobra.Command{
		Use:   "autopay <loan_id> <on|off>",
		Short: "Toggle automatic EMI payment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currentSession()
			if err != nil {
				return err
			}
			on, err := onOff(args[1])
			if err != nil {
				return err
			}
			out, err := write(cmd, apiBase, http.MethodPost, cl.SessionPath(cur.SessionID, "loans", args[0], "autopay"), map[string]any{"enabled": on})
			if err != nil || out == nil {
				return err
			}
			return renderSimpleOK(out, fmt.Sprintf("Autopay for %s set to %s.", args[0], args[1]))
		},
	}

	loan.AddCommand(apply, emi, prepay, autopay)
	return loan
}

func newAssetCmd(apiBase *string) *cobra.Command {
	asset := &cobra.Command{
		Use:   "asset",
		Short: "Asset commands",
	}

	var name string
	var price, income, maintenance float64
	var appreciation int32
	buy := &cobra.Command{
		Use:   "buy",
		Short: "Buy an income-producing asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currentSession()
			if err != nil {
				return err
			}
			if name == "" {
				if name, err = promptRequired("Asset name"); err != nil {
					return err
				}
			}
			out, err := write(cmd, apiBase, http.MethodPost, cl.SessionPath(cur.SessionID, "assets"), map[string]any{
				"name":                       name,
				"price_paise":                sim.RupeesToPaise(price),
				"monthly_income_paise":       sim.RupeesToPaise(income),
				"appreciation_bps_per_month": appreciation,
				"maintenance_cost_paise":     sim.RupeesToPaise(maintenance),
			})
			if err != nil || out == nil {
				return err
			}
			a, err := decodeInto[struct {
				Asset sim.Asset `json:"asset"`
			}](out)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Bought %s (%s) for %s.", a.Asset.Name, a.Asset.ID, formatPaise(a.Asset.PurchasePrice)))
			return nil
		},
	}
	buy.Flags().StringVar(&name, "name", "", "asset name")
	buy.Flags().Float64Var(&price, "price", 0, "purchase price in rupees")
	buy.Flags().Float64Var(&income, "income", 0, "monthly income in rupees")
	buy.Flags().Int32Var(&appreciation, "appreciation-bps", 0, "monthly appreciation in basis points")
	buy.Flags().Float64Var(&maintenance, "maintenance", 0, "monthly maintenance in rupees")
	_ = buy.MarkFlagRequired("price")

	sell := &cobra.Command{
		Use:   "sell <asset_id>",
		Short: "Sell an asset at its current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currentSession()
			if err != nil {
				return err
			}
			out, err := write(cmd, apiBase, http.MethodPost, cl.SessionPath(cur.SessionID, "assets", args[0], "sell"), map[string]any{})
			if err != nil || out == nil {
				return err
			}
			return renderPaid(out, "proceeds_paise", "Sold for")
		},
	}

	asset.AddCommand(buy, sell)
	return asset
}

func newSectorsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sectors",
		Short: "Show the sector investment catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).Sectors(ctx)
			if err != nil {
				return err
			}
			return renderSectors(out)
		},
	}
}

func newInvestCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "invest <sector> <category> <modifier>",
		Short: "Buy a sector modifier (city, menu, pricing or logistics)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currentSession()
			if err != nil {
				return err
			}
			out, err := write(cmd, apiBase, http.MethodPost, cl.SessionPath(cur.SessionID, "sectors", args[0], "invest"), map[string]any{
				"category": strings.ToLower(args[1]),
				"modifier": args[2],
			})
			if err != nil || out == nil {
				return err
			}
			inv, err := decodeInto[struct {
				Investment sim.SectorInvestment `json:"investment"`
			}](out)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("%s now earns %s a month.", inv.Investment.SectorID, formatPaise(inv.Investment.MonthlyRevenue)))
			return nil
		},
	}
}

func newCreditCmd(apiBase *string) *cobra.Command {
	credit := &cobra.Command{
		Use:   "credit",
		Short: "Credit line commands",
	}
	credit.AddCommand(&cobra.Command{
		Use:   "charge <rupees>",
		Short: "Spend on the credit line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currentSession()
			if err != nil {
				return err
			}
			paise, err := rupeesArg(args[0])
			if err != nil {
				return err
			}
			out, err := write(cmd, apiBase, http.MethodPost, cl.SessionPath(cur.SessionID, "credit", "charge"), map[string]any{"amount_paise": paise})
			if err != nil || out == nil {
				return err
			}
			return renderSimpleOK(out, fmt.Sprintf("Charged %s.", formatPaise(paise)))
		},
	})
	credit.AddCommand(&cobra.Command{
		Use:   "repay <rupees>",
		Short: "Repay the credit line balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currentSession()
			if err != nil {
				return err
			}
			paise, err := rupeesArg(args[0])
			if err != nil {
				return err
			}
			out, err := write(cmd, apiBase, http.MethodPost, cl.SessionPath(cur.SessionID, "credit", "repay"), map[string]any{"amount_paise": paise})
			if err != nil || out == nil {
				return err
			}
			return renderPaid(out, "paid_paise", "Repaid")
		},
	})
	return credit
}

func newBudgetCmd(apiBase *string) *cobra.Command {
	var income, expenses, side float64
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Change monthly income, living expenses or manual side income",
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currentSession()
			if err != nil {
				return err
			}
			body := map[string]any{}
			if cmd.Flags().Changed("income") {
				body["main_income_paise"] = sim.RupeesToPaise(income)
			}
			if cmd.Flags().Changed("expenses") {
				body["living_expenses_paise"] = sim.RupeesToPaise(expenses)
			}
			if cmd.Flags().Changed("side") {
				body["side_income_paise"] = sim.RupeesToPaise(side)
			}
			if len(body) == 0 {
				return fmt.Errorf("set at least one of --income, --expenses, --side")
			}
			out, err := write(cmd, apiBase, http.MethodPost, cl.SessionPath(cur.SessionID, "budget"), body)
			if err != nil || out == nil {
				return err
			}
			state, err := decodeInto[sessionState](out)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Budget updated. Monthly cashflow %s.", signedPaise(state.Ledger.Cashflow)))
			return nil
		},
	}
	cmd.Flags().Float64Var(&income, "income", 0, "monthly main income in rupees")
	cmd.Flags().Float64Var(&expenses, "expenses", 0, "monthly living expenses in rupees")
	cmd.Flags().Float64Var(&side, "side", 0, "monthly manual side income in rupees")
	return cmd
}

func newRestCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rest",
		Short: "Take a rest (lowers stress, restores energy)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currentSession()
			if err != nil {
				return err
			}
			out, err := write(cmd, apiBase, http.MethodPost, cl.SessionPath(cur.SessionID, "rest"), map[string]any{})
			if err != nil || out == nil {
				return err
			}
			state, err := decodeInto[sessionState](out)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Rested. Stress %d, energy %d.", state.Wellbeing.Stress, state.Wellbeing.Energy))
			return nil
		},
	}
}

func newAutoCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "auto <on|off>",
		Short: "Let the server advance the selected session on its schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currentSession()
			if err != nil {
				return err
			}
			on, err := onOff(args[0])
			if err != nil {
				return err
			}
			out, err := write(cmd, apiBase, http.MethodPost, cl.SessionPath(cur.SessionID, "auto-advance"), map[string]any{"enabled": on})
			if err != nil || out == nil {
				return err
			}
			return renderSimpleOK(out, "Auto-advance "+args[0]+".")
		},
	}
}

func newTxCmd(apiBase *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "tx",
		Short:   "Show recent transactions",
		Aliases: []string{"transactions"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currentSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).Transactions(ctx, cur.SessionID, limit)
			if err != nil {
				return err
			}
			return renderTransactions(out)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of transactions")
	return cmd
}

func newSnapshotCmd(apiBase *string) *cobra.Command {
	snap := &cobra.Command{
		Use:   "snapshot",
		Short: "Export or restore the selected session",
	}
	snap.AddCommand(&cobra.Command{
		Use:   "export <file>",
		Short: "Write the session snapshot to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currentSession()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			raw, err := newClient(apiBase).Snapshot(ctx, cur.SessionID)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], raw, 0o600); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Snapshot written to %s.", args[0]))
			return nil
		},
	})
	snap.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Replace the session state with a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := currentSession()
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if !json.Valid(raw) {
				return fmt.Errorf("%s is not valid json", args[0])
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			out, err := newClient(apiBase).RestoreSnapshot(ctx, cur.SessionID, raw, uuid.NewString())
			if err != nil {
				return err
			}
			state, err := decodeInto[sessionState](out)
			if err != nil {
				return err
			}
			printSuccess("Snapshot restored.")
			renderState(state)
			return nil
		},
	})
	return snap
}

func newSyncCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay actions queued while offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := syncq.Load()
			if err != nil {
				return err
			}
			if len(queue) == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			remaining := make([]syncq.Command, 0, len(queue))
			replayed := 0
			for start := 0; start < len(queue); start += maxReplayBatch {
				end := min(start+maxReplayBatch, len(queue))
				batch := queue[start:end]
				out, err := newClient(apiBase).SyncReplay(ctx, batch)
				if err != nil {
					remaining = append(remaining, queue[start:]...)
					printError(fmt.Sprintf("Sync stopped: %v", err))
					break
				}
				results, err := decodeInto[replayPayload](out)
				if err != nil {
					return err
				}
				for i, q := range batch {
					status := 0
					if i < len(results.Results) {
						status = results.Results[i].Status
					}
					switch {
					case status >= 200 && status < 300, status == http.StatusConflict:
						replayed++
					case status >= 500 || status == 0:
						remaining = append(remaining, q)
						printError(fmt.Sprintf("Sync deferred for %s %s (status %d)", q.Method, q.Path, status))
					default:
						printWarn(fmt.Sprintf("Dropped %s %s: rejected with status %d", q.Method, q.Path, status))
					}
				}
			}
			if err := syncq.Save(remaining); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Sync complete: replayed=%d remaining=%d", replayed, len(remaining)))
			return nil
		},
	}
}

const maxReplayBatch = 100

func positiveInt(arg, label string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s %q", label, arg)
	}
	return v, nil
}

func rupeesArg(arg string) (int64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid amount %q", arg)
	}
	return sim.RupeesToPaise(v), nil
}

func onOff(arg string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", arg)
}
