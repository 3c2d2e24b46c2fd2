// Package shell runs the line-oriented calculator commands of cmd/calc.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"trade-profit-calculator-go/internal/ledger"
	"trade-profit-calculator-go/internal/models"
	"trade-profit-calculator-go/internal/profit"
	"trade-profit-calculator-go/internal/registry"
	"trade-profit-calculator-go/internal/tracker"
)

// ErrQuit is returned by Exec when the user asks to leave.
var ErrQuit = errors.New("quit")

// ErrUsage wraps malformed command lines.
var ErrUsage = errors.New("usage")

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(prompt string) bool

// Shell executes command lines against an engine and prints the results.
type Shell struct {
	engine  *tracker.Engine
	out     io.Writer
	confirm ConfirmFunc
	styles  styles
}

// New returns a shell printing to out. Colors follow what out supports.
func New(engine *tracker.Engine, out io.Writer, confirm ConfirmFunc) *Shell {
	return &Shell{
		engine:  engine,
		out:     out,
		confirm: confirm,
		styles:  newStyles(lipgloss.NewRenderer(out)),
	}
}

// UseTerminalColors styles output for the process terminal, for when out
// wraps stdout (as the line editor does) and cannot be inspected.
func (s *Shell) UseTerminalColors() {
	s.styles = newStyles(lipgloss.DefaultRenderer())
}

type handler func(s *Shell, ctx context.Context, args []string) error

type command struct {
	usage string
	help  string
	run   handler
}

var commands map[string]command

// aliases maps alternative spellings to command names.
var aliases = map[string]string{
	"ls":     "list",
	"add":    "buy",
	"rm":     "remove",
	"del":    "delete",
	"c":      "calc",
	"exit":   "quit",
	"q":      "quit",
	"?":      "help",
	"toggle": "collapse",
}

func init() {
	commands = map[string]command{
		"list":     {"list", "show all calculators", (*Shell).list},
		"show":     {"show <calc>", "show one calculator, expanded", (*Shell).show},
		"new":      {"new [ticker]", "create a calculator", (*Shell).create},
		"delete":   {"delete <calc>", "delete a calculator (asks first)", (*Shell).remove},
		"ticker":   {"ticker <calc> [symbol]", "set or clear the ticker", (*Shell).ticker},
		"fee":      {"fee <calc> <percent>", "set the fee percent", (*Shell).fee},
		"buy":      {"buy <calc> <amount> <price> [fee%]", "record a buy trade", (*Shell).buy},
		"remove":   {"remove <calc> <trade#>", "delete a trade by its row number", (*Shell).removeTrade},
		"sort":     {"sort <calc> asc|desc", "sort trades by amount", (*Shell).sort},
		"collapse": {"collapse <calc> [on|off]", "collapse, expand or toggle", (*Shell).collapse},
		"calc":     {"calc <calc> percentage|target <value>", "project profit", (*Shell).calculate},
		"market":   {"market <calc>", "project profit at the current market price", (*Shell).market},
		"help":     {"help", "show this help", (*Shell).help},
		"quit":     {"quit", "leave", func(*Shell, context.Context, []string) error { return ErrQuit }},
	}
}

var helpOrder = []string{"list", "show", "new", "delete", "ticker", "fee", "buy", "remove", "sort", "collapse", "calc", "market", "help", "quit"}

// Names lists the command names in help order, for completion.
func Names() []string {
	return slices.Clone(helpOrder)
}

// Exec runs one input line. Empty lines are ignored.
func (s *Shell) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, try help", fields[0])
	}
	err := cmd.run(s, ctx, fields[1:])
	if errors.Is(err, ErrUsage) {
		return fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
	}
	return err
}

func (s *Shell) list(_ context.Context, _ []string) error {
	views := s.engine.Views()
	if len(views) == 0 {
		fmt.Fprintln(s.out, "No calculators. Create one with: new [ticker]")
		return nil
	}
	for i, v := range views {
		s.styles.renderView(s.out, i+1, v)
	}
	return nil
}

func (s *Shell) show(_ context.Context, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	id, pos, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	v, err := s.engine.View(id)
	if err != nil {
		return err
	}
	v.IsCollapsed = false
	s.styles.renderView(s.out, pos, v)
	return nil
}

func (s *Shell) create(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return ErrUsage
	}
	out, err := s.engine.Dispatch(ctx, registry.CreateCalculator{})
	if err != nil {
		return err
	}
	if len(args) == 1 {
		if _, err := s.engine.Dispatch(ctx, registry.SetTicker{ID: out.CalculatorID, Raw: args[0]}); err != nil {
			return err
		}
	}
	fmt.Fprintf(s.out, "Created calculator #%d (%s)\n", s.engine.Registry().Len(), out.CalculatorID)
	return nil
}

func (s *Shell) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	id, pos, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	if !s.confirm(fmt.Sprintf("Delete calculator #%d (%s)?", pos, id)) {
		fmt.Fprintln(s.out, "Kept.")
		return nil
	}
	if _, err := s.engine.Dispatch(ctx, registry.DeleteCalculator{ID: id}); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Deleted calculator #%d\n", pos)
	return nil
}

func (s *Shell) ticker(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	id, _, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	raw := ""
	if len(args) == 2 {
		raw = args[1]
	}
	if _, err := s.engine.Dispatch(ctx, registry.SetTicker{ID: id, Raw: raw}); err != nil {
		return err
	}
	v, err := s.engine.View(id)
	if err != nil {
		return err
	}
	if v.Ticker == "" {
		fmt.Fprintln(s.out, "Ticker cleared")
		return nil
	}
	fmt.Fprintf(s.out, "Ticker %s  %s\n", v.Ticker, v.ChartURL)
	return nil
}

func (s *Shell) fee(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	id, _, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	if _, err := s.engine.Dispatch(ctx, registry.SetFee{ID: id, Raw: strings.TrimSuffix(args[1], "%")}); err != nil {
		return err
	}
	v, err := s.engine.View(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Fee set to %s%%\n", profit.FormatAmount(v.Fee))
	return nil
}

func (s *Shell) buy(ctx context.Context, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return ErrUsage
	}
	id, _, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	cmd := registry.AddTrade{ID: id, Amount: args[1], Price: args[2]}
	if len(args) == 4 {
		cmd.FeePercent = strings.TrimSuffix(args[3], "%")
	}
	out, err := s.engine.Dispatch(ctx, cmd)
	if err != nil {
		return err
	}
	s.styles.renderSummary(s.out, *out.Summary)
	return nil
}

func (s *Shell) removeTrade(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	id, _, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	row, err := strconv.Atoi(args[1])
	if err != nil {
		return ErrUsage
	}
	out, err := s.engine.Dispatch(ctx, registry.DeleteTrade{ID: id, Index: row - 1})
	if err != nil {
		return err
	}
	if !out.Changed {
		fmt.Fprintf(s.out, "No trade #%d\n", row)
		return nil
	}
	s.styles.renderSummary(s.out, *out.Summary)
	return nil
}

func (s *Shell) sort(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	id, _, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	dir, err := ledger.ParseDirection(args[1])
	if err != nil {
		return err
	}
	out, err := s.engine.Dispatch(ctx, registry.SortTrades{ID: id, Direction: dir})
	if err != nil {
		return err
	}
	s.styles.renderSummary(s.out, *out.Summary)
	return nil
}

func (s *Shell) collapse(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	id, _, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	var cmd registry.Command = registry.ToggleCollapsed{ID: id}
	if len(args) == 2 {
		switch strings.ToLower(args[1]) {
		case "on", "yes", "true":
			cmd = registry.SetCollapsed{ID: id, Collapsed: true}
		case "off", "no", "false":
			cmd = registry.SetCollapsed{ID: id, Collapsed: false}
		default:
			return ErrUsage
		}
	}
	if _, err := s.engine.Dispatch(ctx, cmd); err != nil {
		return err
	}
	v, err := s.engine.View(id)
	if err != nil {
		return err
	}
	if v.IsCollapsed {
		fmt.Fprintln(s.out, "Collapsed")
	} else {
		fmt.Fprintln(s.out, "Expanded")
	}
	return nil
}

func (s *Shell) calculate(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return ErrUsage
	}
	id, _, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	mode, ok := models.ParseCalculationMode(args[1])
	if !ok {
		return ErrUsage
	}
	out, err := s.engine.Dispatch(ctx, registry.RunCalculation{
		ID:        id,
		Mode:      mode,
		Parameter: strings.TrimSuffix(args[2], "%"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, out.Calculation.Text())
	return nil
}

func (s *Shell) market(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	id, _, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	out, price, err := s.engine.CalculateAtMarket(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Market price %s\n", strconv.FormatFloat(price, 'f', -1, 64))
	fmt.Fprintln(s.out, out.Calculation.Text())
	return nil
}

func (s *Shell) help(_ context.Context, _ []string) error {
	for _, name := range helpOrder {
		c := commands[name]
		fmt.Fprintf(s.out, "  %-40s %s\n", c.usage, c.help)
	}
	fmt.Fprintln(s.out, "  <calc> is a list number, an id or a unique id prefix.")
	return nil
}

// resolve maps a user reference to a calculator id and its 1-based list
// position. A reference is a list number, a full id or a unique id prefix;
// a number outside the list is tried as an id.
func (s *Shell) resolve(ref string) (string, int, error) {
	ids := s.engine.Registry().IDs()
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(ids) {
		return ids[n-1], n, nil
	}
	match, pos := "", 0
	for i, id := range ids {
		if id == ref {
			return id, i + 1, nil
		}
		if strings.HasPrefix(id, ref) {
			if match != "" {
				return "", 0, fmt.Errorf("%q matches more than one calculator", ref)
			}
			match, pos = id, i+1
		}
	}
	if match == "" {
		return "", 0, fmt.Errorf("%w: %s", registry.ErrNotFound, ref)
	}
	return match, pos, nil
}
