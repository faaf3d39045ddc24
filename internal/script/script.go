// Package script drives a book from line oriented text commands:
//
//	add <id|new> <buy|sell> <price> <qty[,qty...]>
//	cancel <id>
//	amend <id> <price> <qty>
//	snapshot [depth]
//	print [depth]
//	echo <text>
//
// Blank lines and lines starting with '#' are skipped.
package script

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"orderbook/internal/common"
	"orderbook/internal/engine"
	"orderbook/internal/render"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrSyntax         = errors.New("syntax error")
)

// NewID asks add to generate an order id.
const NewID = "new"

// Demo places five orders, then cancels and amends some of them, printing the
// book after every step.
const Demo = `# five resting orders, 5 queues behind 2 at 101
add 1 buy 100 500
add 2 buy 101 200
add 3 sell 102 300
add 4 sell 103 400
add 5 buy 101 100
echo Initial book:
print 5

echo Cancel order 2
cancel 2
print 5

echo Amend order 5 (quantity -> 50)
amend 5 101 50
print 5

echo Amend order 1 (price -> 102)
amend 1 102 500
print 5
`

// Book is the part of engine.Engine a script needs.
type Book interface {
	AddOrder(ctx context.Context, order common.Order) error
	CancelOrder(ctx context.Context, id common.OrderID) (bool, error)
	AmendOrder(ctx context.Context, id common.OrderID, price common.Ticks, qty common.Quantity) (bool, error)
	Snapshot(ctx context.Context, depth int) (engine.Snapshot, error)
}

type Runner struct {
	book  Book
	tick  decimal.Decimal
	depth int
	out   io.Writer

	newID func() string
}

// NewRunner returns a runner writing results to out. Prices are read in units
// of tick and depth is used by snapshot and print when no depth is given.
func NewRunner(book Book, tick decimal.Decimal, depth int, out io.Writer) *Runner {
	return &Runner{
		book:  book,
		tick:  tick,
		depth: depth,
		out:   out,
		newID: uuid.NewString,
	}
}

// Run executes every command read from r. A command that fails is reported on
// the output with its line number and the run goes on; the number of failed
// commands is returned. Run stops early with an error only when r fails, ctx
// is done or the engine has shut down.
func (r *Runner) Run(ctx context.Context, in io.Reader) (int, error) {
	var (
		scanner = bufio.NewScanner(in)
		lineNo  int
		failed  int
	)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		err := r.Exec(ctx, line)
		if err == nil {
			continue
		}
		if fatal(err) {
			return failed, fmt.Errorf("line %d: %w", lineNo, err)
		}

		failed++
		log.Debug().Err(err).Int("line", lineNo).Msg("command failed")
		fmt.Fprintf(r.out, "error: line %d: %v\n", lineNo, err)
	}
	if err := scanner.Err(); err != nil {
		return failed, fmt.Errorf("read script: %w", err)
	}
	return failed, nil
}

func fatal(err error) bool {
	return errors.Is(err, engine.ErrShutdown) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Exec runs a single command.
func (r *Runner) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty command", ErrSyntax)
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "add":
		return r.add(ctx, args)
	case "cancel":
		return r.cancel(ctx, args)
	case "amend":
		return r.amend(ctx, args)
	case "snapshot":
		return r.snapshot(ctx, args)
	case "print":
		return r.print(ctx, args)
	case "echo":
		_, err := fmt.Fprintln(r.out, strings.TrimSpace(strings.TrimPrefix(line, fields[0])))
		return err
	default:
		return fmt.Errorf("%w %q", ErrUnknownCommand, fields[0])
	}
}

func (r *Runner) add(ctx context.Context, args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("%w: usage: add <id|new> <buy|sell> <price> <qty[,qty...]>", ErrSyntax)
	}

	side, err := common.ParseSide(args[1])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	price, err := common.ParseTicks(args[2], r.tick)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	quantities, err := parseQuantities(args[3])
	if err != nil {
		return err
	}

	for i, qty := range quantities {
		id := args[0]
		switch {
		case strings.EqualFold(id, NewID):
			id = r.newID()
		case len(quantities) > 1:
			id = fmt.Sprintf("%s-%d", id, i+1)
		}

		order := common.Order{
			ID:       common.OrderID(id),
			Side:     side,
			Price:    price,
			Quantity: qty,
		}
		if err := r.book.AddOrder(ctx, order); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "added %s %s %s x %d\n", id, side, price.Format(r.tick), qty)
	}
	return nil
}

func (r *Runner) cancel(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: cancel <id>", ErrSyntax)
	}

	ok, err := r.book.CancelOrder(ctx, common.OrderID(args[0]))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(r.out, "cancel %s: no such order\n", args[0])
		return nil
	}
	fmt.Fprintf(r.out, "cancelled %s\n", args[0])
	return nil
}

func (r *Runner) amend(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: usage: amend <id> <price> <qty>", ErrSyntax)
	}

	price, err := common.ParseTicks(args[1], r.tick)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	qty, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid quantity %q", ErrSyntax, args[2])
	}

	ok, err := r.book.AmendOrder(ctx, common.OrderID(args[0]), price, common.Quantity(qty))
	if err != nil {
		return err
	}
	switch {
	case !ok:
		fmt.Fprintf(r.out, "amend %s: not applied\n", args[0])
	case qty == 0:
		fmt.Fprintf(r.out, "cancelled %s\n", args[0])
	default:
		fmt.Fprintf(r.out, "amended %s %s x %d\n", args[0], price.Format(r.tick), qty)
	}
	return nil
}

// snapshot writes one line per side, "bids" first:
//
//	bids 101.00:300 100.00:500
//	asks 102.00:300
func (r *Runner) snapshot(ctx context.Context, args []string) error {
	depth, err := r.parseDepth(args)
	if err != nil {
		return err
	}

	snap, err := r.book.Snapshot(ctx, depth)
	if err != nil {
		return err
	}
	r.writeSide("bids", snap.Bids)
	r.writeSide("asks", snap.Asks)
	return nil
}

func (r *Runner) writeSide(name string, levels []common.Level) {
	var sb strings.Builder
	sb.WriteString(name)
	for _, l := range levels {
		fmt.Fprintf(&sb, " %s:%d", l.Price.Format(r.tick), l.Quantity)
	}
	fmt.Fprintln(r.out, sb.String())
}

func (r *Runner) print(ctx context.Context, args []string) error {
	depth, err := r.parseDepth(args)
	if err != nil {
		return err
	}

	snap, err := r.book.Snapshot(ctx, depth)
	if err != nil {
		return err
	}
	_, err = io.WriteString(r.out, render.Book(snap, depth, r.tick))
	return err
}

func (r *Runner) parseDepth(args []string) (int, error) {
	switch len(args) {
	case 0:
		return r.depth, nil
	case 1:
		depth, err := strconv.Atoi(args[0])
		if err != nil || depth < 0 {
			return 0, fmt.Errorf("%w: invalid depth %q", ErrSyntax, args[0])
		}
		return depth, nil
	default:
		return 0, fmt.Errorf("%w: too many arguments", ErrSyntax)
	}
}

// parseQuantities splits a comma-separated list such as "10,20,50".
func parseQuantities(input string) ([]common.Quantity, error) {
	parts := strings.Split(input, ",")
	result := make([]common.Quantity, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		val, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid quantity %q", ErrSyntax, p)
		}
		result = append(result, common.Quantity(val))
	}
	return result, nil
}
