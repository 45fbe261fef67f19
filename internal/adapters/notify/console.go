package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/bottrack/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el resumen del pase en el modo configurado.
func (c *Console) Notify(_ context.Context, summary domain.ReconcileSummary) error {
	if summary.Checked == 0 {
		fmt.Fprintf(c.out, "[%s] no pending trades\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table && len(summary.Results) > 0 {
		c.printTable(summary)
	} else {
		c.printCompact(summary)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(summary domain.ReconcileSummary) {
	now := time.Now().Format("15:04:05")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] checked:%d resolved:%d", now, summary.Checked, summary.Updated)

	shown := 0
	for _, r := range summary.Results {
		if shown >= 4 {
			fmt.Fprintf(&sb, " | +%d more", len(summary.Results)-shown)
			break
		}
		fmt.Fprintf(&sb, " | %s %s %+.2f", shortID(r.TradeID), r.Status, r.Profit)
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printTable imprime una fila por trade resuelto.
func (c *Console) printTable(summary domain.ReconcileSummary) {
	fmt.Fprintf(c.out, "trade check %s — %d checked, %d resolved\n",
		summary.Timestamp.Format("15:04:05"), summary.Checked, summary.Updated)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Trade", "Market", "Result", "P&L")

	for i, r := range summary.Results {
		table.Append(
			fmt.Sprintf("%d", i+1),
			shortID(r.TradeID),
			shortID(r.MarketID),
			string(r.Status),
			fmt.Sprintf("%+.2f$", r.Profit),
		)
	}

	table.Render()
}

// shortID recorta un identificador largo para la consola.
func shortID(id string) string {
	if len(id) <= 10 {
		return id
	}
	return id[:10] + "…"
}
