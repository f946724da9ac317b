package pipeline

import (
	"fmt"
	"io"
)

// WriteText renders the board as plain text, one block per stage.
func (b Board) WriteText(w io.Writer) error {
	for _, col := range b.Columns {
		if _, err := fmt.Fprintf(w, "%-10s %3d %12s\n", col.Stage, len(col.Cards), col.Total.StringFixed(2)); err != nil {
			return err
		}
		for _, card := range col.Cards {
			who := card.CustomerID
			if card.CustomerName != "" {
				who = card.CustomerName
			}
			if _, err := fmt.Fprintf(w, "  %-12s %-20s %12s\n", card.ID, who, card.ExpectedRevenue.StringFixed(2)); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "%-14s %12s\n", "TOTAL", b.Total().StringFixed(2))
	return err
}
