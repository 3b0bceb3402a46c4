package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Fund Trace Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Trace ID: `%s`\n\n", r.TraceID))
	sb.WriteString(fmt.Sprintf("Victim address: `%s` | Asset: %s\n\n", r.SourceAddress, r.AssetSymbol))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Amount |\n")
	sb.WriteString("|--------|--------|\n")
	sb.WriteString(fmt.Sprintf("| Total Stolen | %s |\n", r.Summary.TotalStolen.String()))
	sb.WriteString(fmt.Sprintf("| Traced (left victim) | %s |\n", r.Summary.TracedAmount.String()))
	sb.WriteString(fmt.Sprintf("| At Exchanges | %s |\n", r.Summary.ExchangeAmount.String()))
	sb.WriteString(fmt.Sprintf("| Through Swaps | %s |\n", r.Summary.SwapAmount.String()))
	sb.WriteString(fmt.Sprintf("| Through Bridges | %s |\n", r.Summary.BridgeAmount.String()))
	sb.WriteString(fmt.Sprintf("| Untraced | %s |\n", r.Summary.UntracedAmount.String()))
	sb.WriteString("\n")

	// Flow graph, hop by hop
	sb.WriteString("## Fund Flow\n\n")
	if len(r.Hops) == 0 {
		sb.WriteString("No outgoing transfers found.\n\n")
	}
	for _, section := range r.Hops {
		sb.WriteString(fmt.Sprintf("### Hop %d\n\n", section.Hop))
		sb.WriteString("| Destination | Amount | Taint | Taint%% | Entity | Tx |\n")
		sb.WriteString("|-------------|--------|-------|--------|--------|----|\n")
		for _, row := range section.Rows {
			entity := row.EntityName
			if entity == "" {
				entity = "-"
			} else if row.Heuristic {
				entity += " (heuristic)"
			}
			sb.WriteString(fmt.Sprintf("| `%s` | %s | %s | %s%% | %s | `%s` |\n",
				row.Address, row.Amount.String(), row.TaintAmount.String(),
				row.TaintPercent.StringFixed(2), entity, shortSig(row.TxSignature)))
		}
		sb.WriteString("\n")
	}

	// Actionable endpoints
	sb.WriteString("## Where To Send Freeze Requests\n\n")
	if len(r.Endpoints) > 0 {
		sb.WriteString("| Entity | Category | Address | Taint Received | First Hop |\n")
		sb.WriteString("|--------|----------|---------|----------------|----------|\n")
		for _, ep := range r.Endpoints {
			sb.WriteString(fmt.Sprintf("| %s | %s | `%s` | %s | %d |\n",
				ep.EntityName, ep.EntityCategory, ep.Address,
				ep.TaintAmount.String(), ep.Hop))
		}
		sb.WriteString("\n")
		sb.WriteString("Contact the exchanges above with the trace ID and transaction signatures. Bridged funds require tracing on the destination chain.\n\n")
	} else {
		sb.WriteString("No identified exchange or bridge received tainted funds within the traced hops.\n\n")
	}

	// Unreachable branches
	if len(r.Unreachable) > 0 {
		sb.WriteString("## Unreachable Branches\n\n")
		sb.WriteString("Transaction history could not be fetched for these addresses; their taint is counted as untraced:\n\n")
		for _, addr := range r.Unreachable {
			sb.WriteString(fmt.Sprintf("- `%s`\n", addr))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// shortSig abbreviates a signature for table rendering.
func shortSig(sig string) string {
	if len(sig) <= 16 {
		return sig
	}
	return sig[:8] + ".." + sig[len(sig)-8:]
}
