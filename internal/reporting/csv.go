package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders the flow graph as CSV string, one row per tainted output.
func RenderCSV(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("trace_id,hop,address,amount,taint_amount,taint_percent,")
	sb.WriteString("entity_name,entity_category,heuristic,tx_signature,timestamp\n")

	// Rows
	for _, section := range r.Hops {
		for _, row := range section.Rows {
			sb.WriteString(fmt.Sprintf("%s,%d,%s,%s,%s,%s,%s,%s,%t,%s,%d\n",
				r.TraceID,
				section.Hop,
				row.Address,
				row.Amount.String(),
				row.TaintAmount.String(),
				row.TaintPercent.StringFixed(4),
				csvEscape(row.EntityName),
				row.EntityCategory,
				row.Heuristic,
				row.TxSignature,
				row.Timestamp,
			))
		}
	}

	return sb.String()
}

// csvEscape quotes a field containing commas.
func csvEscape(field string) string {
	if strings.ContainsAny(field, ",\"") {
		return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return field
}
