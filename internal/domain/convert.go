package domain

// BuildTraceRecord flattens a trace result into its persisted header.
func BuildTraceRecord(traceID string, result *TraceResult, maxHops int, createdAt int64) *TraceRecord {
	return &TraceRecord{
		TraceID:        traceID,
		SourceAddress:  result.SourceAddress,
		AssetClass:     result.Asset.Class,
		Mint:           result.Asset.Mint,
		TotalStolen:    result.TotalStolen,
		TracedAmount:   result.Summary.TracedAmount,
		ExchangeAmount: result.Summary.ExchangeAmount,
		SwapAmount:     result.Summary.SwapAmount,
		BridgeAmount:   result.Summary.BridgeAmount,
		UntracedAmount: result.Summary.UntracedAmount,
		MaxHops:        maxHops,
		RowCount:       len(result.FlowGraph),
		StartedAt:      result.StartedAt,
		FinishedAt:     result.FinishedAt,
		CreatedAt:      createdAt,
	}
}

// BuildFlowRows flattens the flow graph into persisted rows.
func BuildFlowRows(traceID string, result *TraceResult) []*FlowRow {
	rows := make([]*FlowRow, 0, len(result.FlowGraph))
	for _, out := range result.FlowGraph {
		row := &FlowRow{
			TraceID:      traceID,
			Address:      out.Address,
			Amount:       out.Amount,
			TaintAmount:  out.TaintAmount,
			TaintPercent: out.TaintPercent,
			TxSignature:  out.TxSignature,
			Timestamp:    out.Timestamp,
			Hop:          out.Hop,
		}
		if out.Entity != nil {
			row.EntityName = out.Entity.Name
			row.EntityCategory = string(out.Entity.Category)
			row.Heuristic = out.Entity.Heuristic
		}
		rows = append(rows, row)
	}
	return rows
}
