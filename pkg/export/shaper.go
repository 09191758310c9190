package export

// Shaper transforms the filtered payloads of one export into output rows.
type Shaper func(msgs []map[string]any) []map[string]any

// ShaperFor returns the per-topic transform. Every topic exports payloads
// as-is except marketSituation, whose snapshots are flattened to one row
// per offer.
func ShaperFor(topic string) Shaper {
	if topic == "marketSituation" {
		return flattenMarketSituation
	}
	return identityShaper
}

func identityShaper(msgs []map[string]any) []map[string]any { return msgs }

// flattenMarketSituation emits one row per offer of every situation
// snapshot. The snapshot timestamp is injected into each offer, and when
// the snapshot names the merchant whose action triggered it, that id is
// carried as triggering_merchant_id. No other snapshot-level field is
// propagated.
func flattenMarketSituation(msgs []map[string]any) []map[string]any {
	var rows []map[string]any
	for _, situation := range msgs {
		offers, ok := situation["offers"].([]any)
		if !ok {
			continue
		}
		for _, raw := range offers {
			offer, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			row := make(map[string]any, len(offer)+2)
			for k, v := range offer {
				row[k] = v
			}
			if ts, ok := situation["timestamp"]; ok {
				row["timestamp"] = ts
			}
			if merchant, ok := situation["merchant_id"]; ok {
				row["triggering_merchant_id"] = merchant
			}
			rows = append(rows, row)
		}
	}
	return rows
}
