package export

import "testing"

func TestMarketSituationShaping(t *testing.T) {
	situation := map[string]any{
		"timestamp":   float64(42),
		"merchant_id": "m1",
		"offers": []any{
			map[string]any{"offer_id": float64(1), "price": 9.99},
			map[string]any{"offer_id": float64(2), "price": 19.99},
			map[string]any{"offer_id": float64(3), "price": 29.99},
		},
	}

	rows := ShaperFor("marketSituation")([]map[string]any{situation})

	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows for 3 offers, got %d", len(rows))
	}
	for i, row := range rows {
		if row["timestamp"] != float64(42) {
			t.Errorf("Row %d: expected injected timestamp 42, got %v", i, row["timestamp"])
		}
		if row["triggering_merchant_id"] != "m1" {
			t.Errorf("Row %d: expected triggering_merchant_id m1, got %v", i, row["triggering_merchant_id"])
		}
		if _, ok := row["offers"]; ok {
			t.Errorf("Row %d: parent offers list must not be propagated", i)
		}
	}
}

func TestMarketSituationShapingWithoutTrigger(t *testing.T) {
	situation := map[string]any{
		"timestamp": float64(7),
		"offers":    []any{map[string]any{"offer_id": float64(1)}},
	}

	rows := ShaperFor("marketSituation")([]map[string]any{situation})
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if _, ok := rows[0]["triggering_merchant_id"]; ok {
		t.Errorf("No trigger merchant on the snapshot, none expected on the row")
	}
}

func TestMarketSituationShapingDoesNotMutateOffers(t *testing.T) {
	offer := map[string]any{"offer_id": float64(1)}
	situation := map[string]any{"timestamp": float64(1), "offers": []any{offer}}

	ShaperFor("marketSituation")([]map[string]any{situation})

	if _, ok := offer["timestamp"]; ok {
		t.Errorf("Shaping must copy offers, not mutate the decoded payload")
	}
}

func TestMarketSituationShapingSkipsMalformed(t *testing.T) {
	msgs := []map[string]any{
		{"timestamp": float64(1)},                              // no offers list
		{"timestamp": float64(2), "offers": "not-a-list"},      // wrong type
		{"timestamp": float64(3), "offers": []any{"not-a-map"}},
		{"timestamp": float64(4), "offers": []any{map[string]any{"offer_id": float64(9)}}},
	}

	rows := ShaperFor("marketSituation")(msgs)
	if len(rows) != 1 {
		t.Fatalf("Expected only the well-formed snapshot to produce a row, got %d", len(rows))
	}
	if rows[0]["offer_id"] != float64(9) {
		t.Errorf("Wrong row survived: %+v", rows[0])
	}
}

func TestIdentityShaperForOtherTopics(t *testing.T) {
	msgs := []map[string]any{{"profit": 1.5}, {"profit": 2.5}}

	rows := ShaperFor("profit")(msgs)
	if len(rows) != 2 {
		t.Fatalf("Expected identity shaping, got %d rows", len(rows))
	}
	if rows[0]["profit"] != 1.5 {
		t.Errorf("Identity shaper altered the payload: %+v", rows[0])
	}
}
