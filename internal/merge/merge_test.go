// File path: internal/merge/merge_test.go
package merge

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func decode(t *testing.T, serialized string) []map[string]interface{} {
	t.Helper()
	var items []map[string]interface{}
	if err := json.Unmarshal([]byte(serialized), &items); err != nil {
		t.Fatalf("decode merged array: %v", err)
	}
	return items
}

func TestArrayAppendsWithoutDedupKey(t *testing.T) {
	existing := `[{"description":"check folio"},{"description":"print invoice"}]`
	incoming := []map[string]interface{}{{"description": "email invoice"}}

	merged := decode(t, Array(existing, incoming, ""))
	if len(merged) != 3 {
		t.Fatalf("expected 3 items, got %d", len(merged))
	}
	if merged[2]["description"] != "email invoice" {
		t.Fatalf("expected appended item last, got %v", merged[2])
	}

	// Append mode keeps duplicates.
	again := decode(t, Array(existing, incoming, ""))
	if len(again) != 3 {
		t.Fatalf("expected duplicates preserved on re-apply to original, got %d", len(again))
	}
}

func TestArrayLastWriteWinsPerKey(t *testing.T) {
	existing := `[{"system_name":"Opera PMS","method":"manual"},{"system_name":"Salesforce","method":"API"}]`
	incoming := []map[string]interface{}{
		{"system_name": "Opera PMS", "method": "API"},
		{"system_name": "Mailchimp", "method": "webhook"},
	}

	merged := decode(t, Array(existing, incoming, "system_name"))
	if len(merged) != 3 {
		t.Fatalf("expected 3 items, got %d", len(merged))
	}
	if merged[0]["system_name"] != "Opera PMS" || merged[0]["method"] != "API" {
		t.Fatalf("expected Opera PMS overwritten in place, got %v", merged[0])
	}
	if merged[2]["system_name"] != "Mailchimp" {
		t.Fatalf("expected new key appended, got %v", merged[2])
	}
}

func TestArrayIdempotentWithDedupKey(t *testing.T) {
	existing := `[{"system_name":"Opera PMS","direction":"one_way_push"}]`
	incoming := []map[string]interface{}{
		{"system_name": "Salesforce", "direction": "bidirectional"},
	}

	once := Array(existing, incoming, "system_name")
	twice := Array(once, incoming, "system_name")
	if diff := cmp.Diff(decode(t, once), decode(t, twice)); diff != "" {
		t.Fatalf("merge not idempotent (-once +twice):\n%s", diff)
	}
}

func TestArrayMalformedExistingTreatedAsEmpty(t *testing.T) {
	incoming := []map[string]interface{}{{"system_name": "Opera PMS"}}
	for _, existing := range []string{"", "not json", "{\"a\":1}", "[{broken"} {
		merged := decode(t, Array(existing, incoming, "system_name"))
		if len(merged) != 1 {
			t.Fatalf("existing %q: expected 1 item, got %d", existing, len(merged))
		}
	}
}

func TestArrayDropsItemsMissingDedupKey(t *testing.T) {
	incoming := []map[string]interface{}{
		{"direction": "bidirectional"},
		{"system_name": "Opera PMS"},
	}
	merged := decode(t, Array("[]", incoming, "system_name"))
	if len(merged) != 1 {
		t.Fatalf("expected keyless item dropped, got %d items", len(merged))
	}
}

func TestObjectsMergesTypedItems(t *testing.T) {
	type link struct {
		SystemName string `json:"system_name"`
		Method     string `json:"method"`
	}
	existing := `[{"system_name":"Opera PMS","method":"manual"}]`
	merged := decode(t, Objects(existing, []link{{SystemName: "Opera PMS", Method: "API"}}, "system_name"))
	if len(merged) != 1 {
		t.Fatalf("expected 1 item, got %d", len(merged))
	}
	if merged[0]["method"] != "API" {
		t.Fatalf("expected last write to win, got %v", merged[0])
	}
}

func TestAddUniqueNeverDuplicates(t *testing.T) {
	out := AddUnique(`["SME-001"]`, "SME-002")
	out = AddUnique(out, "SME-002")
	out = AddUnique(out, "SME-001")

	list := Strings(out)
	want := []string{"SME-001", "SME-002"}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Fatalf("unexpected list (-want +got):\n%s", diff)
	}
}

func TestAddUniqueMalformedExisting(t *testing.T) {
	list := Strings(AddUnique("{bad", "SME-001"))
	if len(list) != 1 || list[0] != "SME-001" {
		t.Fatalf("expected singleton list, got %v", list)
	}
}

func TestAddAllUnique(t *testing.T) {
	out := AddAllUnique(`["booking"]`, []string{"booking", "check_in", "check_in"})
	want := []string{"booking", "check_in"}
	if diff := cmp.Diff(want, Strings(out)); diff != "" {
		t.Fatalf("unexpected union (-want +got):\n%s", diff)
	}
}
