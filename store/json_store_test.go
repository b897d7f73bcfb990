package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/codetree-io/codetree/types"
)

var errFailInjected = errors.New("injected write failure")

func openTestStore(t *testing.T) (*JSONStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "items.json")
	s, err := OpenJSON(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestJSONStoreAdd(t *testing.T) {
	s, _ := openTestStore(t)

	t.Run("MintsID", func(t *testing.T) {
		id, err := s.Add(types.Item{Name: "Prompt Engineering Guide", Segment: "A", Category: "LLM", ContentType: "T"})
		if err != nil {
			t.Fatal(err)
		}
		if id == "" {
			t.Fatal("expected a minted id")
		}
		item, err := s.LoadOne(id)
		if err != nil {
			t.Fatal(err)
		}
		if item == nil || item.Name != "Prompt Engineering Guide" {
			t.Errorf("unexpected item: %+v", item)
		}
		if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
			t.Error("timestamps should be stamped on add")
		}
	})

	t.Run("KeepsExplicitID", func(t *testing.T) {
		id, err := s.Add(types.Item{ID: "itm-explicit", Name: "Zero Trust Primer"})
		if err != nil {
			t.Fatal(err)
		}
		if id != "itm-explicit" {
			t.Errorf("expected itm-explicit, got %s", id)
		}
	})

	t.Run("RejectsDuplicateID", func(t *testing.T) {
		if _, err := s.Add(types.Item{ID: "itm-explicit"}); err == nil {
			t.Error("expected duplicate id to be rejected")
		}
	})
}

func TestJSONStoreLoadAllOrdering(t *testing.T) {
	s, _ := openTestStore(t)

	now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	s.SetTimeFunc(func() time.Time { return now })

	// Insert out of creation order; LoadAll must sort by CreatedAt, then id.
	for _, item := range []types.Item{
		{ID: "itm-b", CreatedAt: now.Add(2 * time.Minute)},
		{ID: "itm-c", CreatedAt: now.Add(time.Minute)},
		{ID: "itm-a", CreatedAt: now.Add(time.Minute)},
	} {
		if _, err := s.Add(item); err != nil {
			t.Fatal(err)
		}
	}

	items, err := s.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{"itm-a", "itm-c", "itm-b"}
	if len(items) != len(expected) {
		t.Fatalf("expected %d items, got %d", len(expected), len(items))
	}
	for i, id := range expected {
		if items[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, items[i].ID)
		}
	}
}

func TestJSONStoreLoadOneAbsent(t *testing.T) {
	s, _ := openTestStore(t)
	item, err := s.LoadOne("no-such-item")
	if err != nil {
		t.Fatal(err)
	}
	if item != nil {
		t.Errorf("expected (nil, nil) for an absent item, got %+v", item)
	}
}

func TestJSONStoreWriteHierarchyCodes(t *testing.T) {
	s, path := openTestStore(t)
	for _, id := range []string{"itm-1", "itm-2"} {
		if _, err := s.Add(types.Item{ID: id}); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("AppliesBatch", func(t *testing.T) {
		err := s.WriteHierarchyCodes([]types.CodeUpdate{
			{ItemID: "itm-1", FunctionCode: "A.LLM.T.1", OrganizationCode: "OPAI.LLM.T.1"},
			{ItemID: "itm-2", FunctionCode: "A.LLM.T.2", OrganizationCode: "ANTH.LLM.T.1"},
		})
		if err != nil {
			t.Fatal(err)
		}
		item, err := s.LoadOne("itm-2")
		if err != nil {
			t.Fatal(err)
		}
		if item.FunctionCode != "A.LLM.T.2" || item.OrganizationCode != "ANTH.LLM.T.1" {
			t.Errorf("codes not applied: %+v", item)
		}
	})

	t.Run("UnknownItemAbortsBatch", func(t *testing.T) {
		err := s.WriteHierarchyCodes([]types.CodeUpdate{
			{ItemID: "itm-1", FunctionCode: "A.LLM.T.9"},
			{ItemID: "itm-ghost", FunctionCode: "B.SEC.G.1"},
		})
		if err == nil {
			t.Fatal("expected error for an unknown item")
		}
		item, err := s.LoadOne("itm-1")
		if err != nil {
			t.Fatal(err)
		}
		if item.FunctionCode != "A.LLM.T.1" {
			t.Errorf("aborted batch must leave prior codes intact, got %s", item.FunctionCode)
		}
	})

	t.Run("EmptyBatchIsNoop", func(t *testing.T) {
		if err := s.WriteHierarchyCodes(nil); err != nil {
			t.Errorf("empty batch should be a no-op, got %v", err)
		}
	})

	t.Run("SurvivesReopen", func(t *testing.T) {
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
		reopened, err := OpenJSON(path)
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = reopened.Close() }()
		item, err := reopened.LoadOne("itm-1")
		if err != nil {
			t.Fatal(err)
		}
		if item == nil || item.FunctionCode != "A.LLM.T.1" {
			t.Errorf("codes not persisted across reopen: %+v", item)
		}
	})
}

func TestJSONStoreDelete(t *testing.T) {
	s, path := openTestStore(t)
	if _, err := s.Add(types.Item{ID: "itm-gone"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(types.Item{ID: "itm-kept"}); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete("itm-gone"); err != nil {
		t.Fatal(err)
	}

	t.Run("HiddenFromReads", func(t *testing.T) {
		item, err := s.LoadOne("itm-gone")
		if err != nil {
			t.Fatal(err)
		}
		if item != nil {
			t.Errorf("deleted item should read as absent, got %+v", item)
		}
		items, err := s.LoadAll()
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 1 || items[0].ID != "itm-kept" {
			t.Errorf("expected only itm-kept, got %+v", items)
		}
	})

	t.Run("DeleteTwiceFails", func(t *testing.T) {
		if err := s.Delete("itm-gone"); err == nil {
			t.Error("expected second delete to fail")
		}
	})

	t.Run("DeleteUnknownFails", func(t *testing.T) {
		if err := s.Delete("no-such-item"); err == nil {
			t.Error("expected error for an unknown item")
		}
	})

	t.Run("SoftDeleteSurvivesReopen", func(t *testing.T) {
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
		reopened, err := OpenJSON(path)
		if err != nil {
			t.Fatal(err)
		}
		defer func() { _ = reopened.Close() }()
		item, err := reopened.LoadOne("itm-gone")
		if err != nil {
			t.Fatal(err)
		}
		if item != nil {
			t.Errorf("soft delete should persist, got %+v", item)
		}
	})
}

func TestMemoryStoreFailNextWrite(t *testing.T) {
	s := NewMemory(types.Item{ID: "itm-1"})
	s.FailNextWrite(errFailInjected)

	err := s.WriteHierarchyCodes([]types.CodeUpdate{{ItemID: "itm-1", FunctionCode: "A.LLM.T.1"}})
	if err == nil {
		t.Fatal("expected the injected failure")
	}
	item, err := s.LoadOne("itm-1")
	if err != nil {
		t.Fatal(err)
	}
	if item.FunctionCode != "" {
		t.Error("failed write must not mutate state")
	}

	// The failure is one-shot: the next write goes through.
	if err := s.WriteHierarchyCodes([]types.CodeUpdate{{ItemID: "itm-1", FunctionCode: "A.LLM.T.1"}}); err != nil {
		t.Fatalf("second write should succeed, got %v", err)
	}
}
