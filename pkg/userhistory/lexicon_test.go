package userhistory

import "testing"

func TestLexiconGetOrCreateNewVsExisting(t *testing.T) {
	l := NewUserLexicon()
	id1, err := l.GetOrCreate("gox", 100)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if id1 < UserIDMin {
		t.Fatalf("expected id >= UserIDMin, got %d", id1)
	}
	id2, err := l.GetOrCreate("gox", 200)
	if err != nil {
		t.Fatalf("GetOrCreate (existing): %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same id for repeated word, got %d and %d", id1, id2)
	}
	if l.Len() != 1 {
		t.Fatalf("Len = %d, want 1", l.Len())
	}
}

func TestLexiconGetOrCreateTouchesExisting(t *testing.T) {
	l := NewUserLexicon()
	id, _ := l.GetOrCreate("gox", 100)
	l.GetOrCreate("gox", 200)
	entry, ok := l.stats[id]
	if !ok {
		t.Fatalf("expected stat to exist for %d", id)
	}
	if entry.Freq != 2 {
		t.Fatalf("Freq = %d, want 2", entry.Freq)
	}
	if entry.LastUsed != 200 {
		t.Fatalf("LastUsed = %d, want 200", entry.LastUsed)
	}
}

func TestLexiconFullSaturation(t *testing.T) {
	l := NewUserLexicon()
	l.nextID = UserIDMax
	if _, err := l.GetOrCreate("brandnew", 1); err != ErrLexiconFull {
		t.Fatalf("GetOrCreate at saturation: got %v, want ErrLexiconFull", err)
	}
}

func TestLexiconLookupExact(t *testing.T) {
	l := NewUserLexicon()
	id, _ := l.GetOrCreate("hello", 1)
	got, ok := l.LookupExact("hello")
	if !ok || got != id {
		t.Fatalf("LookupExact(hello) = (%d,%v), want (%d,true)", got, ok, id)
	}
	if _, ok := l.LookupExact("nope"); ok {
		t.Fatalf("LookupExact(nope) = true, want false")
	}
}

func TestLexiconLookupExactDoesNotCreateOrTouch(t *testing.T) {
	l := NewUserLexicon()
	l.LookupExact("ghost")
	if l.Len() != 0 {
		t.Fatalf("LookupExact must not create entries, Len = %d", l.Len())
	}
}

func TestLexiconLookupPrefixOrdering(t *testing.T) {
	l := NewUserLexicon()
	now := uint32(1000)
	idCar, _ := l.GetOrCreate("car", now)
	for i := 0; i < 5; i++ {
		l.GetOrCreate("cart", now)
	}
	results := l.LookupPrefix("car", 5, now)
	if len(results) != 2 {
		t.Fatalf("expected 2 prefix matches, got %d: %v", len(results), results)
	}
	if results[0].Word != "cart" {
		t.Fatalf("expected higher-frequency 'cart' first, got %q", results[0].Word)
	}
	var found bool
	for _, r := range results {
		if r.ID == idCar {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'car' entry present in results")
	}
}

func TestLexiconLookupPrefixLimit(t *testing.T) {
	l := NewUserLexicon()
	now := uint32(1000)
	for _, w := range []string{"ant", "ants", "anteater", "antler"} {
		l.GetOrCreate(w, now)
	}
	results := l.LookupPrefix("ant", 2, now)
	if len(results) != 2 {
		t.Fatalf("expected limit of 2 results, got %d", len(results))
	}
}

func TestLexiconAcceptBumpsBonus(t *testing.T) {
	l := NewUserLexicon()
	id, _ := l.GetOrCreate("pick", 100)
	before := l.stats[id].Score(100)
	l.Accept(id, 100)
	after := l.stats[id].Score(100)
	if after <= before {
		t.Fatalf("expected Accept to raise score: before=%d after=%d", before, after)
	}
}

func TestLexiconAcceptUnknownIDIsNoop(t *testing.T) {
	l := NewUserLexicon()
	l.Accept(999, 100)
	if l.Len() != 0 {
		t.Fatalf("Accept on unknown id must not create an entry")
	}
}

func TestLexiconJSONRoundTrip(t *testing.T) {
	l := NewUserLexicon()
	l.GetOrCreate("alpha", 10)
	l.GetOrCreate("beta", 20)
	l.Accept(func() uint32 { id, _ := l.LookupExact("alpha"); return id }(), 30)

	data, err := l.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}

	restored := NewUserLexicon()
	if err := restored.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if restored.Len() != l.Len() {
		t.Fatalf("Len after round trip = %d, want %d", restored.Len(), l.Len())
	}
	id, ok := restored.LookupExact("alpha")
	if !ok {
		t.Fatalf("expected 'alpha' to survive round trip")
	}
	if restored.Word(id) != "alpha" {
		t.Fatalf("Word(%d) = %q, want alpha", id, restored.Word(id))
	}
	if restored.stats[id].Accept != 1 {
		t.Fatalf("expected Accept bonus to survive round trip, got %d", restored.stats[id].Accept)
	}
}

func TestLexiconUnmarshalClampsNextID(t *testing.T) {
	l := NewUserLexicon()
	data := []byte(`{"next_id":0,"entries":[]}`)
	if err := l.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if l.nextID != UserIDMin {
		t.Fatalf("nextID = %#x, want clamped to UserIDMin %#x", l.nextID, UserIDMin)
	}
}
