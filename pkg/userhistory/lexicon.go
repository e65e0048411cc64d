package userhistory

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/tchap/go-patricia/v2/patricia"
)

const (
	// UserIDMin is the first id handed out to a user-lexicon entry (§3).
	UserIDMin uint32 = 0x80000000
	// UserIDMax is the exclusive upper bound; allocation saturates here.
	UserIDMax uint32 = 0xFFFFFFF0
)

// ErrLexiconFull is returned by GetOrCreate once the user id space is
// exhausted. Per §4.6/§7 this breaks the chain being learned, it is not a
// fatal error.
var ErrLexiconFull = errors.New("userhistory: lexicon saturated")

// LexiconEntry is one resolved user-lexicon word with its live stat.
type LexiconEntry struct {
	Word  string
	ID    uint32
	Stat  WordStat
	Score uint16
}

// UserLexicon maps canonical words to synthetic user ids and back, backed
// by a Patricia trie for LookupPrefix. Not safe for concurrent use on its
// own; History wraps it with a mutex per §5.
type UserLexicon struct {
	trie   *patricia.Trie
	byID   map[uint32]string
	stats  map[uint32]*WordStat
	nextID uint32
}

// NewUserLexicon creates an empty lexicon.
func NewUserLexicon() *UserLexicon {
	return &UserLexicon{
		trie:   patricia.NewTrie(),
		byID:   make(map[uint32]string),
		stats:  make(map[uint32]*WordStat),
		nextID: UserIDMin,
	}
}

// GetOrCreate resolves canon to a user id, creating and touching a fresh
// WordStat if canon is new, or touching the existing one (incrementing
// Freq and LastUsed) otherwise.
func (l *UserLexicon) GetOrCreate(canon string, now uint32) (uint32, error) {
	if item := l.trie.Get(patricia.Prefix(canon)); item != nil {
		id := item.(uint32)
		l.touch(id, now)
		return id, nil
	}
	if l.nextID >= UserIDMax {
		return 0, ErrLexiconFull
	}
	id := l.nextID
	l.nextID++
	l.trie.Insert(patricia.Prefix(canon), id)
	l.byID[id] = canon
	l.stats[id] = &WordStat{Freq: 1, LastUsed: now}
	return id, nil
}

// Accept marks id as having been explicitly accepted by the user (a
// suggestion chosen, not merely typed through), bumping its accept bonus.
func (l *UserLexicon) Accept(id uint32, now uint32) {
	if s, ok := l.stats[id]; ok {
		s.Accept++
		s.LastUsed = now
	}
}

func (l *UserLexicon) touch(id uint32, now uint32) {
	if s, ok := l.stats[id]; ok {
		s.Freq++
		s.LastUsed = now
	}
}

// Word returns the canonical word for a user id, or "" if unknown.
func (l *UserLexicon) Word(id uint32) string {
	return l.byID[id]
}

// LookupExact resolves a canonical word to its user id without creating or
// touching an entry. Used by Accept, which only bumps the bonus on a word
// that already exists in the lexicon.
func (l *UserLexicon) LookupExact(canon string) (uint32, bool) {
	item := l.trie.Get(patricia.Prefix(canon))
	if item == nil {
		return 0, false
	}
	return item.(uint32), true
}

// LookupPrefix collects the lexicon entries whose canonical form starts
// with canonPrefix (§4.6), returning up to limit entries sorted by current
// WordStat score, best-first. Backed by the trie's subtree visit rather
// than a full scan of byID.
func (l *UserLexicon) LookupPrefix(canonPrefix string, limit int, now uint32) []LexiconEntry {
	var out []LexiconEntry
	l.trie.VisitSubtree(patricia.Prefix(canonPrefix), func(p patricia.Prefix, item patricia.Item) error {
		id := item.(uint32)
		stat := l.stats[id]
		if stat == nil {
			return nil
		}
		out = append(out, LexiconEntry{
			Word:  string(p),
			ID:    id,
			Stat:  *stat,
			Score: stat.Score(now),
		})
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Word < out[j].Word
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len returns the number of entries currently in the lexicon.
func (l *UserLexicon) Len() int {
	return len(l.byID)
}

// lexiconWire is the JSON shape a UserLexicon persists as: the trie itself
// is rebuilt on load from a flat entry list, since patricia.Trie has no
// native (de)serialization.
type lexiconWire struct {
	NextID  uint32             `json:"next_id"`
	Entries []lexiconEntryWire `json:"entries"`
}

type lexiconEntryWire struct {
	Word string   `json:"word"`
	ID   uint32   `json:"id"`
	Stat WordStat `json:"stat"`
}

// MarshalJSON flattens the lexicon into word/id/stat triples.
func (l *UserLexicon) MarshalJSON() ([]byte, error) {
	entries := make([]lexiconEntryWire, 0, len(l.byID))
	for id, word := range l.byID {
		stat := l.stats[id]
		if stat == nil {
			stat = &WordStat{}
		}
		entries = append(entries, lexiconEntryWire{Word: word, ID: id, Stat: *stat})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return json.Marshal(lexiconWire{NextID: l.nextID, Entries: entries})
}

// UnmarshalJSON rebuilds the trie and stat maps from a flattened lexicon.
func (l *UserLexicon) UnmarshalJSON(data []byte) error {
	var wire lexiconWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	l.trie = patricia.NewTrie()
	l.byID = make(map[uint32]string, len(wire.Entries))
	l.stats = make(map[uint32]*WordStat, len(wire.Entries))
	for _, e := range wire.Entries {
		stat := e.Stat
		l.trie.Insert(patricia.Prefix(e.Word), e.ID)
		l.byID[e.ID] = e.Word
		l.stats[e.ID] = &stat
	}
	l.nextID = wire.NextID
	if l.nextID < UserIDMin {
		l.nextID = UserIDMin
	}
	return nil
}
