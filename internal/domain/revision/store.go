package revision

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bryanwahyu/compliance-copilot/internal/domain/contract"
)

var (
	ErrUnknownSuggestion   = errors.New("unknown suggestion")
	ErrDuplicateSuggestion = errors.New("duplicate suggestion id")
	ErrInvalidTransition   = errors.New("suggestion is not pending")
	ErrStaleSuggestion     = errors.New("suggestion no longer matches the document")
	ErrTextChanged         = errors.New("applied text was changed by a later edit")
)

// DocumentVersion is an immutable snapshot of the document text.
type DocumentVersion struct {
	ID           string    `json:"id"`
	Version      int       `json:"version"`
	Text         string    `json:"text"`
	Timestamp    time.Time `json:"timestamp"`
	Description  string    `json:"description"`
	SuggestionID string    `json:"suggestionId,omitempty"`
}

// TrackedSuggestion is a suggestion with its live offsets into the current text.
type TrackedSuggestion struct {
	contract.Suggestion
	Stale bool `json:"stale,omitempty"`
}

type edit struct {
	start    int
	inserted []rune
	removed  []rune
}

type entry struct {
	live        contract.Suggestion
	anchorStart int
	anchorEnd   int
	applied     *edit
	stale       bool
}

// Store tracks one document under review. It is safe for concurrent use.
type Store struct {
	mu           sync.Mutex
	originalText string
	current      []rune
	versions     []DocumentVersion
	order        []string
	entries      map[string]*entry
	appliedFixes []string
	now          func() time.Time
}

// New anchors suggestions against text and records version 0.
func New(text string, suggestions []contract.Suggestion, now func() time.Time) (*Store, error) {
	if now == nil {
		now = time.Now
	}
	s := &Store{
		originalText: text,
		current:      []rune(text),
		entries:      make(map[string]*entry, len(suggestions)),
		now:          now,
	}
	for i, sg := range suggestions {
		if sg.ID == "" {
			sg.ID = fmt.Sprintf("suggestion-%d", i+1)
		}
		if _, dup := s.entries[sg.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSuggestion, sg.ID)
		}
		found := contract.Anchor(&sg, text)
		sg.Status = contract.StatusPending
		s.entries[sg.ID] = &entry{live: sg, anchorStart: sg.StartIndex, anchorEnd: sg.EndIndex, stale: !found}
		s.order = append(s.order, sg.ID)
	}
	s.versions = []DocumentVersion{{
		ID:          "v0",
		Version:     0,
		Text:        text,
		Timestamp:   now(),
		Description: "Original document",
	}}
	return s, nil
}

// Accept applies a pending suggestion to the current text and appends a version.
// Remaining suggestions are re-anchored against the new text.
func (s *Store) Accept(id string) (DocumentVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return DocumentVersion{}, fmt.Errorf("%w: %s", ErrUnknownSuggestion, id)
	}
	if e.live.Status != contract.StatusPending {
		return DocumentVersion{}, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, e.live.Status)
	}
	if e.stale {
		return DocumentVersion{}, fmt.Errorf("%w: %s", ErrStaleSuggestion, id)
	}

	start, end := s.span(e.live)
	ed := &edit{
		start:    start,
		inserted: []rune(insertedText(e.live)),
		removed:  append([]rune(nil), s.current[start:end]...),
	}
	e.applied = ed
	s.splice(start, end, ed.inserted)
	s.shift(id, start, end, len(ed.inserted)-len(ed.removed))

	e.live.Status = contract.StatusAccepted
	e.live.StartIndex = start
	e.live.EndIndex = start + len(ed.inserted)
	s.appliedFixes = append(s.appliedFixes, id)

	return s.appendVersion(fmt.Sprintf("Accepted %s suggestion %s", e.live.Type, id), id), nil
}

// Reject marks a pending suggestion rejected without touching the text.
func (s *Store) Reject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSuggestion, id)
	}
	if e.live.Status != contract.StatusPending {
		return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, e.live.Status)
	}
	e.live.Status = contract.StatusRejected
	return nil
}

// Revert undoes an accepted suggestion. Ids that are not accepted are a
// no-op and report false. Version history is kept.
func (s *Store) Revert(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownSuggestion, id)
	}
	if e.live.Status != contract.StatusAccepted || e.applied == nil {
		return false, nil
	}

	ed := e.applied
	start, end := ed.start, ed.start+len(ed.inserted)
	if end > len(s.current) || string(s.current[start:end]) != string(ed.inserted) {
		return false, fmt.Errorf("%w: %s", ErrTextChanged, id)
	}
	e.applied = nil
	s.splice(start, end, ed.removed)
	s.shift(id, start, end, len(ed.removed)-len(ed.inserted))

	e.live.Status = contract.StatusPending
	e.live.StartIndex = start
	e.live.EndIndex = start + len(ed.removed)
	s.appliedFixes = remove(s.appliedFixes, id)

	s.appendVersion(fmt.Sprintf("Reverted suggestion %s", id), id)
	return true, nil
}

// RevertAll restores the original text and returns every accepted suggestion
// to pending. Version history is kept.
func (s *Store) RevertAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := string(s.current) != s.originalText
	s.current = []rune(s.originalText)
	for _, e := range s.entries {
		if e.live.Status == contract.StatusAccepted {
			e.live.Status = contract.StatusPending
		}
		e.applied = nil
		e.live.StartIndex, e.live.EndIndex = e.anchorStart, e.anchorEnd
		e.stale = e.stale && !anchored(e.live, s.current)
	}
	s.appliedFixes = nil
	if changed {
		s.appendVersion("Reverted all changes", "")
	}
}

// Export rebuilds the revised document from the original text by applying
// accepted suggestions at their original anchors in descending start order.
func (s *Store) Export() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var accepted []*entry
	for _, id := range s.order {
		if e := s.entries[id]; e.live.Status == contract.StatusAccepted {
			accepted = append(accepted, e)
		}
	}
	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].anchorStart > accepted[j].anchorStart
	})

	text := []rune(s.originalText)
	limit := len(text)
	for _, e := range accepted {
		start, end := e.anchorStart, e.anchorEnd
		if e.live.Type == contract.TypeAddition {
			end = start
		}
		if end > limit {
			continue // overlaps an edit already applied
		}
		text = spliceRunes(text, start, end, []rune(insertedText(e.live)))
		limit = start
	}
	return string(text)
}

// State is a read-only snapshot for transport.
type State struct {
	OriginalText string                               `json:"originalText"`
	CurrentText  string                               `json:"currentText"`
	Versions     []DocumentVersion                    `json:"versions"`
	Suggestions  []TrackedSuggestion                  `json:"suggestions"`
	PatchStates  map[string]contract.SuggestionStatus `json:"patchStates"`
	AppliedFixes []string                             `json:"appliedFixes"`
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		OriginalText: s.originalText,
		CurrentText:  string(s.current),
		Versions:     append([]DocumentVersion(nil), s.versions...),
		Suggestions:  make([]TrackedSuggestion, 0, len(s.order)),
		PatchStates:  make(map[string]contract.SuggestionStatus, len(s.order)),
		AppliedFixes: append([]string{}, s.appliedFixes...),
	}
	for _, id := range s.order {
		e := s.entries[id]
		st.Suggestions = append(st.Suggestions, TrackedSuggestion{Suggestion: e.live, Stale: e.stale})
		st.PatchStates[id] = e.live.Status
	}
	return st
}

func (s *Store) CurrentText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.current)
}

func (s *Store) span(sg contract.Suggestion) (int, int) {
	n := len(s.current)
	start := min(max(0, sg.StartIndex), n)
	end := min(max(start, sg.EndIndex), n)
	if sg.Type == contract.TypeAddition {
		end = start
	}
	return start, end
}

func (s *Store) splice(start, end int, with []rune) {
	s.current = spliceRunes(s.current, start, end, with)
}

// shift moves every other suggestion after an edit of [start,end) by delta.
// Pending suggestions overlapping the edit are searched for again and marked
// stale when their original text is gone or only survives inside applied text.
func (s *Store) shift(skip string, start, end, delta int) {
	var overlapping []*entry
	for _, id := range s.order {
		if id == skip {
			continue
		}
		e := s.entries[id]
		switch {
		case e.applied != nil:
			if e.applied.start >= end {
				e.applied.start += delta
				e.live.StartIndex += delta
				e.live.EndIndex += delta
			}
		case e.live.StartIndex >= end:
			e.live.StartIndex += delta
			e.live.EndIndex += delta
		case e.live.EndIndex <= start:
		default:
			if e.live.Status == contract.StatusPending {
				overlapping = append(overlapping, e)
			}
		}
	}
	// applied spans must all be shifted before mapping back to the original
	for _, e := range overlapping {
		s.reanchor(e)
	}
}

func (s *Store) reanchor(e *entry) {
	if !contract.Anchor(&e.live, string(s.current)) {
		e.stale = true
		return
	}
	start, end, ok := s.toOriginal(e.live.StartIndex, e.live.EndIndex)
	if !ok {
		e.stale = true
		return
	}
	e.stale = false
	e.anchorStart, e.anchorEnd = start, end
}

// toOriginal maps a span of the current text back to the original text. It
// fails when the span touches text written by an applied edit.
func (s *Store) toOriginal(start, end int) (int, int, bool) {
	offset := 0
	for _, id := range s.order {
		ed := s.entries[id].applied
		if ed == nil {
			continue
		}
		edStart, edEnd := ed.start, ed.start+len(ed.inserted)
		switch {
		case end <= edStart:
		case start >= edEnd:
			offset += len(ed.inserted) - len(ed.removed)
		default:
			return 0, 0, false
		}
	}
	return start - offset, end - offset, true
}

func (s *Store) appendVersion(desc, suggestionID string) DocumentVersion {
	v := DocumentVersion{
		ID:           fmt.Sprintf("v%d", len(s.versions)),
		Version:      len(s.versions),
		Text:         string(s.current),
		Timestamp:    s.now(),
		Description:  desc,
		SuggestionID: suggestionID,
	}
	s.versions = append(s.versions, v)
	return v
}

func insertedText(sg contract.Suggestion) string {
	if sg.Type == contract.TypeDeletion {
		return ""
	}
	return sg.SuggestedText
}

func anchored(sg contract.Suggestion, text []rune) bool {
	if sg.OriginalText == "" {
		return true
	}
	if sg.EndIndex > len(text) || sg.StartIndex > sg.EndIndex {
		return false
	}
	return string(text[sg.StartIndex:sg.EndIndex]) == sg.OriginalText
}

func spliceRunes(text []rune, start, end int, with []rune) []rune {
	out := make([]rune, 0, len(text)-(end-start)+len(with))
	out = append(out, text[:start]...)
	out = append(out, with...)
	return append(out, text[end:]...)
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
