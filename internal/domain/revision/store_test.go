package revision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/compliance-copilot/internal/domain/contract"
)

var fixed = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func clock() time.Time { return fixed }

func newStore(t *testing.T, text string, sgs ...contract.Suggestion) *Store {
	t.Helper()
	s, err := New(text, sgs, clock)
	require.NoError(t, err)
	return s
}

func TestAcceptAddition(t *testing.T) {
	s := newStore(t, "0123456789ABCDE", contract.Suggestion{
		ID: "add", Type: contract.TypeAddition, SuggestedText: "XYZ", StartIndex: 10, EndIndex: 10,
	})

	v, err := s.Accept("add")
	require.NoError(t, err)

	st := s.Snapshot()
	assert.Equal(t, "0123456789XYZABCDE", st.CurrentText)
	assert.Equal(t, 1, v.Version, "version equals the number of versions before the append")
	assert.Len(t, st.Versions, 2)
	assert.Equal(t, "add", st.Versions[1].SuggestionID)
	assert.Equal(t, fixed, st.Versions[1].Timestamp)
	assert.Equal(t, contract.StatusAccepted, st.PatchStates["add"])
	assert.Equal(t, []string{"add"}, st.AppliedFixes)
}

func TestRevertNonAcceptedIsNoop(t *testing.T) {
	s := newStore(t, "abcdef", contract.Suggestion{
		ID: "m", Type: contract.TypeModification, OriginalText: "cd", SuggestedText: "CD", StartIndex: 2, EndIndex: 4,
	})
	before := s.Snapshot()

	changed, err := s.Revert("m")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, before, s.Snapshot())

	require.NoError(t, s.Reject("m"))
	changed, err = s.Revert("m")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, contract.StatusRejected, s.Snapshot().PatchStates["m"])
}

func TestRevertRestoresTextAndKeepsHistory(t *testing.T) {
	s := newStore(t, "The fee is 10 USD.", contract.Suggestion{
		ID: "fee", Type: contract.TypeReplacement, OriginalText: "10 USD", SuggestedText: "15 EUR", StartIndex: 11, EndIndex: 17,
	})
	_, err := s.Accept("fee")
	require.NoError(t, err)
	assert.Equal(t, "The fee is 15 EUR.", s.CurrentText())

	changed, err := s.Revert("fee")
	require.NoError(t, err)
	assert.True(t, changed)

	st := s.Snapshot()
	assert.Equal(t, "The fee is 10 USD.", st.CurrentText)
	assert.Equal(t, contract.StatusPending, st.PatchStates["fee"])
	assert.Empty(t, st.AppliedFixes)
	assert.Len(t, st.Versions, 3)
	assert.Equal(t, 11, st.Suggestions[0].StartIndex)
	assert.Equal(t, 17, st.Suggestions[0].EndIndex)
}

func TestAcceptRejectTransitions(t *testing.T) {
	s := newStore(t, "hello world", contract.Suggestion{
		ID: "d", Type: contract.TypeDeletion, OriginalText: " world", SuggestedText: "ignored", StartIndex: 5, EndIndex: 11,
	})

	_, err := s.Accept("missing")
	assert.ErrorIs(t, err, ErrUnknownSuggestion)

	_, err = s.Accept("d")
	require.NoError(t, err)
	assert.Equal(t, "hello", s.CurrentText(), "deletions ignore suggestedText")

	_, err = s.Accept("d")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, s.Reject("d"), ErrInvalidTransition)
}

func TestAcceptReanchorsLaterSuggestions(t *testing.T) {
	text := "0123456789ABCDE"
	s := newStore(t, text,
		contract.Suggestion{ID: "a", Type: contract.TypeReplacement, OriginalText: "23", SuggestedText: "xx yy", StartIndex: 2, EndIndex: 4},
		contract.Suggestion{ID: "b", Type: contract.TypeModification, OriginalText: "AB", SuggestedText: "ab", StartIndex: 10, EndIndex: 12},
	)

	_, err := s.Accept("a")
	require.NoError(t, err)
	b := s.Snapshot().Suggestions[1]
	assert.Equal(t, 13, b.StartIndex)
	assert.Equal(t, 15, b.EndIndex)

	_, err = s.Accept("b")
	require.NoError(t, err)
	assert.Equal(t, "01xx yy456789abCDE", s.CurrentText())
	assert.Equal(t, s.CurrentText(), s.Export())

	// reverting the earlier edit shifts the later one back
	changed, err := s.Revert("a")
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, "0123456789abCDE", s.CurrentText())

	changed, err = s.Revert("b")
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, text, s.CurrentText())
}

func TestAcceptInAnyOrderMatchesExport(t *testing.T) {
	sgs := []contract.Suggestion{
		{ID: "a", Type: contract.TypeReplacement, OriginalText: "alpha", SuggestedText: "ALPHA!", StartIndex: 0, EndIndex: 5},
		{ID: "b", Type: contract.TypeDeletion, OriginalText: " beta", StartIndex: 5, EndIndex: 10},
		{ID: "c", Type: contract.TypeAddition, SuggestedText: " delta", StartIndex: 16, EndIndex: 16},
	}
	text := "alpha beta gamma"

	forward := newStore(t, text, sgs...)
	backward := newStore(t, text, sgs...)
	for _, id := range []string{"a", "b", "c"} {
		_, err := forward.Accept(id)
		require.NoError(t, err)
	}
	for _, id := range []string{"c", "b", "a"} {
		_, err := backward.Accept(id)
		require.NoError(t, err)
	}

	assert.Equal(t, "ALPHA! gamma delta", forward.CurrentText())
	assert.Equal(t, forward.CurrentText(), backward.CurrentText())
	assert.Equal(t, forward.CurrentText(), forward.Export())
}

func TestOverlappingSuggestionBecomesStale(t *testing.T) {
	s := newStore(t, "pay within 30 days",
		contract.Suggestion{ID: "x", Type: contract.TypeReplacement, OriginalText: "30 days", SuggestedText: "15 days", StartIndex: 11, EndIndex: 18},
		contract.Suggestion{ID: "y", Type: contract.TypeModification, OriginalText: "30", SuggestedText: "45", StartIndex: 11, EndIndex: 13},
	)
	_, err := s.Accept("x")
	require.NoError(t, err)

	st := s.Snapshot()
	assert.True(t, st.Suggestions[1].Stale)
	_, err = s.Accept("y")
	assert.ErrorIs(t, err, ErrStaleSuggestion)

	s.RevertAll()
	st = s.Snapshot()
	assert.False(t, st.Suggestions[1].Stale)
	_, err = s.Accept("y")
	require.NoError(t, err)
	assert.Equal(t, "pay within 45 days", s.CurrentText())
}

func TestReanchoredSuggestionExportsLikeCurrentText(t *testing.T) {
	s := newStore(t, "foo bar foo",
		contract.Suggestion{ID: "a", Type: contract.TypeReplacement, OriginalText: "foo bar", SuggestedText: "X", StartIndex: 0, EndIndex: 7},
		contract.Suggestion{ID: "b", Type: contract.TypeReplacement, OriginalText: "foo", SuggestedText: "Y", StartIndex: 0, EndIndex: 3},
	)
	_, err := s.Accept("a")
	require.NoError(t, err)

	b := s.Snapshot().Suggestions[1]
	assert.False(t, b.Stale)
	assert.Equal(t, 2, b.StartIndex)

	_, err = s.Accept("b")
	require.NoError(t, err)
	assert.Equal(t, "X Y", s.CurrentText())
	assert.Equal(t, s.CurrentText(), s.Export())

	changed, err := s.Revert("a")
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, "foo bar Y", s.CurrentText())
	assert.Equal(t, s.CurrentText(), s.Export())
}

func TestReanchorIntoAppliedTextIsStale(t *testing.T) {
	s := newStore(t, "net 60 terms",
		contract.Suggestion{ID: "a", Type: contract.TypeReplacement, OriginalText: "net 60", SuggestedText: "net 30 net", StartIndex: 0, EndIndex: 6},
		contract.Suggestion{ID: "b", Type: contract.TypeModification, OriginalText: "net", SuggestedText: "NET", StartIndex: 0, EndIndex: 3},
	)
	_, err := s.Accept("a")
	require.NoError(t, err)

	assert.True(t, s.Snapshot().Suggestions[1].Stale)
	_, err = s.Accept("b")
	assert.ErrorIs(t, err, ErrStaleSuggestion)
	assert.Equal(t, s.CurrentText(), s.Export())
}

func TestRevertAllKeepsHistory(t *testing.T) {
	s := newStore(t, "abc",
		contract.Suggestion{ID: "1", Type: contract.TypeModification, OriginalText: "a", SuggestedText: "A", StartIndex: 0, EndIndex: 1},
		contract.Suggestion{ID: "2", Type: contract.TypeModification, OriginalText: "c", SuggestedText: "C", StartIndex: 2, EndIndex: 3},
	)
	_, _ = s.Accept("1")
	_, _ = s.Accept("2")
	require.Equal(t, "AbC", s.CurrentText())

	s.RevertAll()
	st := s.Snapshot()
	assert.Equal(t, "abc", st.CurrentText)
	assert.Equal(t, contract.StatusPending, st.PatchStates["1"])
	assert.Equal(t, contract.StatusPending, st.PatchStates["2"])
	assert.Len(t, st.Versions, 4)
	assert.Empty(t, st.AppliedFixes)
	assert.Equal(t, "abc", s.Export())
}

func TestExportIdempotent(t *testing.T) {
	s := newStore(t, "one two three",
		contract.Suggestion{ID: "t", Type: contract.TypeReplacement, OriginalText: "two", SuggestedText: "2", StartIndex: 4, EndIndex: 7},
	)
	_, err := s.Accept("t")
	require.NoError(t, err)

	first := s.Export()
	assert.Equal(t, first, s.Export())
	assert.Equal(t, "one 2 three", first)
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	_, err := New("x", []contract.Suggestion{{ID: "a"}, {ID: "a"}}, clock)
	assert.ErrorIs(t, err, ErrDuplicateSuggestion)
}

func TestNewAnchorsMisplacedSuggestion(t *testing.T) {
	s := newStore(t, "Payment is due in 60 days.", contract.Suggestion{
		ID: "p", Type: contract.TypeReplacement, OriginalText: "60 days", SuggestedText: "30 days", StartIndex: 0, EndIndex: 3,
	})
	_, err := s.Accept("p")
	require.NoError(t, err)
	assert.Equal(t, "Payment is due in 30 days.", s.CurrentText())
}
