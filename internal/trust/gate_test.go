package trust

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "bubble/pkg/domain"
	dErrors "bubble/pkg/domain-errors"
)

func user(s string) id.UserID {
	return id.UserID(uuid.MustParse(s))
}

var (
	u1 = user("11111111-1111-1111-1111-111111111111")
	u2 = user("22222222-2222-2222-2222-222222222222")
	u3 = user("33333333-3333-3333-3333-333333333333")
	u4 = user("44444444-4444-4444-4444-444444444444")
)

func edge(a, b id.UserID, level int) Edge {
	return Edge{UserA: a, UserB: b, Level: level, EstablishedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestNewPairIsCanonical(t *testing.T) {
	assert.Equal(t, NewPair(u1, u2), NewPair(u2, u1))
	p := NewPair(u3, u1)
	assert.Equal(t, u1, p.A)
	assert.Equal(t, u3, p.Other(u1))
	assert.True(t, p.Contains(u3))
	assert.False(t, p.Contains(u2))
}

func TestEligiblePairs(t *testing.T) {
	gate := NewGate()

	t.Run("only level five passes", func(t *testing.T) {
		pairs := gate.EligiblePairs([]Edge{edge(u1, u2, 5), edge(u1, u3, 4), edge(u2, u4, 1)})
		assert.Equal(t, []Pair{NewPair(u1, u2)}, pairs)
	})

	t.Run("both directions collapse into one pair", func(t *testing.T) {
		pairs := gate.EligiblePairs([]Edge{edge(u2, u1, 5), edge(u1, u2, 5)})
		assert.Equal(t, []Pair{{A: u1, B: u2}}, pairs)
	})

	t.Run("self edges and nil users are dropped", func(t *testing.T) {
		pairs := gate.EligiblePairs([]Edge{edge(u1, u1, 5), edge(u1, id.UserID{}, 5)})
		assert.Empty(t, pairs)
	})

	t.Run("output is sorted", func(t *testing.T) {
		pairs := gate.EligiblePairs([]Edge{edge(u4, u3, 5), edge(u2, u1, 5), edge(u3, u1, 5)})
		assert.Equal(t, []Pair{NewPair(u1, u2), NewPair(u1, u3), NewPair(u3, u4)}, pairs)
	})

	t.Run("empty graph", func(t *testing.T) {
		assert.Empty(t, gate.EligiblePairs(nil))
	})
}

func TestMutualTrust(t *testing.T) {
	gate := NewGate(WithMutualTrust())

	t.Run("one-sided rating is not enough", func(t *testing.T) {
		assert.Empty(t, gate.EligiblePairs([]Edge{edge(u1, u2, 5), edge(u2, u1, 4)}))
	})

	t.Run("both directions at level five qualify", func(t *testing.T) {
		assert.Equal(t, []Pair{NewPair(u1, u2)}, gate.EligiblePairs([]Edge{edge(u2, u1, 5), edge(u1, u2, 5)}))
	})
}

func TestWithMinLevel(t *testing.T) {
	gate := NewGate(WithMinLevel(4))
	assert.Len(t, gate.EligiblePairs([]Edge{edge(u1, u2, 4), edge(u1, u3, 3)}), 1)

	ignored := NewGate(WithMinLevel(9))
	assert.Empty(t, ignored.EligiblePairs([]Edge{edge(u1, u2, 4)}))
}

func TestCloseFriends(t *testing.T) {
	gate := NewGate()
	friends := gate.CloseFriends([]Edge{edge(u1, u2, 5), edge(u3, u1, 5), edge(u1, u4, 2), edge(u2, u3, 5)}, u1)
	assert.ElementsMatch(t, []id.UserID{u2, u3}, friends)
}

func TestEdgeValidate(t *testing.T) {
	assert.NoError(t, edge(u1, u2, 3).Validate())
	assert.True(t, dErrors.HasCode(edge(u1, u1, 3).Validate(), dErrors.CodeValidation))
	assert.True(t, dErrors.HasCode(edge(u1, u2, 0).Validate(), dErrors.CodeValidation))
	assert.True(t, dErrors.HasCode(edge(u1, u2, 6).Validate(), dErrors.CodeValidation))
}

type failingSource struct{}

func (failingSource) ListEdges(context.Context) ([]Edge, error) { return nil, errors.New("down") }
func (failingSource) EdgesFor(context.Context, id.UserID) ([]Edge, error) {
	return nil, errors.New("down")
}

func TestServiceTranslatesSourceErrors(t *testing.T) {
	svc, err := NewService(failingSource{}, nil)
	require.NoError(t, err)

	_, err = svc.EligiblePairs(context.Background())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

	_, err = svc.CloseFriends(context.Background(), u1)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))

	_, err = NewService(nil, nil)
	assert.Error(t, err)
}
