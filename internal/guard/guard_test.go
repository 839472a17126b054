package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sentiview/internal/models"
	"github.com/wolfeidau/sentiview/internal/session"
)

var (
	loading   = session.Snapshot{Loading: true}
	signedOut = session.Snapshot{}
	signedIn  = session.Snapshot{Token: "tok1", User: &models.User{ID: "1", Name: "A", Email: "a@b.com"}}
)

func TestProtected(t *testing.T) {
	assert.Equal(t, Decision{Outcome: Loading}, Protected(loading))
	assert.Equal(t, Decision{Outcome: Redirect, Target: LoginPath}, Protected(signedOut))
	assert.Equal(t, Decision{Outcome: Render}, Protected(signedIn))

	t.Run("half set session is not authenticated", func(t *testing.T) {
		assert.Equal(t, Decision{Outcome: Redirect, Target: LoginPath}, Protected(session.Snapshot{Token: "tok1"}))
	})

	t.Run("loading wins over a held session", func(t *testing.T) {
		s := signedIn
		s.Loading = true
		assert.Equal(t, Decision{Outcome: Loading}, Protected(s))
	})
}

func TestPublic(t *testing.T) {
	assert.Equal(t, Decision{Outcome: Loading}, Public(loading))
	assert.Equal(t, Decision{Outcome: Render}, Public(signedOut))
	assert.Equal(t, Decision{Outcome: Redirect, Target: LandingPath}, Public(signedIn))
}

func TestMatch(t *testing.T) {
	r, params, ok := Match("/analysis/42")
	require.True(t, ok)
	assert.Equal(t, "/analysis/:id", r.Pattern)
	assert.Equal(t, map[string]string{"id": "42"}, params)

	r, _, ok = Match("/reports/")
	require.True(t, ok)
	assert.Equal(t, "/reports", r.Pattern)

	_, _, ok = Match("/analysis/42/extra")
	assert.False(t, ok)

	_, _, ok = Match("/")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		path  string
		state session.Snapshot
		want  Decision
	}{
		{"/", signedIn, Decision{Outcome: Redirect, Target: LandingPath}},
		{"/nowhere", signedOut, Decision{Outcome: Redirect, Target: LandingPath}},
		{"/login", signedIn, Decision{Outcome: Redirect, Target: LandingPath}},
		{"/login", signedOut, Decision{Outcome: Render}},
		{"/register", loading, Decision{Outcome: Loading}},
		{"/profile", signedOut, Decision{Outcome: Redirect, Target: LoginPath}},
		{"/analysis/7", signedIn, Decision{Outcome: Render}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.path, tt.state))
		})
	}
}

func TestFollow(t *testing.T) {
	path, d := Follow("/", signedOut)
	assert.Equal(t, LoginPath, path)
	assert.Equal(t, Render, d.Outcome)

	path, d = Follow("/login", signedIn)
	assert.Equal(t, LandingPath, path)
	assert.Equal(t, Render, d.Outcome)

	path, d = Follow("/reports", loading)
	assert.Equal(t, "/reports", path)
	assert.Equal(t, Loading, d.Outcome)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "render", Render.String())
	assert.Equal(t, "redirect", Redirect.String())
}
