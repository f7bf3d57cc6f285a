package middlewares

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteMatcher_IsProtected(t *testing.T) {
	m, err := NewRouteMatcher(DefaultProtectedRoutes, "/sign-in(.*)", "/sign-up(.*)")
	require.NoError(t, err)

	tests := []struct {
		path      string
		protected bool
	}{
		{"/", true},
		{"/dashboard", true},
		{"/dashboard/reports/2026", true},
		{"/expenses", true},
		{"/expenses/new", true},
		{"/sign-in", false},
		{"/sign-in/factor-one", false},
		{"/sign-up", false},
		{"/about", false},
		{"/api/me", false},
		{"/static/app.css", false},
		{"/expenses/export.csv", false},
		{"/dashboard/logo.PNG", false},
		{"/expenses/data.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.protected, m.IsProtected(tt.path))
		})
	}
}

func TestRouteMatcher_PublicWinsOverCatchAll(t *testing.T) {
	m, err := NewRouteMatcher([]string{"/(.*)"}, "/sign-in(.*)")
	require.NoError(t, err)

	assert.True(t, m.IsProtected("/anything"))
	assert.False(t, m.IsProtected("/sign-in"), "sign-in must stay reachable to avoid a redirect loop")
}

func TestRouteMatcher_IsExcluded(t *testing.T) {
	m, err := NewRouteMatcher(DefaultProtectedRoutes)
	require.NoError(t, err)

	assert.True(t, m.IsExcluded("/static/app.css"))
	assert.True(t, m.IsExcluded("/swagger/index.html"))
	assert.True(t, m.IsExcluded("/favicon.ico"))
	assert.True(t, m.IsExcluded("/fonts/inter.woff2"))
	assert.False(t, m.IsExcluded("/"))
	assert.False(t, m.IsExcluded("/manifest.json"))
}

func TestNewRouteMatcher_InvalidPatterns(t *testing.T) {
	for _, pattern := range []string{"dashboard", "/dash(.*)board", "/expenses/*"} {
		_, err := NewRouteMatcher([]string{pattern})
		assert.Error(t, err, pattern)
	}
}
