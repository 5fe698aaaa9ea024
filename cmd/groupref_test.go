package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commitlens/pkg/models"
)

func refGroups() []*models.CommitGroup {
	return []*models.CommitGroup{
		{ID: "a1b2c3d4", Name: "auth"},
		{ID: "a1ffee00", Name: "docs"},
		{ID: "99887766", Name: "Auth-Tests"},
	}
}

func TestResolveGroupRef(t *testing.T) {
	groups := refGroups()

	g, err := ResolveGroupRef(groups, "a1b2c3d4")
	require.NoError(t, err)
	assert.Equal(t, "auth", g.Name)

	g, err = ResolveGroupRef(groups, "99")
	require.NoError(t, err)
	assert.Equal(t, "Auth-Tests", g.Name)

	g, err = ResolveGroupRef(groups, "docs")
	require.NoError(t, err)
	assert.Equal(t, "a1ffee00", g.ID)

	g, err = ResolveGroupRef(groups, "auth-tests")
	require.NoError(t, err)
	assert.Equal(t, "99887766", g.ID)
}

func TestResolveGroupRefErrors(t *testing.T) {
	groups := refGroups()

	_, err := ResolveGroupRef(groups, "a1")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = ResolveGroupRef(groups, "nothing")
	assert.ErrorContains(t, err, "no group matches")

	_, err = ResolveGroupRef(groups, "  ")
	assert.ErrorContains(t, err, "empty")
}
