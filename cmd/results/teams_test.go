package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/dota2-results/internal/domain/match"
	"github.com/riskibarqy/dota2-results/internal/usecase"
)

type pagedTeams struct {
	pages   [][]match.TeamInfo
	startAt []int64
	err     error
}

func (p *pagedTeams) ListTeams(_ context.Context, startAt int64) ([]match.TeamInfo, error) {
	p.startAt = append(p.startAt, startAt)
	if p.err != nil {
		return nil, p.err
	}
	if len(p.pages) == 0 {
		return nil, nil
	}
	page := p.pages[0]
	p.pages = p.pages[1:]
	return page, nil
}

func TestPrintTeams_PagesUntilEmpty(t *testing.T) {
	lister := &pagedTeams{pages: [][]match.TeamInfo{
		{{ID: 900000001, Tag: "AA", Name: "Aa"}, {ID: 900000005, Tag: "BB", Name: "Bb"}},
		{{ID: 900000010, Tag: "CC", Name: "Cc"}},
	}}
	handles := usecase.NewTeamHandles(map[int64]string{900000005: "@bbdota"})

	var out bytes.Buffer
	n, err := printTeams(context.Background(), lister, handles, &out, 900000000, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []int64{900000000, 900000006, 900000011}, lister.startAt)
	assert.Equal(t, "900000001\tAA\tAa\n900000005\tBB\tBb\t@bbdota\n900000010\tCC\tCc\n", out.String())
}

func TestPrintTeams_MaxPages(t *testing.T) {
	lister := &pagedTeams{pages: [][]match.TeamInfo{
		{{ID: 900000001, Tag: "AA", Name: "Aa"}},
		{{ID: 900000002, Tag: "BB", Name: "Bb"}},
	}}

	var out bytes.Buffer
	n, err := printTeams(context.Background(), lister, usecase.NewTeamHandles(nil), &out, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, lister.startAt, 1)
}

func TestPrintTeams_ProviderError(t *testing.T) {
	lister := &pagedTeams{err: errors.New("steam unavailable")}

	var out bytes.Buffer
	_, err := printTeams(context.Background(), lister, usecase.NewTeamHandles(nil), &out, 0, 0)
	require.Error(t, err)
	assert.Empty(t, out.String())
}

func TestResolveMode(t *testing.T) {
	mode, err := resolveMode(false, false)
	require.NoError(t, err)
	assert.Equal(t, usecase.ModeLive, mode)

	mode, err = resolveMode(true, false)
	require.NoError(t, err)
	assert.Equal(t, usecase.ModeDemo, mode)

	mode, err = resolveMode(false, true)
	require.NoError(t, err)
	assert.Equal(t, usecase.ModeSilent, mode)

	_, err = resolveMode(true, true)
	assert.Error(t, err)
}
