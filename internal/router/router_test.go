package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
)

func TestSelectDefaultsToAnalystWhenNoCueMatches(t *testing.T) {
	sel := Select("hello there")
	assert.Equal(t, []domain.WorkerID{domain.WorkerAnalyst}, sel.SelectedWorkers)
	assert.Equal(t, domain.TaskAnalyze, sel.TaskKind)
	assert.False(t, sel.UseRedactor)
}

func TestSelectSingleCueMapsToMatchingTaskKind(t *testing.T) {
	sel := Select("what's the latest news today")
	assert.Equal(t, []domain.WorkerID{domain.WorkerSearch}, sel.SelectedWorkers)
	assert.Equal(t, domain.TaskSearch, sel.TaskKind)
}

func TestSelectMultipleCuesComposeInCanonicalOrder(t *testing.T) {
	sel := Select("analyze the latest news out of sudan and plot a chart")
	assert.Equal(t, []domain.WorkerID{
		domain.WorkerAnalyst, domain.WorkerGeo, domain.WorkerSearch, domain.WorkerCode,
	}, sel.SelectedWorkers)
	assert.Equal(t, domain.TaskCompound, sel.TaskKind)
}

func TestSelectOrderIsStableRegardlessOfTextOrder(t *testing.T) {
	a := Select("plot a chart then analyze trends in sudan today")
	b := Select("today in sudan, analyze trends, then plot a chart")
	assert.Equal(t, a.SelectedWorkers, b.SelectedWorkers)
}

func TestSelectDetectsRedactorCueIndependentlyOfWorkerSelection(t *testing.T) {
	sel := Select("give me an executive summary of the situation in mali")
	assert.True(t, sel.UseRedactor)
	assert.Contains(t, sel.SelectedWorkers, domain.WorkerGeo)
	assert.NotContains(t, sel.SelectedWorkers, domain.WorkerRedactor)
}
