package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-review-be/pkg/store"
)

func TestNext(t *testing.T) {
	ready := Facts{DraftReady: true}
	tests := []struct {
		name    string
		from    store.Stage
		event   string
		facts   Facts
		want    store.Stage
		wantErr bool
	}{
		{"begin", store.StageStart, EventBegin, Facts{}, store.StageQnA, false},
		{"sufficient", store.StageQnA, EventSufficient, Facts{}, store.StageCompose, false},
		{"composed", store.StageCompose, EventComposed, ready, store.StageConfirm, false},
		{"composed without draft", store.StageCompose, EventComposed, Facts{}, store.StageCompose, true},
		{"compose failed", store.StageCompose, EventComposeFailed, Facts{}, store.StageQnA, false},
		{"submitted", store.StageConfirm, EventSubmitted, ready, store.StageDone, false},
		{"exit from qna", store.StageQnA, EventExit, Facts{}, store.StageDone, false},
		{"exit from confirm", store.StageConfirm, EventExit, ready, store.StageDone, false},
		{"reset from done", store.StageDone, EventReset, Facts{}, store.StageStart, false},
		{"reset from start", store.StageStart, EventReset, Facts{}, store.StageStart, false},
		{"no skipping to confirm", store.StageQnA, EventComposed, ready, store.StageQnA, true},
		{"no backward from confirm", store.StageConfirm, EventComposeFailed, ready, store.StageConfirm, true},
		{"done is terminal", store.StageDone, EventBegin, Facts{}, store.StageDone, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.from, tt.event, tt.facts)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMachine_FullPath(t *testing.T) {
	m, err := New(store.StageStart, Facts{DraftReady: true})
	require.NoError(t, err)

	for _, ev := range []string{EventBegin, EventSufficient, EventComposed, EventSubmitted} {
		require.NoError(t, m.Fire(ev), ev)
	}
	assert.Equal(t, store.StageDone, m.Current())
}

func TestStateIDsMatchStoreStages(t *testing.T) {
	tests := []struct {
		state string
		stage store.Stage
	}{
		{StateStart, store.StageStart},
		{StateQnA, store.StageQnA},
		{StateCompose, store.StageCompose},
		{StateConfirm, store.StageConfirm},
		{StateDone, store.StageDone},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			assert.Equal(t, string(tt.stage), tt.state)
		})
	}
}
