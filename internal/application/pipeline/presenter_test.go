package pipeline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storeport/migrator/internal/domain/migration"
)

func TestPlanPresenter_InteractiveApproval(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		approved bool
	}{
		{"yes short", "y\n", true},
		{"yes long", "yes\n", true},
		{"uppercase", "Y\n", true},
		{"no", "n\n", false},
		{"empty defaults to no", "\n", false},
		{"eof defaults to no", "", false},
		{"garbage", "maybe\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			presenter := NewPlanPresenter(&out, strings.NewReader(tt.answer), zap.NewNop())

			approved, err := presenter.Present(migration.EntityKindProduct,
				[]string{"NAME", "AMOUNT"},
				[][]string{{"Basic", "999"}})

			require.NoError(t, err)
			assert.Equal(t, tt.approved, approved)
		})
	}
}

func TestPlanPresenter_RendersEveryRow(t *testing.T) {
	var out bytes.Buffer
	presenter := NewPolicyPresenter(&out, true, zap.NewNop())

	approved, err := presenter.Present(migration.EntityKindProduct,
		[]string{"NAME", "AMOUNT", "CURRENCY"},
		[][]string{
			{"Basic", "999", "USD"},
			{"Pro", "1999", "USD"},
		})

	require.NoError(t, err)
	assert.True(t, approved)
	rendered := out.String()
	assert.Contains(t, rendered, "Planned product records (2)")
	assert.Contains(t, rendered, "Basic")
	assert.Contains(t, rendered, "Pro")
	assert.Contains(t, rendered, "NAME")
}

func TestPlanPresenter_PolicyDeny(t *testing.T) {
	var out bytes.Buffer
	presenter := NewPolicyPresenter(&out, false, zap.NewNop())

	approved, err := presenter.Present(migration.EntityKindCustomer, []string{"EMAIL"}, nil)

	require.NoError(t, err)
	assert.False(t, approved)
}

func TestPlanPresenter_Summary(t *testing.T) {
	var out bytes.Buffer
	presenter := NewPolicyPresenter(&out, true, zap.NewNop())

	outcomes := []*migration.Outcome{
		{Kind: migration.EntityKindProduct, Attempted: 3, Succeeded: 2, Failed: 1,
			Failures: []migration.Failure{{ItemID: "p2", Message: "invalid price"}}},
		{Kind: migration.EntityKindCustomer, Attempted: 1, Succeeded: 1},
	}
	drops := map[migration.EntityKind][]migration.Drop{
		migration.EntityKindProduct: {{ItemID: "p9", Reason: "no active price"}},
	}

	err := presenter.Summary(outcomes, drops)

	require.NoError(t, err)
	rendered := out.String()
	assert.Contains(t, rendered, "Migration summary")
	assert.Contains(t, rendered, "failed product p2: invalid price")
	assert.Contains(t, rendered, "dropped product p9: no active price")
	assert.Contains(t, rendered, "customer")
}
