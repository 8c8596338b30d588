package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_NotACard(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"plain text", "hello world"},
		{"empty body", ""},
		{"json without marker", `{"type":"permission","question":"ok?"}`},
		{"unrecognized marker version", `{"xnotid_card":"v2","type":"permission","question":"ok?"}`},
		{"json array", `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse(tt.body)
			require.NoError(t, err)
			assert.Nil(t, c)
		})
	}
}

func TestParse_MultipleChoice(t *testing.T) {
	body := `{"xnotid_card":"v1","type":"multiple-choice","question":"Pick one","choices":[{"id":"a","label":"Alpha"},{"id":"b","label":"Beta"}],"allow_other":true}`

	c, err := Parse(body)
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, TypeMultipleChoice, c.Type)
	assert.Equal(t, "Pick one", c.Question)
	assert.True(t, c.AllowOther)
	require.Len(t, c.Choices, 2)
	assert.Equal(t, Choice{ID: "a", Label: "Alpha"}, c.Choices[0])
	assert.Equal(t, Choice{ID: "b", Label: "Beta"}, c.Choices[1])
}

func TestParse_Permission(t *testing.T) {
	c, err := Parse(`{"xnotid_card":"v1","type":"permission","question":"Share location?"}`)
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, TypePermission, c.Type)
	assert.Equal(t, "Share location?", c.Question)
	assert.Equal(t, DefaultAllowLabel, c.AllowLabel)
}

func TestParse_PermissionCustomLabel(t *testing.T) {
	c, err := Parse(`{"xnotid_card":"v1","type":"permission","question":"Record audio?","allow_label":"Go ahead"}`)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Go ahead", c.AllowLabel)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown type", `{"xnotid_card":"v1","type":"survey","question":"?"}`},
		{"missing type", `{"xnotid_card":"v1","question":"?"}`},
		{"mc missing question", `{"xnotid_card":"v1","type":"multiple-choice","choices":[{"id":"a","label":"A"}]}`},
		{"mc no choices", `{"xnotid_card":"v1","type":"multiple-choice","question":"?"}`},
		{"mc duplicate choice ids", `{"xnotid_card":"v1","type":"multiple-choice","question":"?","choices":[{"id":"a","label":"A"},{"id":"a","label":"B"}]}`},
		{"mc empty choice id", `{"xnotid_card":"v1","type":"multiple-choice","question":"?","choices":[{"id":"","label":"A"}]}`},
		{"permission missing question", `{"xnotid_card":"v1","type":"permission"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse(tt.body)
			assert.Nil(t, c)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestActions(t *testing.T) {
	mc := &Card{
		Type:     TypeMultipleChoice,
		Question: "Pick",
		Choices:  []Choice{{ID: "x", Label: "X"}, {ID: "y", Label: "Y"}},
	}
	actions := mc.Actions()
	require.Len(t, actions, 2)
	assert.Equal(t, "x", actions[0].ID)

	perm := &Card{Type: TypePermission, Question: "OK?", AllowLabel: "Sure"}
	actions = perm.Actions()
	require.Len(t, actions, 1)
	assert.Equal(t, "allow", actions[0].ID)
	assert.Equal(t, "Sure", actions[0].Label)
}

func TestEncodeBody_RoundTrip(t *testing.T) {
	orig := &Card{
		Type:       TypeMultipleChoice,
		Question:   "Deploy to prod?",
		Choices:    []Choice{{ID: "yes", Label: "Yes"}, {ID: "no", Label: "No"}},
		AllowOther: false,
	}

	body, err := orig.EncodeBody()
	require.NoError(t, err)

	parsed, err := Parse(body)
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.Equal(t, orig.Question, parsed.Question)
	assert.Equal(t, orig.Choices, parsed.Choices)
}

func TestClone_Independent(t *testing.T) {
	orig := &Card{
		Type:     TypeMultipleChoice,
		Question: "Pick",
		Choices:  []Choice{{ID: "a", Label: "A"}},
	}
	clone := orig.Clone()
	clone.Choices[0].Label = "mutated"
	assert.Equal(t, "A", orig.Choices[0].Label)
}
