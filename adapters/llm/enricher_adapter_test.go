package llm

import (
	"context"
	"testing"

	"vizgo/domain/core"
	"vizgo/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichAnnotatesCopy(t *testing.T) {
	srv := jsonServer(t, `{"dataset_description": "Fuel economy of cars", "fields": [{"column": "mpg", "description": "Miles per gallon", "semantic_type": "Amount"}]}`)
	usage := &usageLog{}
	en, err := NewEnricherAdapter(testConfig(srv.URL), usage)
	require.NoError(t, err)

	in := profile()
	out, err := en.Enrich(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "Fuel economy of cars", out.DatasetDescription)
	mpg, _ := out.Field("mpg")
	assert.Equal(t, "Miles per gallon", mpg.Properties.Description)
	assert.Equal(t, "amount", mpg.Properties.SemanticType)
	origin, _ := out.Field("origin")
	assert.Empty(t, origin.Properties.Description)

	// the input profile is untouched
	assert.Empty(t, in.DatasetDescription)
	inMpg, _ := in.Field("mpg")
	assert.Empty(t, inMpg.Properties.Description)
	assert.Equal(t, []string{models.OpProfileEnrichment}, usage.ops)
}

func TestEnrichMalformed(t *testing.T) {
	en, err := NewEnricherAdapter(testConfig(jsonServer(t, "no").URL), nil)
	require.NoError(t, err)
	_, err = en.Enrich(context.Background(), profile())
	assert.ErrorIs(t, err, core.ErrMalformedReply)

	_, err = en.Enrich(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrNoDataset)
}

func TestApplyEnrichmentNil(t *testing.T) {
	out := ApplyEnrichment(profile(), nil)
	assert.Equal(t, profile(), out)
}
