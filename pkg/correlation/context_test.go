package correlation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithID(t *testing.T) {
	ctx := WithID(context.Background(), "corr-1")
	assert.Equal(t, "corr-1", FromContext(ctx))

	// an empty id is replaced with a generated one
	minted := WithID(context.Background(), "")
	assert.NotEmpty(t, FromContext(minted))
}

func TestFromContext_Missing(t *testing.T) {
	assert.Empty(t, FromContext(context.Background()))
}

func TestEnsure(t *testing.T) {
	ctx := Ensure(context.Background())
	id := FromContext(ctx)
	assert.NotEmpty(t, id)

	// an existing id is preserved
	again := Ensure(ctx)
	assert.Equal(t, id, FromContext(again))
}
