package errors_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/dot-do/iceberg-sub003/pkg/errors"
)

func TestCodeValidation(t *testing.T) {
	_, err := pkgerrors.NewCode("Catalog.NotFound")
	assert.Error(t, err)

	code, err := pkgerrors.NewCode("catalog.not_found")
	require.NoError(t, err)
	assert.Equal(t, "catalog", code.Package())
	assert.Equal(t, "not_found", code.Name())
}

func TestErrorUnwrapAndChaining(t *testing.T) {
	cause := assert.AnError
	err := pkgerrors.Wrap(pkgerrors.CommonConflict, pkgerrors.KindConflict, "commit failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, pkgerrors.IsConflict(err))
	assert.False(t, pkgerrors.IsNotFound(err))
}

func TestErrorContextAndEntity(t *testing.T) {
	err := pkgerrors.New(pkgerrors.CommonNotFound, pkgerrors.KindNotFound, "table missing").
		WithEntity("table", "db.orders").
		AddContext("attempt", 3)

	assert.Contains(t, err.Error(), "table \"db.orders\"")
	assert.Contains(t, err.Error(), "attempt=3")
	assert.Equal(t, 3, err.GetContext("attempt"))
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestIsMatchesThroughWrapping(t *testing.T) {
	inner := pkgerrors.New(pkgerrors.CommonValidation, pkgerrors.KindValidation, "bad field")
	outer := pkgerrors.Wrap(pkgerrors.CommonInternal, pkgerrors.KindInternal, "commit rejected", inner)
	assert.True(t, pkgerrors.Is(outer, pkgerrors.CommonValidation))
	assert.True(t, pkgerrors.Is(outer, pkgerrors.CommonInternal))
	assert.False(t, pkgerrors.Is(outer, pkgerrors.CommonConflict))
}
