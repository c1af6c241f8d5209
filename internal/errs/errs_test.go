package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestReason_UnwrapsToKind(t *testing.T) {
	err := Reason(ErrPrecondition, "product %q has no stock", "cola")
	assert.True(t, errors.Is(err, ErrPrecondition))
	assert.Equal(t, `product "cola" has no stock`, err.Error())
}

func TestFromDB(t *testing.T) {
	assert.NoError(t, FromDB(nil, "x"))

	err := FromDB(gorm.ErrRecordNotFound, "Product not found")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Product not found", err.Error())

	assert.ErrorIs(t, FromDB(gorm.ErrDuplicatedKey, "x"), ErrConflict)
	assert.ErrorIs(t, FromDB(errors.New("dial tcp: refused"), "x"), ErrUnavailable)
}

func TestIsUserFacing(t *testing.T) {
	assert.True(t, IsUserFacing(Reason(ErrNotFound, "Product not found")))
	assert.True(t, IsUserFacing(Reason(ErrPrecondition, "Insufficient stock for Cola")))
	assert.False(t, IsUserFacing(FromDB(errors.New("disk I/O error"), "")))
	assert.False(t, IsUserFacing(errors.New("boom")))
}
