package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsSentinel(t *testing.T) {
	err := Wrapf(ErrFilter, "property %q", "fileSize")
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "fileSize")
	assert.True(t, Is(err, ErrFilter))
	assert.False(t, Is(err, ErrItemID))
}

func TestMarkClassifiesForeignError(t *testing.T) {
	storeErr := New("syntax error at line 1")
	err := Mark(storeErr, ErrQueryExecution)

	assert.Equal(t, "syntax error at line 1", err.Error())
	assert.Equal(t, QueryExecutionError, CodeOf(err))
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, NoError},
		{"item id", Wrap(ErrItemID, "bad prefix"), ItemIDError},
		{"item type", Wrapf(ErrItemType, "%s", "Spaceship"), ItemTypeError},
		{"filter", ErrFilter, FilterError},
		{"connection", Wrap(ErrConnection, "closed"), ConnectionError},
		{"execution", Mark(New("boom"), ErrQueryExecution), QueryExecutionError},
		{"other", New("other"), UnknownError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "ItemIdError", ItemIDError.String())
	assert.Equal(t, "NoError", NoError.String())
	assert.Equal(t, "UnknownError", Code(99).String())
}

func TestNotFound(t *testing.T) {
	err := NewNotFoundError("saved query %s", "abc")
	assert.True(t, IsNotFoundError(err))
	assert.Contains(t, err.Error(), "saved query abc")
	assert.False(t, IsNotFoundError(nil))
}
