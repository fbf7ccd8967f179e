package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

func TestRecordIDString(t *testing.T) {
	id := surrealmodels.RecordID{Table: "pattern", ID: "abc123"}

	s, err := RecordIDString(id)
	require.NoError(t, err)
	assert.Equal(t, "abc123", s)
}

func TestRecordIDStringNonString(t *testing.T) {
	id := surrealmodels.RecordID{Table: "pattern", ID: 42}

	_, err := RecordIDString(id)
	assert.Error(t, err)
}

func TestMustRecordIDStringPanics(t *testing.T) {
	id := surrealmodels.RecordID{Table: "pattern", ID: 42}

	assert.Panics(t, func() {
		MustRecordIDString(id)
	})
}
