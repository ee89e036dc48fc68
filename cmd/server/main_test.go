package main

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueToken_RequiresSigningSecret(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("JWT_SECRET_KEY", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"issue-token", "--user-id", uuid.NewString()})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET_KEY")
	assert.Empty(t, out.String())
}
