package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"expenso/internal/auth"
	"expenso/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CreatesUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "users.db")
	var stdout, stderr bytes.Buffer

	err := run([]string{"-user", "alice", "-password", "password123", "-db", dbPath}, new(bytes.Buffer), &stdout, &stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Created user alice")

	repo, err := storage.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	defer repo.Close()
	u, err := repo.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword("password123", u.PasswordHash))
}

func TestRun_DuplicateUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "users.db")
	args := []string{"-user", "alice", "-password", "password123", "-db", dbPath}

	require.NoError(t, run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer)))
	err := run(args, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRun_MissingUser(t *testing.T) {
	var stdout bytes.Buffer
	err := run([]string{"-password", "password123"}, new(bytes.Buffer), &stdout, new(bytes.Buffer))
	require.Error(t, err)
	assert.Contains(t, stdout.String(), "Usage:")
}

func TestRun_ShortPassword(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "users.db")
	err := run([]string{"-user", "bob", "-password", "short", "-db", dbPath}, new(bytes.Buffer), new(bytes.Buffer), new(bytes.Buffer))
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
}

func TestRun_PromptsForPassword(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "users.db")
	var stdout bytes.Buffer

	err := run([]string{"-user", "carol", "-db", dbPath}, bytes.NewBufferString("prompted-secret\n"), &stdout, new(bytes.Buffer))
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Password: ")
	assert.Contains(t, stdout.String(), "Created user carol")
}
