package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/and161185/userdir/internal/cache"
	"github.com/and161185/userdir/internal/errs"
	"github.com/and161185/userdir/internal/model"
	"github.com/and161185/userdir/internal/remote"
	"github.com/and161185/userdir/internal/repository/file"
	"github.com/and161185/userdir/internal/service"
)

type stubSeeder struct{ users []remote.User }

func (s stubSeeder) FetchUsers(context.Context) ([]remote.User, error) { return s.users, nil }
func (stubSeeder) Mirror(context.Context, model.User) error            { return nil }

func newDir(t *testing.T, n int) (*service.Directory, string) {
	t.Helper()
	users := make([]remote.User, n)
	for i := range users {
		users[i] = remote.User{ID: i + 1, Name: "User" + string(rune('A'+i)) + " Tester", Email: "u@x.io"}
	}
	path := filepath.Join(t.TempDir(), "users.json")
	dir := service.NewDirectory(stubSeeder{users: users}, cache.New(file.New(path)), zap.NewNop(), nil, service.Options{})
	require.NoError(t, dir.Init(context.Background()))
	return dir, path
}

func TestList_TableAndFooter(t *testing.T) {
	dir, _ := newDir(t, 12)
	var out, errOut bytes.Buffer

	require.NoError(t, cmdList(dir, []string{"-page", "3"}, &out, &errOut))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4, out.String())
	require.True(t, strings.HasPrefix(lines[0], "ID  FIRST NAME"))
	require.Contains(t, lines[1], "UserK")
	require.Contains(t, lines[1], model.UnknownDepartment)
	require.Equal(t, "page 3/3 (12 users)", lines[3])
}

func TestList_FilterAndEmpty(t *testing.T) {
	dir, _ := newDir(t, 3)
	var out bytes.Buffer
	require.NoError(t, cmdList(dir, []string{"-filter", "userb"}, &out, &bytes.Buffer{}))
	require.Contains(t, out.String(), "UserB")
	require.NotContains(t, out.String(), "UserA")
	require.Contains(t, out.String(), "page 1/1 (1 users)")

	out.Reset()
	require.NoError(t, cmdList(dir, []string{"-filter", "zzz"}, &out, &bytes.Buffer{}))
	require.Equal(t, "no users\n", out.String())
}

func TestList_BadFlags(t *testing.T) {
	dir, _ := newDir(t, 1)
	for _, args := range [][]string{{"-size", "7"}, {"-page", "0"}, {"-nope"}} {
		err := cmdList(dir, args, &bytes.Buffer{}, &bytes.Buffer{})
		require.ErrorIs(t, err, errUsage, args)
		require.Equal(t, 2, exitCode(err, &bytes.Buffer{}))
	}
}

func TestAddEditRemove(t *testing.T) {
	dir, path := newDir(t, 2)
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, cmdAdd(ctx, dir, []string{"-first", "Ann", "-last", "Lee", "-email", "ann@x.io"}, &out, &bytes.Buffer{}))
	require.Equal(t, "added 3\n", out.String())

	out.Reset()
	require.NoError(t, cmdEdit(ctx, dir, []string{"-id", "3", "-dept", "Ops"}, &out, &bytes.Buffer{}))
	require.Equal(t, "updated 3\n", out.String())
	got := dir.Users()[2]
	require.Equal(t, model.User{ID: 3, FirstName: "Ann", LastName: "Lee", Email: "ann@x.io", Department: "Ops"}, got)

	out.Reset()
	require.NoError(t, cmdRemove(ctx, dir, []string{"-id", "1"}, &out, &bytes.Buffer{}))
	require.Equal(t, "deleted 1\n", out.String())

	snap, _, err := cache.New(file.New(path)).Load(ctx)
	require.NoError(t, err)
	require.Equal(t, dir.Users(), snap.Users)
}

func TestAddEdit_MissingFlags(t *testing.T) {
	dir, _ := newDir(t, 1)
	ctx := context.Background()
	var errOut bytes.Buffer

	err := cmdAdd(ctx, dir, []string{"-first", "Ann"}, &bytes.Buffer{}, &errOut)
	require.ErrorIs(t, err, errUsage)
	require.Contains(t, errOut.String(), "need -first -last -email")

	require.ErrorIs(t, cmdEdit(ctx, dir, nil, &bytes.Buffer{}, &bytes.Buffer{}), errUsage)
	require.ErrorIs(t, cmdRemove(ctx, dir, []string{"-id", "x"}, &bytes.Buffer{}, &bytes.Buffer{}), errUsage)
}

func TestEdit_UnknownID(t *testing.T) {
	dir, _ := newDir(t, 1)
	err := cmdEdit(context.Background(), dir, []string{"-id", "9", "-first", "Z"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.ErrorIs(t, err, errs.ErrNotFound)

	var errOut bytes.Buffer
	require.Equal(t, 1, exitCode(err, &errOut))
	require.Contains(t, errOut.String(), "not found")
}

func TestReset_Reseeds(t *testing.T) {
	dir, _ := newDir(t, 2)
	ctx := context.Background()
	require.NoError(t, dir.Delete(ctx, 1))

	var out bytes.Buffer
	require.NoError(t, cmdReset(ctx, dir, &out))
	require.Equal(t, "reloaded 2 users\n", out.String())
	require.Len(t, dir.Users(), 2)
}

func TestExitCode(t *testing.T) {
	require.Equal(t, 0, exitCode(nil, &bytes.Buffer{}))
	require.Equal(t, 1, exitCode(errors.New("x"), &bytes.Buffer{}))
}
