package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/and161185/userdir/internal/errs"
	"github.com/and161185/userdir/internal/model"
)

// errUsage marks a missing or malformed flag; main exits with status 2.
var errUsage = errors.New("usage")

type directory interface {
	View(st model.ViewState) (model.View, error)
	Users() []model.User
	Submit(ctx context.Context, d *model.Draft) (model.User, error)
	Delete(ctx context.Context, id int) error
	Reset(ctx context.Context) error
	Init(ctx context.Context) error
	Status() model.Status
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

func need(stderr io.Writer, msg string) error {
	fmt.Fprintln(stderr, msg)
	return errUsage
}

func cmdList(dir directory, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("list", stderr)
	filter := fs.String("filter", "", "first name contains (case-insensitive)")
	page := fs.Int("page", 1, "page number, starting at 1")
	size := fs.Int("size", model.DefaultPageSize, "page size (5, 10 or 25)")
	if err := parse(fs, args); err != nil {
		return err
	}

	st := model.NewViewState()
	st.SetFilter(*filter)
	if !st.SetPageSize(*size) {
		return need(stderr, "-size must be one of 5, 10, 25")
	}
	if *page < 1 {
		return need(stderr, "-page must be at least 1")
	}
	st.SetPage(*page - 1)

	v, err := dir.View(st)
	if err != nil {
		return err
	}
	renderView(stdout, v)
	return nil
}

func renderView(w io.Writer, v model.View) {
	if v.Total == 0 {
		fmt.Fprintln(w, "no users")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFIRST NAME\tLAST NAME\tEMAIL\tDEPARTMENT")
	for _, u := range v.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.FirstName, u.LastName, u.Email, u.Department)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "page %d/%d (%d users)\n", v.Page+1, v.Pages, v.Total)
}

func cmdAdd(ctx context.Context, dir directory, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("add", stderr)
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	email := fs.String("email", "", "email")
	dept := fs.String("dept", "", "department (default Unknown)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *first == "" || *last == "" || *email == "" {
		return need(stderr, "need -first -last -email")
	}

	draft := model.NewDraft()
	draft.FirstName, draft.LastName, draft.Email, draft.Department = *first, *last, *email, *dept
	u, err := dir.Submit(ctx, draft)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "added %d\n", u.ID)
	return nil
}

func cmdEdit(ctx context.Context, dir directory, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("edit", stderr)
	id := fs.Int("id", 0, "user id")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	email := fs.String("email", "", "email")
	dept := fs.String("dept", "", "department")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		return need(stderr, "need -id")
	}

	var draft *model.Draft
	for _, u := range dir.Users() {
		if u.ID == *id {
			draft = model.EditDraft(u)
			break
		}
	}
	if draft == nil {
		return errs.ErrNotFound
	}
	// only the flags given change
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "first":
			draft.FirstName = *first
		case "last":
			draft.LastName = *last
		case "email":
			draft.Email = *email
		case "dept":
			draft.Department = *dept
		}
	})
	u, err := dir.Submit(ctx, draft)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "updated %d\n", u.ID)
	return nil
}

func cmdRemove(ctx context.Context, dir directory, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("rm", stderr)
	id := fs.Int("id", 0, "user id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		return need(stderr, "need -id")
	}
	if err := dir.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "deleted %d\n", *id)
	return nil
}

func cmdReset(ctx context.Context, dir directory, stdout io.Writer) error {
	if err := dir.Reset(ctx); err != nil {
		return err
	}
	if err := dir.Init(ctx); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "reloaded %d users\n", dir.Status().Count)
	return nil
}
