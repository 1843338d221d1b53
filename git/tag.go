package git

import (
	"context"
	"errors"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
)

// MergedTag is a tag reachable from a ref.
type MergedTag struct {
	Name string

	// Hash is the commit the tag points at; annotated tags are peeled.
	Hash string
}

// MergedTags returns the tags whose commit is reachable from ref, sorted by name.
//
// Context timeout/cancellation is honored while walking history.
func (r *Repo) MergedTags(ctx context.Context, ref string) ([]MergedTag, error) {
	from, err := r.resolve(ref)
	if err != nil {
		return nil, err
	}

	reachable, err := r.ancestors(ctx, from)
	if err != nil {
		return nil, err
	}

	byCommit, err := r.tagsByCommit()
	if err != nil {
		return nil, err
	}

	var tags []MergedTag
	for hash, names := range byCommit {
		if _, ok := reachable[hash]; !ok {
			continue
		}
		for _, name := range names {
			tags = append(tags, MergedTag{Name: name, Hash: hash.String()})
		}
	}

	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })

	return tags, nil
}

// TagExists reports whether a local tag named name exists.
func (r *Repo) TagExists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, WrapError(ErrInvalidRef, "tag name cannot be empty")
	}

	_, err := r.repo.Reference(plumbing.NewTagReferenceName(name), false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, WrapError(err, "failed to read tag")
	}

	return true, nil
}

// CreateTag creates a lightweight tag at target.
// Returns ErrTagExists if the tag is already present.
func (r *Repo) CreateTag(ctx context.Context, name, target string) error {
	exists, err := r.TagExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return WrapErrorf(ErrTagExists, "tag %s", name)
	}

	hash, err := r.resolve(target)
	if err != nil {
		return err
	}

	ref := plumbing.NewHashReference(plumbing.NewTagReferenceName(name), hash)
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return WrapError(err, "failed to create tag")
	}

	return nil
}

// DeleteTag deletes a local tag.
// Returns ErrTagMissing if the tag does not exist.
func (r *Repo) DeleteTag(ctx context.Context, name string) error {
	exists, err := r.TagExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return WrapErrorf(ErrTagMissing, "tag %s", name)
	}

	if err := r.repo.Storer.RemoveReference(plumbing.NewTagReferenceName(name)); err != nil {
		return WrapError(err, "failed to delete tag")
	}

	return nil
}
