// Package gitinfo stamps a run with the revision of the raw-source tree.
package gitinfo

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// Reader implements domain.GitInfo using go-git. The source root may be any
// directory inside a working tree.
type Reader struct{}

func New() *Reader {
	return &Reader{}
}

func open(path string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
}

func (g *Reader) IsGitRepo(path string) bool {
	_, err := open(path)
	return err == nil
}

// CommitHash returns the HEAD commit of the tree containing path, suffixed
// with "-dirty" when the working tree has uncommitted changes.
func (g *Reader) CommitHash(path string) (string, error) {
	repo, err := open(path)
	if err != nil {
		return "", fmt.Errorf("opening git repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD: %w", err)
	}
	hash := head.Hash().String()

	wt, err := repo.Worktree()
	if err != nil {
		return hash, nil
	}
	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("reading worktree status: %w", err)
	}
	if !status.IsClean() {
		hash += "-dirty"
	}
	return hash, nil
}
