package githubdocs

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"github.com/google/go-github/v81/github"
)

// Doc is one course document fetched from the remote repository.
type Doc struct {
	Path    string // path relative to the corpus root
	Content string
	SHA     string // git blob SHA
	URL     string // raw content URL
}

// Fetcher reads course documents from one directory of one GitHub
// repository.
type Fetcher struct {
	client   *Client
	owner    string
	repo     string
	basePath string
}

// NewFetcher creates a fetcher for the corpus under basePath in
// owner/repo.
func NewFetcher(client *Client, owner, repo, basePath string) *Fetcher {
	return &Fetcher{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
	}
}

// ListDocs returns the relative paths of every course document under
// the corpus root, including subdirectories.
func (f *Fetcher) ListDocs(ctx context.Context) ([]string, error) {
	return f.listDocs(ctx, f.basePath, "")
}

func (f *Fetcher) listDocs(ctx context.Context, fullPath, relPath string) ([]string, error) {
	_, entries, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", fullPath, err)
	}

	var docs []string
	for _, entry := range entries {
		if entry.Type == nil || entry.Name == nil {
			continue
		}
		entryRelPath := path.Join(relPath, *entry.Name)

		switch *entry.Type {
		case "file":
			if isCourseDoc(*entry.Name) {
				docs = append(docs, entryRelPath)
			}
		case "dir":
			subDocs, err := f.listDocs(ctx, path.Join(fullPath, *entry.Name), entryRelPath)
			if err != nil {
				return nil, err
			}
			docs = append(docs, subDocs...)
		}
	}
	return docs, nil
}

// FetchDoc fetches one course document by its relative path.
func (f *Fetcher) FetchDoc(ctx context.Context, relativePath string) (*Doc, error) {
	fullPath := path.Join(f.basePath, relativePath)

	fileContent, _, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, fullPath, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", fullPath, err)
	}
	if fileContent == nil {
		return nil, fmt.Errorf("fetch %s: no file content returned", fullPath)
	}

	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", fullPath, err)
	}

	return &Doc{
		Path:    relativePath,
		Content: string(content),
		SHA:     *fileContent.SHA,
		URL:     fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/main/%s", f.owner, f.repo, fullPath),
	}, nil
}

// LatestCommitSHA returns the SHA of the most recent commit touching
// the corpus directory.
func (f *Fetcher) LatestCommitSHA(ctx context.Context) (string, error) {
	commits, _, err := f.client.Repositories.ListCommits(ctx, f.owner, f.repo, &github.CommitsListOptions{
		Path:        f.basePath,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return "", fmt.Errorf("list commits for %s: %w", f.basePath, err)
	}
	if len(commits) == 0 {
		return "", fmt.Errorf("no commits found for path %s", f.basePath)
	}
	if commits[0].SHA == nil {
		return "", fmt.Errorf("commit SHA is nil")
	}
	return *commits[0].SHA, nil
}

// isCourseDoc mirrors the extensions the local loader accepts.
func isCourseDoc(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".txt", ".md", ".markdown":
		return true
	}
	return false
}
