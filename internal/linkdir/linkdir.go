// Package linkdir is the client of the remote links collection. Each
// operation maps to exactly one HTTP call; nothing is cached and nothing is
// mutated locally, so callers re-list after every change.
package linkdir

import (
	"context"
	"net/http"

	"github.com/patric-chuzhbe/linkkeeper/internal/apiclient"
	"github.com/patric-chuzhbe/linkkeeper/internal/models"
)

const (
	collectionPath = "/api/links"
	itemPath       = "/api/links/{id}"
)

type doer interface {
	Do(ctx context.Context, call apiclient.Call) error
}

// Directory performs CRUD calls against /api/links.
type Directory struct {
	api doer
}

func New(api doer) *Directory {
	return &Directory{api: api}
}

// List fetches every link visible to the current user.
func (d *Directory) List(ctx context.Context) ([]models.Link, error) {
	var links []models.Link
	err := d.api.Do(ctx, apiclient.Call{
		Method: http.MethodGet,
		Path:   collectionPath,
		Result: &links,
	})
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []models.Link{}
	}

	return links, nil
}

func (d *Directory) Get(ctx context.Context, id string) (models.Link, error) {
	var link models.Link
	err := d.api.Do(ctx, apiclient.Call{
		Method:     http.MethodGet,
		Path:       itemPath,
		PathParams: map[string]string{"id": id},
		Result:     &link,
	})
	if err != nil {
		return models.Link{}, err
	}

	return link, nil
}

func (d *Directory) Create(ctx context.Context, request models.LinkRequest) (models.Link, error) {
	var link models.Link
	err := d.api.Do(ctx, apiclient.Call{
		Method: http.MethodPost,
		Path:   collectionPath,
		Body:   request,
		Result: &link,
	})
	if err != nil {
		return models.Link{}, err
	}

	return link, nil
}

func (d *Directory) Update(ctx context.Context, id string, request models.LinkRequest) (models.Link, error) {
	var link models.Link
	err := d.api.Do(ctx, apiclient.Call{
		Method:     http.MethodPut,
		Path:       itemPath,
		PathParams: map[string]string{"id": id},
		Body:       request,
		Result:     &link,
	})
	if err != nil {
		return models.Link{}, err
	}

	return link, nil
}

func (d *Directory) Delete(ctx context.Context, id string) error {
	return d.api.Do(ctx, apiclient.Call{
		Method:     http.MethodDelete,
		Path:       itemPath,
		PathParams: map[string]string{"id": id},
	})
}
