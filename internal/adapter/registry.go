package adapter

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/amishk599/jobradar/internal/model"
)

// Factory builds the adapter for one configured source.
type Factory func(source model.JobSource, client *http.Client) model.SourceAdapter

var factories = map[model.SourceType]Factory{
	model.SourceGreenhouse: func(s model.JobSource, c *http.Client) model.SourceAdapter { return NewGreenhouseAdapter(s, c) },
	model.SourceLever:      func(s model.JobSource, c *http.Client) model.SourceAdapter { return NewLeverAdapter(s, c) },
	model.SourceAshby:      func(s model.JobSource, c *http.Client) model.SourceAdapter { return NewAshbyAdapter(s, c) },
}

// New returns the adapter registered for source.Type.
func New(source model.JobSource, client *http.Client) (model.SourceAdapter, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}
	f, ok := factories[source.Type]
	if !ok {
		return nil, fmt.Errorf("source %s: unsupported type %q", source.ID, source.Type)
	}
	return f(source, client), nil
}

// Types lists the registered source types in sorted order.
func Types() []model.SourceType {
	types := make([]model.SourceType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
