package processor

import (
	"slices"

	"github.com/thisisjab/oafilter/entity"
)

type FinalizeProcessorConfig struct {
	Name string `yaml:"-"`

	// Queryables lists the ids to finalize. When empty every queryable that enumerates its
	// values is finalized.
	Queryables []string `yaml:"queryables"`
}

// FinalizeProcessor marks the values of queryables as a closed set, so that a UI offers a
// select box instead of a free text input.
type FinalizeProcessor struct {
	cfg FinalizeProcessorConfig
}

func NewFinalizeProcessor(cfg FinalizeProcessorConfig) (*FinalizeProcessor, error) {
	return &FinalizeProcessor{cfg: cfg}, nil
}

func (p *FinalizeProcessor) Name() string {
	return p.cfg.Name
}

func (p *FinalizeProcessor) Process(queryables []entity.Queryable) ([]entity.Queryable, error) {
	res := cloneQueryables(queryables)
	for i := range res {
		if len(p.cfg.Queryables) == 0 && len(res[i].Values) > 0 || slices.Contains(p.cfg.Queryables, res[i].ID) {
			res[i].Finalized = true
		}
	}
	return res, nil
}
