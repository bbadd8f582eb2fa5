// Package reports renders templates for the entities of a project.
package reports

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/meysamhadeli/buroca/resources/contracts"
	"github.com/meysamhadeli/buroca/templates"
)

// NameFunc computes the destination of template rendered for entity.
type NameFunc func(template, entity, format string) string

// ErrorPolicy decides what a batch does after an entity failed: returning
// the error aborts the batch, returning nil skips the entity.
type ErrorPolicy func(entity string, err error) error

// ProgressFunc observes a batch. index starts at 1.
type ProgressFunc func(index, total int, entity string)

// AbortOnError stops the batch at the first failure.
func AbortOnError(entity string, err error) error {
	return fmt.Errorf("rendering %s: %w", entity, err)
}

// BatchOptions configures RenderForAllEntities.
type BatchOptions struct {
	// OutputFormat selects the output format; empty keeps the template's.
	OutputFormat string
	NameFn       NameFunc
	OnError      ErrorPolicy
	Progress     ProgressFunc
}

// Result describes a finished batch.
type Result struct {
	Written  []string
	Skipped  map[string]error
	Duration time.Duration
}

// Orchestrator composes the resource store and the renderer.
type Orchestrator struct {
	store    contracts.IResourceStore
	renderer *templates.Renderer
	logger   *log.Logger
}

func NewOrchestrator(store contracts.IResourceStore, renderer *templates.Renderer, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{store: store, renderer: renderer, logger: logger}
}

// Base returns the project directory of the store.
func (o *Orchestrator) Base() string {
	return filepath.Dir(o.store.DataDir())
}

// RenderForEntity renders templatePath for one entity into dest.
func (o *Orchestrator) RenderForEntity(ctx context.Context, templatePath, dest, entity, outputFormat string) error {
	ns, err := o.store.LoadEntityNamespace(entity)
	if err != nil {
		return err
	}
	tmpl, err := o.renderer.CompileFile(templatePath)
	if err != nil {
		return err
	}

	o.logger.Debug("rendering", "template", templatePath, "entity", entity, "dest", dest)
	return o.renderer.RenderAndConvert(ctx, tmpl, ns, dest, outputFormat)
}

// RenderForAllEntities compiles templatePath once and renders it for every
// entity in discovery order. Without an OnError policy the batch aborts at
// the first failure.
func (o *Orchestrator) RenderForAllEntities(ctx context.Context, templatePath string, opts BatchOptions) (*Result, error) {
	start := time.Now()
	result := &Result{Skipped: make(map[string]error)}

	nameFn := opts.NameFn
	if nameFn == nil {
		nameFn = DefaultName(o.Base())
	}
	onError := opts.OnError
	if onError == nil {
		onError = AbortOnError
	}

	entities, err := o.store.LoadAllEntities()
	if err != nil {
		return result, err
	}
	tmpl, err := o.renderer.CompileFile(templatePath)
	if err != nil {
		return result, err
	}

	total := entities.Len()
	for i, entity := range entities.Names {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if opts.Progress != nil {
			opts.Progress(i+1, total, entity)
		}

		dest := nameFn(templatePath, entity, opts.OutputFormat)
		err := o.renderer.RenderAndConvert(ctx, tmpl, entities.Namespaces[entity], dest, opts.OutputFormat)
		if err != nil {
			if err := onError(entity, err); err != nil {
				result.Duration = time.Since(start)
				return result, err
			}
			o.logger.Warn("skipping entity", "entity", entity, "error", err)
			result.Skipped[entity] = err
			continue
		}
		result.Written = append(result.Written, dest)
	}

	result.Duration = time.Since(start)
	o.logger.Debug("batch finished", "template", templatePath, "written", len(result.Written), "skipped", len(result.Skipped))
	return result, nil
}
