// Package catalog merges the tool catalogs of the configured worker
// components and resolves tool names to their owning worker.
package catalog

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/fastertools/ftl-gateway/internal/gateway/internal/worker"
	"github.com/fastertools/ftl-gateway/pkg/mcp"
)

// Entry pairs a tool with the component that owns it.
type Entry struct {
	Component string
	Tool      mcp.ToolMetadata
}

// Catalog fans out to the configured workers and merges their tool lists.
// Each request builds its own snapshot; nothing is shared across requests.
type Catalog struct {
	client     *worker.Client
	components []string
}

// New creates a catalog over the given components, in routing order.
func New(client *worker.Client, components []string) *Catalog {
	return &Catalog{
		client:     client,
		components: components,
	}
}

// Snapshot fans out to every component concurrently and merges the results
// in configuration order, preserving each worker's own order. A failing or
// malformed worker is skipped: a partial catalog is preferable to total
// failure. Tool names are globally unique by convention; on collision the
// earlier configured worker wins and the duplicate is dropped.
func (c *Catalog) Snapshot(ctx context.Context) []Entry {
	perComponent := make([][]mcp.ToolMetadata, len(c.components))

	g, ctx := errgroup.WithContext(ctx)
	for i, component := range c.components {
		g.Go(func() error {
			tools, err := c.client.ListTools(ctx, component)
			if err != nil {
				slog.Warn("skipping worker in tool listing", "component", component, "error", err)
				return nil
			}
			perComponent[i] = tools
			return nil
		})
	}
	// Workers never return errors into the group; Wait only orders the writes.
	_ = g.Wait()

	seen := make(map[string]struct{})
	var merged []Entry
	for i, component := range c.components {
		for _, tool := range perComponent[i] {
			if _, dup := seen[tool.Name]; dup {
				slog.Warn("dropping duplicate tool name", "tool", tool.Name, "component", component)
				continue
			}
			seen[tool.Name] = struct{}{}
			merged = append(merged, Entry{Component: component, Tool: tool})
		}
	}

	return merged
}

// Tools returns the merged tool metadata list.
func (c *Catalog) Tools(ctx context.Context) []mcp.ToolMetadata {
	entries := c.Snapshot(ctx)

	tools := make([]mcp.ToolMetadata, 0, len(entries))
	for _, entry := range entries {
		tools = append(tools, entry.Tool)
	}
	return tools
}

// Resolve finds the owning component for a tool name.
func (c *Catalog) Resolve(ctx context.Context, name string) (Entry, bool) {
	for _, entry := range c.Snapshot(ctx) {
		if entry.Tool.Name == name {
			return entry, true
		}
	}
	return Entry{}, false
}
