// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package block

import (
	"fmt"
	"sort"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"

	"github.com/snowplow-devops/aws-blocks/pkg/block/blockiface"
)

var (
	// ErrUnknownBlock is returned when no block exists with the requested id
	ErrUnknownBlock = errors.New("unknown block")

	// ErrBlockDisabled is returned when the block exists but is not enabled
	ErrBlockDisabled = errors.New("block is not enabled")
)

// Registry indexes blocks by id and tracks which of them may be invoked
type Registry struct {
	blocks  map[string]blockiface.Block
	ids     []string
	enabled []glob.Glob
}

// NewRegistry builds a registry from the provided blocks, all of them enabled
func NewRegistry(blocks ...blockiface.Block) (*Registry, error) {
	r := &Registry{
		blocks: make(map[string]blockiface.Block, len(blocks)),
	}

	for _, b := range blocks {
		id := b.GetID()
		if _, ok := r.blocks[id]; ok {
			return nil, fmt.Errorf("duplicate block id %q", id)
		}
		r.blocks[id] = b
		r.ids = append(r.ids, id)
	}
	sort.Strings(r.ids)

	return r, nil
}

// NewDefaultRegistry registers every CloudFront, RDS and SQS block using
// clients built straight from the session
func NewDefaultRegistry() *Registry {
	var blocks []blockiface.Block
	blocks = append(blocks, CloudFrontBlocks(NewCloudFrontClient)...)
	blocks = append(blocks, RDSBlocks(NewRDSClient)...)
	blocks = append(blocks, SQSBlocks(NewSQSClient)...)

	r, err := NewRegistry(blocks...)
	if err != nil {
		panic(err)
	}
	return r
}

// Enable restricts the invokable blocks to those matching at least one of the
// glob patterns, e.g. "sqs.*" or "rds.Describe*". No patterns enables everything.
func (r *Registry) Enable(patterns []string) error {
	var globs []glob.Glob
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return errors.Wrapf(err, "Failed to compile block pattern %q", p)
		}
		globs = append(globs, g)
	}
	r.enabled = globs
	return nil
}

// IsEnabled reports whether a block id passes the enabled patterns
func (r *Registry) IsEnabled(id string) bool {
	if len(r.enabled) == 0 {
		return true
	}
	for _, g := range r.enabled {
		if g.Match(id) {
			return true
		}
	}
	return false
}

// Get returns an enabled block
func (r *Registry) Get(id string) (blockiface.Block, error) {
	b, ok := r.blocks[id]
	if !ok {
		return nil, errors.Wrap(ErrUnknownBlock, id)
	}
	if !r.IsEnabled(id) {
		return nil, errors.Wrap(ErrBlockDisabled, id)
	}
	return b, nil
}

// List returns the enabled blocks sorted by id, restricted to one service
// unless service is empty
func (r *Registry) List(service string) []blockiface.Block {
	var blocks []blockiface.Block
	for _, id := range r.ids {
		b := r.blocks[id]
		if service != "" && b.Service() != service {
			continue
		}
		if r.IsEnabled(id) {
			blocks = append(blocks, b)
		}
	}
	return blocks
}
