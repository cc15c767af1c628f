package main

import (
	"context"
	"errors"

	"github.com/alnah/go-mxe"
	"github.com/alnah/go-mxe/internal/download"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrReadCSS            = errors.New("failed to read CSS file")
	ErrReadMarkdown       = errors.New("failed to read markdown file")
	ErrWriteOutput        = errors.New("failed to write output file")
	ErrInvalidExtension   = errors.New("file must have .md or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrClipboardMultiple  = errors.New("clipboard output takes exactly one input")
	ErrUsage              = errors.New("invalid usage")
)

// Converter is the interface for the conversion service.
type Converter interface {
	Export(ctx context.Context, input mxe.Input, format mxe.Format) (*mxe.Result, error)
}

// Compile-time interface implementation check.
var _ Converter = (*mxe.Converter)(nil)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire() (Converter, error)
	Release(Converter)
	Size() int
	Close() error
}

// Downloader fetches a web article into dir.
type Downloader interface {
	Download(ctx context.Context, rawURL, dir string) (*download.Article, error)
}

var _ Downloader = (*download.Downloader)(nil)

// converterPool adapts mxe.ConverterPool to Pool.
type converterPool struct {
	pool *mxe.ConverterPool
}

var _ Pool = (*converterPool)(nil)

func (p *converterPool) Acquire() (Converter, error) {
	c, err := p.pool.Acquire()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (p *converterPool) Release(c Converter) {
	if conv, ok := c.(*mxe.Converter); ok {
		p.pool.Release(conv)
	}
}

func (p *converterPool) Size() int { return p.pool.Size() }

func (p *converterPool) Close() error { return p.pool.Close() }
