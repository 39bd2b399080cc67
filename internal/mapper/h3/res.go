package h3mapper

import (
	"fmt"
	"slices"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
)

func parseCell(cell string) (h3.Cell, error) {
	var c h3.Cell
	if err := c.UnmarshalText([]byte(cell)); err != nil {
		return 0, fmt.Errorf("parse cell %q: %w", cell, err)
	}
	if !c.IsValid() {
		return 0, fmt.Errorf("invalid h3 cell %q", cell)
	}
	return c, nil
}

func (m *Mapper) Resolution(cell string) (int, error) {
	c, err := parseCell(cell)
	if err != nil {
		return 0, err
	}
	return c.Resolution(), nil
}

func (m *Mapper) ToParent(cell string, parentRes int) (string, error) {
	if err := validateRes(parentRes); err != nil {
		return "", err
	}
	c, err := parseCell(cell)
	if err != nil {
		return "", err
	}
	curRes := c.Resolution()
	if parentRes > curRes {
		return "", fmt.Errorf("parentRes %d must be <= cell resolution %d", parentRes, curRes)
	}
	if parentRes == curRes {
		return cell, nil
	}
	p, err := c.Parent(parentRes)
	if err != nil {
		return "", fmt.Errorf("h3 parent: %w", err)
	}
	return p.String(), nil
}

func (m *Mapper) ToChildren(cell string, childRes int) (model.Cells, error) {
	if err := validateRes(childRes); err != nil {
		return nil, err
	}
	c, err := parseCell(cell)
	if err != nil {
		return nil, err
	}
	curRes := c.Resolution()
	if childRes < curRes {
		return nil, fmt.Errorf("childRes %d must be >= cell resolution %d", childRes, curRes)
	}
	if childRes == curRes {
		return model.Cells{cell}, nil
	}
	kids, err := c.Children(childRes)
	if err != nil {
		return nil, fmt.Errorf("h3 children: %w", err)
	}
	return sortedStrings(kids), nil
}

func (m *Mapper) Compact(cells model.Cells) (model.Cells, error) {
	in := make([]h3.Cell, 0, len(cells))
	for _, s := range cells {
		c, err := parseCell(s)
		if err != nil {
			return nil, err
		}
		in = append(in, c)
	}
	out, err := h3.CompactCells(in)
	if err != nil {
		return nil, fmt.Errorf("h3 compact: %w", err)
	}
	return sortedStrings(out), nil
}

func sortedStrings(cells []h3.Cell) model.Cells {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		out = append(out, c.String())
	}
	slices.Sort(out)
	return slices.Compact(out)
}
