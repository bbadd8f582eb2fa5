package models

import "sort"

// GroupKind tells whether a resource group is shared by every entity or
// split into one file per entity.
type GroupKind int

const (
	Shared GroupKind = iota
	PerEntity
)

func (k GroupKind) String() string {
	if k == PerEntity {
		return "per-entity"
	}
	return "shared"
}

// Group is a resource group discovered under the data directory.
type Group struct {
	Name string
	Kind GroupKind
	// Path is the chosen file for shared groups and the directory for
	// per-entity groups.
	Path string
	// Format is the extension of a shared group's file.
	Format string
}

// Namespace maps resource group names to the values resolved for one entity.
// Groups without a value for the entity are present with a nil value.
type Namespace map[string]interface{}

// Absent reports whether group has no value for the entity.
func (ns Namespace) Absent(group string) bool {
	v, ok := ns[group]
	return !ok || v == nil
}

// Names returns the group names in sorted order.
func (ns Namespace) Names() []string {
	names := make([]string, 0, len(ns))
	for name := range ns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entities holds the namespaces of every canonical entity in discovery order.
type Entities struct {
	Names      []string
	Namespaces map[string]Namespace
}

// Len returns the number of entities.
func (e *Entities) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Names)
}
